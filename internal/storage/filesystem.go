package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemStore はローカルディレクトリにアーティファクトを保存するStore実装。
// ディレクトリ構造はフラットで、名前がそのままファイル名になる。
type FilesystemStore struct {
	root string
}

// NewFilesystemStore はFilesystemStoreを生成する。
// ルートディレクトリが存在しない場合は作成する。
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

// Save は内容を一時ファイルに書き込んでからrenameで確定する。
// renameは同一ファイルシステム内でアトミックなため、
// 途中で失敗しても最終名のファイルが部分書き込み状態になることはない。
func (s *FilesystemStore) Save(ctx context.Context, name string, content []byte) error {
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.root, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return nil
}

// Open は指定名のアーティファクトの内容を返す。
func (s *FilesystemStore) Open(ctx context.Context, name string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return content, nil
}

// Delete は指定名のアーティファクトを削除する。
func (s *FilesystemStore) Delete(ctx context.Context, name string) error {
	if err := os.Remove(filepath.Join(s.root, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Store = (*FilesystemStore)(nil)
