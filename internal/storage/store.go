// Package storage はアップロード画像（アーティファクト）の保存バックエンドを提供する。
// バックエンドはfilesystem・s3・memoryの3種類で、設定により切り替える。
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound は指定された名前のアーティファクトが存在しないことを表す。
var ErrNotFound = errors.New("artifact not found")

// Store はアーティファクトの保存・取得・削除のインターフェース。
// 名前はサービス側で生成されるため、Saveは名前の衝突を想定しない。
type Store interface {
	// Save は内容を指定名で保存する。部分書き込み状態を外部に見せてはならない。
	Save(ctx context.Context, name string, content []byte) error
	// Open は指定名のアーティファクトの内容を返す。
	// 存在しない場合はErrNotFoundを返す。
	Open(ctx context.Context, name string) ([]byte, error)
	// Delete は指定名のアーティファクトを削除する。
	Delete(ctx context.Context, name string) error
}

// NewArtifactName は衝突しないアーティファクト名を生成する。
// 形式は「UUIDv4の128bitを16進表記した32文字 + "." + 拡張子」。
// 元のファイル名は名前に含めない（パストラバーサルと衝突の回避）。
func NewArtifactName(ext string) string {
	u := uuid.New()
	return hex.EncodeToString(u[:]) + "." + ext
}

// ValidArtifactName はnameがこのサービスが生成する形式かを検証する。
// 配信エンドポイントでの任意パス参照を防ぐため、形式外の名前は拒否する。
func ValidArtifactName(name string, allowedExts []string) bool {
	base, ext, ok := strings.Cut(name, ".")
	if !ok {
		return false
	}
	if len(base) != 32 {
		return false
	}
	if _, err := hex.DecodeString(base); err != nil {
		return false
	}
	for _, allowed := range allowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}
