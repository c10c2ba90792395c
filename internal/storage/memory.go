package storage

import (
	"context"
	"sync"
)

// MemoryStore はテスト用のインメモリStore実装。
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Save は内容をマップに保存する。
func (s *MemoryStore) Save(ctx context.Context, name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(content))
	copy(cp, content)
	s.objects[name] = cp
	return nil
}

// Open は指定名の内容を返す。存在しない場合はErrNotFoundを返す。
func (s *MemoryStore) Open(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.objects[name]
	if !ok {
		return nil, ErrNotFound
	}
	return content, nil
}

// Delete は指定名の内容を削除する。
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return ErrNotFound
	}
	delete(s.objects, name)
	return nil
}

// Len は保存されているオブジェクト数を返す。テスト用。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
