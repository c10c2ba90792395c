package repository

import (
	"errors"
	"testing"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ErrDuplicateAccountがerrors.Isで判別可能であることを検証
func TestErrDuplicateAccount_IsComparable(t *testing.T) {
	wrapped := errors.Join(ErrDuplicateAccount)
	if !errors.Is(wrapped, ErrDuplicateAccount) {
		t.Error("expected errors.Is to match ErrDuplicateAccount")
	}
}
