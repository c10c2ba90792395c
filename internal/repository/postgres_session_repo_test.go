package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/deepscan/internal/model"
)

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// NewPostgresSessionRepoが正しく初期化されることを検証
func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	repo := NewPostgresSessionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// SessionRepoのFindByIDが期限切れセッションを返さないことの期待動作
func TestPostgresSessionRepo_FindByID_ExpiredSession_Concept(t *testing.T) {
	// このテストはDB接続なしでコンセプトを検証する
	session := &model.Session{
		ID:        "expired-session",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}

	if session.ExpiresAt.After(time.Now()) {
		t.Error("expected session to be expired")
	}
}

// SessionRepoのDeleteByUserIDが全セッション削除の対象ユーザーIDを必要とすることの検証
func TestPostgresSessionRepo_DeleteByUserID_Concept(t *testing.T) {
	userID := "user-to-logout"
	ctx := context.Background()

	if userID == "" {
		t.Fatal("user ID should not be empty")
	}
	if ctx == nil {
		t.Fatal("context should not be nil")
	}
}
