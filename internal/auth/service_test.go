package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/deepscan/internal/model"
	"github.com/hitoshi/deepscan/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	createFn         func(ctx context.Context, user *model.User) error
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func newTestService(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(userRepo, sessionRepo, ServiceConfig{SessionMaxAge: 86400})
}

// --- Signup ---

func TestSignup_Success(t *testing.T) {
	var createdUser *model.User
	var createdSession *model.Session

	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	user, session, err := svc.Signup(context.Background(), "alice", "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	if user.Username != "alice" {
		t.Errorf("username = %q, want %q", user.Username, "alice")
	}
	if user.IsAdmin {
		t.Error("new user should not be admin")
	}
	if createdUser == nil {
		t.Fatal("user was not persisted")
	}
	// 平文パスワードがそのまま保存されていないこと
	if createdUser.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(createdUser.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
	if createdSession == nil || session == nil {
		t.Fatal("session was not created")
	}
	if session.UserID != user.ID {
		t.Errorf("session.UserID = %q, want %q", session.UserID, user.ID)
	}
}

func TestSignup_ShortPassword(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, _, err := svc.Signup(context.Background(), "alice", "alice@example.com", "12345")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeWeakPassword {
		t.Fatalf("expected WEAK_PASSWORD error, got %v", err)
	}
}

func TestSignup_InvalidInput(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"empty username", "", "alice@example.com"},
		{"whitespace username", "   ", "alice@example.com"},
		{"empty email", "alice", ""},
		{"email without at", "alice", "not-an-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Signup(context.Background(), tt.username, tt.email, "secret123")

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidSignup {
				t.Fatalf("expected INVALID_SIGNUP error, got %v", err)
			}
		})
	}
}

// 重複アカウントはDBの制約違反から検出されることを検証
func TestSignup_DuplicateAccount(t *testing.T) {
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return repository.ErrDuplicateAccount
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, _, err := svc.Signup(context.Background(), "alice", "alice@example.com", "secret123")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateAccount {
		t.Fatalf("expected DUPLICATE_ACCOUNT error, got %v", err)
	}
}

// --- Login ---

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestLogin_Success(t *testing.T) {
	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Username:     username,
				PasswordHash: hashPassword(t, "secret123"),
			}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	user, session, err := svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
	if session.UserID != "user-1" {
		t.Errorf("session.UserID = %q, want %q", session.UserID, "user-1")
	}
	if session.ExpiresAt.Before(time.Now()) {
		t.Error("session already expired")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Username:     username,
				PasswordHash: hashPassword(t, "secret123"),
			}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, _, err := svc.Login(context.Background(), "alice", "wrong-password")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS error, got %v", err)
	}
}

// 未知のユーザーとパスワード不一致が同じエラーを返すことを検証
func TestLogin_UnknownUser_SameErrorAsWrongPassword(t *testing.T) {
	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, _, err := svc.Login(context.Background(), "ghost", "whatever")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS error, got %v", err)
	}
}

// --- Logout ---

func TestLogout_DeletesSession(t *testing.T) {
	var deletedID string
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), "session-123"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if deletedID != "session-123" {
		t.Errorf("deleted session = %q, want %q", deletedID, "session-123")
	}
}

func TestLogout_EmptySessionID(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty session ID")
	}
}

// --- GetCurrentUser ---

func TestGetCurrentUser_Success(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        id,
				UserID:    "user-1",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Username: "alice"}, nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	user, err := svc.GetCurrentUser(context.Background(), "session-123")
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
}

func TestGetCurrentUser_SessionNotFound(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	if _, err := svc.GetCurrentUser(context.Background(), "expired-session"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

// --- セッションID生成 ---

func TestGenerateSessionID_UniqueAndHex(t *testing.T) {
	id1, err := generateSessionID()
	if err != nil {
		t.Fatalf("generateSessionID failed: %v", err)
	}
	id2, err := generateSessionID()
	if err != nil {
		t.Fatalf("generateSessionID failed: %v", err)
	}

	if len(id1) != 64 {
		t.Errorf("session ID length = %d, want 64", len(id1))
	}
	if id1 == id2 {
		t.Error("session IDs should be unique")
	}
}

// 再ログイン時に同一ユーザーの古いセッションが削除されることを検証
func TestLogin_DeletesOldSessions(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)

	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: "user-relogin", Username: username, PasswordHash: string(hash)}, nil
		},
	}

	var deletedUserID string
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			deletedUserID = userID
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	_, session, err := svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if deletedUserID != "user-relogin" {
		t.Errorf("deleted user ID = %q, want %q", deletedUserID, "user-relogin")
	}
	if session == nil {
		t.Fatal("expected new session after old sessions are deleted")
	}
}

// 古いセッションの削除失敗がログインを妨げないことを検証
func TestLogin_OldSessionDeleteFailure_StillLogsIn(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)

	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: username, PasswordHash: string(hash)}, nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			return errors.New("db down")
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	_, session, err := svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session == nil {
		t.Fatal("expected session despite delete failure")
	}
}
