// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/deepscan/internal/model"
)

// ErrDuplicateAccount はusernameまたはemailの一意性制約違反を表す。
// 一意性はストレージ層（PostgreSQLのUNIQUE制約）で保証され、
// 呼び出し側の事前チェックには依存しない（check-then-act競合の回避）。
var ErrDuplicateAccount = errors.New("username or email already exists")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// username/emailの重複時はErrDuplicateAccountを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	// ユーザー名は大文字小文字を区別する。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ClassificationRepository は判定レコードの永続化インターフェース。
// レコードは書き込み後不変であり、更新・削除操作は提供しない。
type ClassificationRepository interface {
	// Insert は判定レコードを1件挿入し、割り当てられたidを返す。
	// idは挿入時に単調増加で採番される。
	Insert(ctx context.Context, rec *model.Classification) (int64, error)

	// ListByOwner は指定ユーザーの判定レコードを新着順（id降順）で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Classification, error)

	// ListAll は全ユーザーの判定レコードを新着順（id降順）で返す。管理者ビュー用。
	ListAll(ctx context.Context) ([]*model.Classification, error)

	// Stats は管理ダッシュボード向けの集計値を返す。
	Stats(ctx context.Context) (*model.Stats, error)
}
