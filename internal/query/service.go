// Package query は判定履歴と管理ダッシュボードの参照系ロジックを提供する。
package query

import (
	"context"
	"fmt"

	"github.com/hitoshi/deepscan/internal/model"
	"github.com/hitoshi/deepscan/internal/repository"
)

// Service は参照系のサービス層。
// 管理者権限の判定はハンドラーではなくこの層で行う。
type Service struct {
	userRepo   repository.UserRepository
	recordRepo repository.ClassificationRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, recordRepo repository.ClassificationRepository) *Service {
	return &Service{
		userRepo:   userRepo,
		recordRepo: recordRepo,
	}
}

// History は指定ユーザー自身の判定履歴を新着順で返す。
func (s *Service) History(ctx context.Context, userID string) ([]*model.Classification, error) {
	records, err := s.recordRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("判定履歴の取得に失敗しました: %w", err)
	}
	return records, nil
}

// Feed は全ユーザーの判定レコードを新着順で返す。
// 要求ユーザーのis_adminをDBで確認し、管理者でない場合は拒否する。
func (s *Service) Feed(ctx context.Context, requesterID string) ([]*model.Classification, error) {
	if err := s.requireAdmin(ctx, requesterID); err != nil {
		return nil, err
	}

	records, err := s.recordRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("判定レコードの取得に失敗しました: %w", err)
	}
	return records, nil
}

// Stats は管理ダッシュボード向けの集計値を返す。管理者のみ。
func (s *Service) Stats(ctx context.Context, requesterID string) (*model.Stats, error) {
	if err := s.requireAdmin(ctx, requesterID); err != nil {
		return nil, err
	}

	stats, err := s.recordRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("統計の集計に失敗しました: %w", err)
	}
	return stats, nil
}

// requireAdmin は要求ユーザーが管理者であることを確認する。
// 権限はユーザー名ではなくusersテーブルのis_adminカラムで判定する。
func (s *Service) requireAdmin(ctx context.Context, requesterID string) error {
	user, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	if !user.IsAdmin {
		return model.NewAdminOnlyError()
	}
	return nil
}
