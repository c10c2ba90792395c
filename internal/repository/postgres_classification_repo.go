package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/deepscan/internal/model"
)

// PostgresClassificationRepo はPostgreSQLを使用した判定レコードリポジトリ。
type PostgresClassificationRepo struct {
	db *sql.DB
}

// NewPostgresClassificationRepo はPostgresClassificationRepoを生成する。
func NewPostgresClassificationRepo(db *sql.DB) *PostgresClassificationRepo {
	return &PostgresClassificationRepo{db: db}
}

// Insert は判定レコードを1件挿入し、採番されたidを返す。
// idはBIGSERIALにより挿入順で単調増加する。
func (r *PostgresClassificationRepo) Insert(ctx context.Context, rec *model.Classification) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO classifications (artifact_ref, label, confidence, submitted_at, owner_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		rec.ArtifactRef, rec.Label, rec.Confidence, rec.SubmittedAt, rec.OwnerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert classification: %w", err)
	}
	return id, nil
}

// ListByOwner は指定ユーザーの判定レコードを新着順で返す。
func (r *PostgresClassificationRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Classification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, artifact_ref, label, confidence, submitted_at, owner_id
		 FROM classifications
		 WHERE owner_id = $1
		 ORDER BY id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications by owner: %w", err)
	}
	defer rows.Close()

	return scanClassifications(rows)
}

// ListAll は全判定レコードを新着順で返す。
func (r *PostgresClassificationRepo) ListAll(ctx context.Context) ([]*model.Classification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, artifact_ref, label, confidence, submitted_at, owner_id
		 FROM classifications
		 ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	defer rows.Close()

	return scanClassifications(rows)
}

// Stats は管理ダッシュボード向けの集計値を返す。
// ERRORレコードはTotalUploadsに含まれるがFake/Realのいずれにも数えない。
func (r *PostgresClassificationRepo) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{}
	err := r.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM classifications),
			(SELECT COUNT(*) FROM classifications WHERE label = 'FAKE'),
			(SELECT COUNT(*) FROM classifications WHERE label = 'REAL'),
			(SELECT COUNT(*) FROM users)`,
	).Scan(&stats.TotalUploads, &stats.FakeCount, &stats.RealCount, &stats.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return stats, nil
}

func scanClassifications(rows *sql.Rows) ([]*model.Classification, error) {
	var records []*model.Classification
	for rows.Next() {
		rec := &model.Classification{}
		if err := rows.Scan(&rec.ID, &rec.ArtifactRef, &rec.Label, &rec.Confidence, &rec.SubmittedAt, &rec.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classifications: %w", err)
	}
	return records, nil
}

// compile-time interface check
var _ ClassificationRepository = (*PostgresClassificationRepo)(nil)
