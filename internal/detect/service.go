// Package detect はアップロード画像の判定パイプラインを提供する。
// バリデーション、アーティファクト保存、推論呼び出し、レコード永続化を
// この順序で実行する。
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hitoshi/deepscan/internal/classifier"
	"github.com/hitoshi/deepscan/internal/metrics"
	"github.com/hitoshi/deepscan/internal/model"
	"github.com/hitoshi/deepscan/internal/repository"
	"github.com/hitoshi/deepscan/internal/storage"
)

// バリデーション拒否メトリクスの理由ラベル
const (
	rejectReasonNoFile    = "no_file"
	rejectReasonEmpty     = "empty"
	rejectReasonExtension = "extension"
	rejectReasonTooLarge  = "too_large"
)

// Result は判定パイプラインの実行結果。
type Result struct {
	RecordID    int64
	ArtifactRef string
	Label       model.Label
	Confidence  float64
}

// FormatConfidence は確信度をAPIレスポンス用の文字列に整形する。
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence)
}

// Service は判定パイプラインのサービス層。
type Service struct {
	store         storage.Store
	classifier    classifier.Classifier
	recordRepo    repository.ClassificationRepository
	metrics       metrics.MetricsCollector
	maxUploadSize int64
	allowedExts   []string
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnil可（テスト用）。
func NewService(
	store storage.Store,
	cls classifier.Classifier,
	recordRepo repository.ClassificationRepository,
	collector metrics.MetricsCollector,
	maxUploadSize int64,
	allowedExts []string,
) *Service {
	return &Service{
		store:         store,
		classifier:    cls,
		recordRepo:    recordRepo,
		metrics:       collector,
		maxUploadSize: maxUploadSize,
		allowedExts:   allowedExts,
	}
}

// Submit はアップロードされた画像を判定する。
// バリデーション失敗時はアーティファクトもレコードも残さない。
// アーティファクト保存後の推論失敗はERRORレコードとして記録し、
// アーティファクトは削除しない（再判定の手がかりとして残す）。
func (s *Service) Submit(ctx context.Context, content []byte, filename string, ownerID *string) (*Result, error) {
	// 1. バリデーション。この段階で失敗した場合、副作用は一切発生しない。
	ext, err := s.validate(content, filename)
	if err != nil {
		return nil, err
	}

	// 2. アーティファクト保存。名前は生成するため衝突しない。
	name := storage.NewArtifactName(ext)
	if err := s.store.Save(ctx, name, content); err != nil {
		slog.Error("アーティファクトの保存に失敗しました",
			slog.String("artifact_ref", name),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStorageFailureError()
	}

	// 3. 前処理と推論。失敗してもレコードは書く。
	label, confidence := s.classify(ctx, content, name)

	// 4. レコード永続化
	rec := &model.Classification{
		ArtifactRef: name,
		Label:       label,
		Confidence:  confidence,
		SubmittedAt: time.Now().UTC(),
		OwnerID:     ownerID,
	}
	id, err := s.recordRepo.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("判定レコードの保存に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordClassification(string(label))
	}
	slog.Info("判定が完了しました",
		slog.Int64("record_id", id),
		slog.String("artifact_ref", name),
		slog.String("label", string(label)),
		slog.Float64("confidence", confidence),
	)

	return &Result{
		RecordID:    id,
		ArtifactRef: name,
		Label:       label,
		Confidence:  confidence,
	}, nil
}

// validate はアップロード内容を検査し、許可された拡張子（小文字）を返す。
func (s *Service) validate(content []byte, filename string) (string, error) {
	if filename == "" {
		s.reject(rejectReasonNoFile)
		return "", model.NewNoFileError()
	}
	if len(content) == 0 {
		s.reject(rejectReasonEmpty)
		return "", model.NewEmptyFileError()
	}

	// サイズ超過は拡張子より先に判定する
	if int64(len(content)) > s.maxUploadSize {
		s.reject(rejectReasonTooLarge)
		return "", model.NewPayloadTooLargeError(s.maxUploadSize)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	allowed := false
	for _, a := range s.allowedExts {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		s.reject(rejectReasonExtension)
		return "", model.NewUnsupportedMediaTypeError(filename)
	}

	return ext, nil
}

// classify は前処理と推論を実行し、ラベルと確信度を返す。
// デコード不能（拡張子偽装を含む）や推論サーバー障害はERROR（確信度0.0）になる。
func (s *Service) classify(ctx context.Context, content []byte, name string) (model.Label, float64) {
	tensor, err := classifier.Preprocess(content)
	if err != nil {
		slog.Warn("画像のデコードに失敗しました",
			slog.String("artifact_ref", name),
			slog.String("error", err.Error()),
		)
		return model.LabelError, 0.0
	}

	start := time.Now()
	p, err := s.classifier.Classify(ctx, tensor)
	if err != nil {
		slog.Error("推論に失敗しました",
			slog.String("artifact_ref", name),
			slog.String("error", err.Error()),
		)
		return model.LabelError, 0.0
	}
	if s.metrics != nil {
		s.metrics.RecordInferenceLatency(time.Since(start))
	}

	return classifier.Verdict(p)
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RecordUploadRejected(reason)
	}
}
