package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/deepscan/internal/detect"
	"github.com/hitoshi/deepscan/internal/middleware"
	"github.com/hitoshi/deepscan/internal/model"
)

// QueryServiceInterface は参照系ハンドラーが必要とするサービスインターフェース。
type QueryServiceInterface interface {
	History(ctx context.Context, userID string) ([]*model.Classification, error)
	Feed(ctx context.Context, requesterID string) ([]*model.Classification, error)
	Stats(ctx context.Context, requesterID string) (*model.Stats, error)
}

// RecordHandler は判定履歴・管理ビューのHTTPハンドラー。
type RecordHandler struct {
	service QueryServiceInterface
}

// NewRecordHandler はRecordHandlerを生成する。
func NewRecordHandler(service QueryServiceInterface) *RecordHandler {
	return &RecordHandler{service: service}
}

// recordResponse は判定レコード1件のレスポンス。
type recordResponse struct {
	ID          int64   `json:"id"`
	Artifact    string  `json:"artifact"`
	Result      string  `json:"result"`
	Confidence  string  `json:"confidence"`
	SubmittedAt string  `json:"submitted_at"`
	OwnerID     *string `json:"owner_id,omitempty"`
}

func toRecordResponse(rec *model.Classification) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		Artifact:    rec.ArtifactRef,
		Result:      string(rec.Label),
		Confidence:  detect.FormatConfidence(rec.Confidence),
		SubmittedAt: rec.SubmittedAt.Format(time.RFC3339),
		OwnerID:     rec.OwnerID,
	}
}

func toRecordResponses(records []*model.Classification) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	return out
}

// History は自分の判定履歴を新着順で返す。
// GET /api/history
func (h *RecordHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	records, err := h.service.History(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"records": toRecordResponses(records),
	})
}

// Feed は全ユーザーの判定レコードを新着順で返す。管理者のみ。
// GET /api/admin/records
func (h *RecordHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	records, err := h.service.Feed(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"records": toRecordResponses(records),
	})
}

// statsResponse は管理ダッシュボードの集計レスポンス。
type statsResponse struct {
	TotalUploads int64 `json:"total_uploads"`
	FakeCount    int64 `json:"fake_count"`
	RealCount    int64 `json:"real_count"`
	TotalUsers   int64 `json:"total_users"`
}

// Stats は管理ダッシュボード向けの集計値を返す。管理者のみ。
// GET /api/admin/stats
func (h *RecordHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		TotalUploads: stats.TotalUploads,
		FakeCount:    stats.FakeCount,
		RealCount:    stats.RealCount,
		TotalUsers:   stats.TotalUsers,
	})
}
