package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// HealthChecker はデータベース接続の死活確認に必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// ReadinessReporter は分類器バックエンドの到達可能性を報告するインターフェース。
type ReadinessReporter interface {
	Ready() bool
}

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	Classifier string `json:"classifier"`
}

// NewHealthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// GET /health
// DBに到達できない場合は503を返す。分類器の未到達は報告のみで、
// ステータスコードには影響しない（判定はERRORとして記録され続けるため）。
func NewHealthHandler(db HealthChecker, classifier ReadinessReporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:     "ok",
			Database:   "ok",
			Classifier: "ok",
		}
		statusCode := http.StatusOK

		if err := db.PingContext(r.Context()); err != nil {
			slog.Error("health check: database unreachable", slog.String("error", err.Error()))
			resp.Status = "unavailable"
			resp.Database = "unreachable"
			statusCode = http.StatusServiceUnavailable
		}

		if classifier != nil && !classifier.Ready() {
			resp.Classifier = "unreachable"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(resp)
	})
}
