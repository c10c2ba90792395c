package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// captureLog はミドルウェアを通したリクエストを実行し、出力されたJSONログを返す。
func captureLog(t *testing.T, req *http.Request, inner http.HandlerFunc) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := NewLoggingMiddleware(logger)(inner)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

// リクエストログに必須フィールドが含まれることを検証
func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	entry := captureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if entry["method"] != "GET" {
		t.Errorf("method = %q, want %q", entry["method"], "GET")
	}
	if entry["path"] != "/api/history" {
		t.Errorf("path = %q, want %q", entry["path"], "/api/history")
	}
	if status, ok := entry["status"].(float64); !ok || status != 200 {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected 'duration_ms' field in log entry")
	}
	if _, ok := entry["bytes"]; !ok {
		t.Error("expected 'bytes' field in log entry")
	}
}

// 認証済みリクエストでuser_idがログに含まれることを検証
func TestLoggingMiddleware_IncludesUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/detect", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-123"))

	entry := captureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if entry["user_id"] != "user-123" {
		t.Errorf("user_id = %q, want %q", entry["user_id"], "user-123")
	}
}

// 未認証リクエストでuser_idフィールドが出力されないことを検証
func TestLoggingMiddleware_NoUserID_OmitsField(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	entry := captureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if val, ok := entry["user_id"]; ok && val != "" {
		t.Errorf("user_id should be empty for unauthenticated request, got %q", val)
	}
}

// 各ステータスコードが正しくキャプチャされることを検証
func TestLoggingMiddleware_CapturesStatusCode(t *testing.T) {
	for _, statusCode := range []int{
		http.StatusOK,
		http.StatusCreated,
		http.StatusBadRequest,
		http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType,
		http.StatusInternalServerError,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		entry := captureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(statusCode)
		})

		if status := int(entry["status"].(float64)); status != statusCode {
			t.Errorf("status = %d, want %d", status, statusCode)
		}
	}
}

// WriteHeaderを呼ばずにWriteした場合に暗黙の200とボディサイズが記録されることを検証
func TestLoggingMiddleware_ImplicitStatusAndBytes(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/uploads/abc.png", nil)
	entry := captureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	})

	if status := int(entry["status"].(float64)); status != 200 {
		t.Errorf("status = %d, want 200", status)
	}
	if size := int(entry["bytes"].(float64)); size != len("image-bytes") {
		t.Errorf("bytes = %d, want %d", size, len("image-bytes"))
	}
}

// 処理時間が負でないことを検証
func TestLoggingMiddleware_DurationIsPositive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	entry := captureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if duration := entry["duration_ms"].(float64); duration < 0 {
		t.Errorf("duration_ms = %v, should be >= 0", duration)
	}
}
