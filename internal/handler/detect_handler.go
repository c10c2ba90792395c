package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hitoshi/deepscan/internal/detect"
	"github.com/hitoshi/deepscan/internal/middleware"
	"github.com/hitoshi/deepscan/internal/model"
)

// multipartMemoryLimit はmultipartパース時にメモリへ保持する最大バイト数。
// 超過分は一時ファイルに退避される。
const multipartMemoryLimit = 4 << 20 // 4MiB

// DetectServiceInterface は判定ハンドラーが必要とするサービスインターフェース。
type DetectServiceInterface interface {
	Submit(ctx context.Context, content []byte, filename string, ownerID *string) (*detect.Result, error)
}

// DetectHandler は画像判定のHTTPハンドラー。
type DetectHandler struct {
	service       DetectServiceInterface
	maxUploadSize int64
}

// NewDetectHandler はDetectHandlerを生成する。
func NewDetectHandler(service DetectServiceInterface, maxUploadSize int64) *DetectHandler {
	return &DetectHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

// detectResponse は判定結果のレスポンス。
// confidenceは"93.21%"形式の文字列。
type detectResponse struct {
	Result     string `json:"result"`
	Confidence string `json:"confidence"`
	Artifact   string `json:"artifact"`
	RecordID   int64  `json:"record_id"`
}

// Detect はアップロード画像の判定を処理する。
// POST /api/detect （multipart/form-data、フィールド名 "file"）
func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	// ボディ全体のサイズをハンドラー側でも制限する。
	// multipartのオーバーヘッド分の余裕を持たせ、厳密なサイズ判定は
	// サービス層のバリデーションが行う。
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemoryLimit)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewPayloadTooLargeError(h.maxUploadSize))
			return
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewNoFileError())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewNoFileError())
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyFileError())
		return
	}

	result, err := h.service.Submit(r.Context(), content, header.Filename, &userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detectResponse{
		Result:     string(result.Label),
		Confidence: detect.FormatConfidence(result.Confidence),
		Artifact:   result.ArtifactRef,
		RecordID:   result.RecordID,
	})
}
