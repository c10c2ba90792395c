package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/deepscan/internal/model"
	"github.com/hitoshi/deepscan/internal/storage"
)

// ArtifactHandler はアップロード画像の配信ハンドラー。
type ArtifactHandler struct {
	store       storage.Store
	allowedExts []string
}

// NewArtifactHandler はArtifactHandlerを生成する。
func NewArtifactHandler(store storage.Store, allowedExts []string) *ArtifactHandler {
	return &ArtifactHandler{
		store:       store,
		allowedExts: allowedExts,
	}
}

// Get は保存済みアーティファクトを配信する。
// GET /api/uploads/{name}
// 名前はサービスが生成する形式のみ受け付ける（任意パス参照の防止）。
func (h *ArtifactHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if !storage.ValidArtifactName(name, h.allowedExts) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewArtifactNotFoundError(name))
		return
	}

	content, err := h.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewArtifactNotFoundError(name))
			return
		}
		slog.Error("failed to open artifact",
			slog.String("artifact_ref", name),
			slog.String("error", err.Error()),
		)
		handleServiceError(w, err)
		return
	}

	// Content-Typeは拡張子からの推測に任せず、スニッフィングを無効化した
	// application/octet-streamで返す（保存内容は検証済み画像とは限らない）。
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write(content)
}
