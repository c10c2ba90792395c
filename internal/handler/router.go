package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/deepscan/internal/metrics"
	"github.com/hitoshi/deepscan/internal/middleware"
	"github.com/hitoshi/deepscan/internal/storage"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 判定
	DetectService DetectServiceInterface
	MaxUploadSize int64

	// 参照系
	QueryService QueryServiceInterface

	// アーティファクト配信
	ArtifactStore storage.Store
	AllowedExts   []string

	// 運用エンドポイント
	HealthChecker   HealthChecker
	ClassifierProbe ReadinessReporter
	MetricsGatherer prometheus.Gatherer
	StatusRecorder  metrics.MetricsCollector
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery → [Session → CSRF → RateLimit]
//
// 認証ルート（/auth/*）と運用エンドポイント（/health, /metrics）は
// セッション必須のチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.StatusRecorder != nil {
		r.Use(metrics.NewHTTPStatusMiddleware(deps.StatusRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	detectHandler := NewDetectHandler(deps.DetectService, deps.MaxUploadSize)
	recordHandler := NewRecordHandler(deps.QueryService)
	artifactHandler := NewArtifactHandler(deps.ArtifactStore, deps.AllowedExts)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 運用エンドポイント
	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.HealthChecker, deps.ClassifierProbe))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// CSRFトークン取得（セッション不要。ログイン前にトークンを取得できる必要がある）
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// POST /api/detect - 画像判定（判定専用レート制限を追加）
		r.With(deps.RateLimiter.DetectMiddleware()).Post("/api/detect", detectHandler.Detect)

		// GET /api/history - 自分の判定履歴
		r.Get("/api/history", recordHandler.History)

		// GET /api/uploads/{name} - 保存済みアーティファクトの配信
		r.Get("/api/uploads/{name}", artifactHandler.Get)

		// 管理者ビュー
		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/records", recordHandler.Feed)
			r.Get("/stats", recordHandler.Stats)
		})
	})

	return r
}
