package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/laboussole/boussole-api/internal/metrics"
	"github.com/laboussole/boussole-api/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 閲覧サービス
	CitationService    CitationServiceInterface
	PersonalityService PersonalityServiceInterface
	NewsService        NewsServiceInterface

	// 参照データ
	Tags         TagLister
	Parties      PartyLister
	MandateTypes MandateTypeLister
	Departments  DepartmentLister

	// 運用
	HealthChecker  HealthChecker
	Metrics        *metrics.Collector
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.HTTPMiddleware())
	}

	citationHandler := NewCitationHandler(deps.CitationService)
	personalityHandler := NewPersonalityHandler(deps.PersonalityService)
	newsHandler := NewNewsHandler(deps.NewsService)
	refHandler := NewReferenceHandler(deps.Tags, deps.Parties, deps.MandateTypes, deps.Departments)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 運用ルート（レート制限の外） ---

	r.Get("/health", healthHandler.Check)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 公開APIルート ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 引用閲覧（一覧はテキスト検索を含むため検索専用レート制限を追加）
		r.Route("/api/citations", func(r chi.Router) {
			r.With(deps.RateLimiter.SearchMiddleware()).Get("/", citationHandler.ListQuotes)
			r.Get("/{id}", citationHandler.GetQuote)
		})

		// 政治家閲覧
		r.Route("/api/personnalites", func(r chi.Router) {
			r.With(deps.RateLimiter.SearchMiddleware()).Get("/", personalityHandler.List)
			r.Get("/{id}", personalityHandler.Get)
		})

		// フィルタウィジェット用の参照データ
		r.Get("/api/tags", refHandler.ListTags)
		r.Get("/api/partis", refHandler.ListParties)
		r.Get("/api/mandat-types", refHandler.ListMandateTypes)
		r.Get("/api/departements", refHandler.ListDepartments)

		// ニュース閲覧
		r.Get("/api/actualites", newsHandler.List)
	})

	return r
}
