package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fintracker/internal/metrics"
	"github.com/hitoshi/fintracker/internal/middleware"
	"github.com/hitoshi/fintracker/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Authenticator     middleware.Authenticator

	Version string

	// 認証
	AuthService AuthServiceInterface

	// 家計簿
	CategoryService    CategoryServiceInterface
	TransactionService TransactionServiceInterface
	BudgetService      BudgetServiceInterface
	DashboardService   DashboardServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → (BearerAuth → RateLimit(General))
//
// ヘルスチェックとメトリクスは認証・レート制限の対象外。
// 認証ルート（/api/auth/*）はクライアントIPごとのレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteAPIError(w, model.NewNotFoundError("Resource"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, &model.APIError{
			Kind:    model.KindValidation,
			Code:    "METHOD_NOT_ALLOWED",
			Message: "Method not allowed",
		})
	})

	authHandler := NewAuthHandler(deps.AuthService)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	transactionHandler := NewTransactionHandler(deps.TransactionService)
	budgetHandler := NewBudgetHandler(deps.BudgetService)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)
	bearer := middleware.NewBearerAuthMiddleware(deps.Authenticator)

	// --- 認証不要のルート ---

	health := NewHealthHandler(deps.Version)
	r.Get("/health", health)
	r.Get("/api/health", health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 認証ルート
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(bearer).Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: BearerAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(bearer)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// カテゴリ
		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Post("/", categoryHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", categoryHandler.Get)
				r.Put("/", categoryHandler.Update)
				r.Delete("/", categoryHandler.Delete)
			})
		})

		// 取引
		r.Route("/api/transactions", func(r chi.Router) {
			r.Get("/", transactionHandler.List)
			r.Post("/", transactionHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", transactionHandler.Get)
				r.Put("/", transactionHandler.Update)
				r.Delete("/", transactionHandler.Delete)
			})
		})

		// 予算
		r.Route("/api/budgets", func(r chi.Router) {
			r.Get("/", budgetHandler.List)
			r.Post("/", budgetHandler.Create)
			r.Get("/summary", budgetHandler.Summary)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", budgetHandler.Get)
				r.Put("/", budgetHandler.Update)
				r.Delete("/", budgetHandler.Delete)
			})
		})

		// ダッシュボード
		r.Route("/api/dashboard", func(r chi.Router) {
			r.Get("/summary", dashboardHandler.Summary)
			r.Get("/monthly", dashboardHandler.Monthly)
			r.Get("/by-category", dashboardHandler.ByCategory)
			r.Get("/recent", dashboardHandler.Recent)
			r.Get("/overview", dashboardHandler.Overview)
		})
	})

	return r
}
