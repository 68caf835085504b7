// Package app はプロセスの起動、依存関係のワイヤリング、シャットダウンを担う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/fintracker/internal/auth"
	"github.com/hitoshi/fintracker/internal/budget"
	"github.com/hitoshi/fintracker/internal/cache"
	"github.com/hitoshi/fintracker/internal/category"
	"github.com/hitoshi/fintracker/internal/config"
	"github.com/hitoshi/fintracker/internal/dashboard"
	"github.com/hitoshi/fintracker/internal/database"
	"github.com/hitoshi/fintracker/internal/handler"
	"github.com/hitoshi/fintracker/internal/logger"
	"github.com/hitoshi/fintracker/internal/metrics"
	"github.com/hitoshi/fintracker/internal/middleware"
	"github.com/hitoshi/fintracker/internal/repository"
	"github.com/hitoshi/fintracker/internal/security"
	"github.com/hitoshi/fintracker/internal/transaction"
	"github.com/hitoshi/fintracker/internal/user"
)

const (
	// shutdownTimeout はグレースフルシャットダウンの猶予時間。
	shutdownTimeout = 30 * time.Second
	// memoryCacheCleanupInterval はインプロセスキャッシュの期限切れ掃除の間隔。
	memoryCacheCleanupInterval = time.Minute
)

// Init はアプリケーションの初期化を行う。
// カレントディレクトリの.envを読み込んだうえで環境変数からConfigを読み込み、
// JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, false)

	// 2. .envの読み込み（存在しない場合は何もしない。既存の環境変数は上書きしない）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 環境に応じたログレベルで再設定
	logger.SetupDefault(w, cfg.IsDevelopment())

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	inv, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if inv.Command == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(inv.Command)),
		slog.String("version", cfg.AppVersion),
		slog.String("env", cfg.AppEnv),
		slog.String("port", cfg.ServerPort),
	)

	switch inv.Command {
	case CommandMigrate:
		return runMigrate(w, cfg, inv)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続とキャッシュを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
// 終了時はHTTPサーバー、レートリミッター、キャッシュ、DBの順に解放する。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. 派生ビューキャッシュ
	store, err := openCacheStore(ctx, cfg)
	if err != nil {
		return err
	}
	viewCache := cache.NewViewCache(store, cfg.CacheTTL, collector, slog.Default())
	defer viewCache.Close()

	// 4. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	transactionRepo := repository.NewPostgresTransactionRepo(db)
	budgetRepo := repository.NewPostgresBudgetRepo(db)
	ledgerRepo := repository.NewPostgresLedgerRepo(db)

	// 5. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := auth.NewService(userRepo, tokens)
	userService := user.NewService(userRepo, sanitizer)
	categoryService := category.NewService(categoryRepo, viewCache, sanitizer)
	transactionService := transaction.NewService(transactionRepo, categoryRepo, viewCache, sanitizer)
	budgetService := budget.NewService(budgetRepo, categoryRepo, viewCache)
	dashboardService := dashboard.NewService(ledgerRepo, viewCache)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(registry),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Authenticator:     authService,
		Version:           cfg.AppVersion,

		AuthService: handler.NewAuthServiceAdapter(userService, authService),

		CategoryService:    categoryService,
		TransactionService: transactionService,
		BudgetService:      budgetService,
		DashboardService:   dashboardService,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// openCacheStore はREDIS_URLが設定されていればRedis、なければインプロセスのLRUストアを返す。
// Redisに到達できなくても起動は継続する（キャッシュ障害はリクエストを失敗させない）。
func openCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.RedisURL == "" {
		store := cache.NewMemoryStore(cfg.CacheMaxEntries)
		store.StartCleanup(memoryCacheCleanupInterval)
		slog.Info("using in-process cache", slog.Int("max_entries", cfg.CacheMaxEntries))
		return store, nil
	}

	store, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure redis: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		slog.Warn("redis is unreachable, continuing without cache hits",
			slog.String("error", err.Error()),
		)
	} else {
		slog.Info("redis connection established")
	}
	return store, nil
}

// runMigrate はmigrateサブコマンドの操作を実行する。
// versionは結果をwに1行で書き出す。
func runMigrate(w io.Writer, cfg *config.Config, inv Invocation) error {
	slog.Info("running database migrations",
		slog.String("action", string(inv.Migrate)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch inv.Migrate {
	case MigrateDown:
		if err := database.RollbackMigrations(cfg.DatabaseURL, inv.Steps); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		slog.Info("database migrations rolled back", slog.Int("steps", inv.Steps))
	case MigrateVersion:
		version, dirty, err := database.SchemaVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		fmt.Fprintf(w, "schema version %d (dirty=%t)\n", version, dirty)
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations completed successfully")
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// URLとして解釈できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
