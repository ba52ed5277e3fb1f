package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/laboussole/boussole-api/internal/citation"
	"github.com/laboussole/boussole-api/internal/config"
	"github.com/laboussole/boussole-api/internal/database"
	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/handler"
	"github.com/laboussole/boussole-api/internal/logger"
	"github.com/laboussole/boussole-api/internal/metrics"
	"github.com/laboussole/boussole-api/internal/middleware"
	"github.com/laboussole/boussole-api/internal/news"
	"github.com/laboussole/boussole-api/internal/personality"
	"github.com/laboussole/boussole-api/internal/repository"
	"github.com/laboussole/boussole-api/internal/security"
	"github.com/laboussole/boussole-api/internal/wiki"
	"github.com/laboussole/boussole-api/internal/worker/ingest"
	"github.com/laboussole/boussole-api/internal/worker/refresh"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	quoteRepo := repository.NewPostgresQuoteRepo(db)
	personalityRepo := repository.NewPostgresPersonalityRepo(db)
	tagRepo := repository.NewPostgresTagRepo(db)
	partyRepo := repository.NewPostgresPartyRepo(db)
	mandateTypeRepo := repository.NewPostgresMandateTypeRepo(db)
	territoryRepo := repository.NewPostgresTerritoryRepo(db)
	newsRepo := repository.NewPostgresNewsRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. フィルタ解決層の初期化
	resolver := filter.NewResolver(tagRepo, partyRepo, mandateTypeRepo, personalityRepo, slog.Default())
	resolver.SetMetrics(collector)
	intersector := filter.NewIntersector(personalityRepo)

	// 5. ドメインサービスの初期化
	citationService := citation.NewService(quoteRepo, resolver, slog.Default())
	personalityService := personality.NewService(
		personalityRepo, quoteRepo, resolver, intersector, slog.Default(),
	)
	newsService := news.NewListService(newsRepo, slog.Default())

	// 6. ルーターの構築
	// configのレート値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.SearchRate = rate.Limit(float64(cfg.RateLimitSearch) / 60.0)
	rateLimiterCfg.SearchBurst = cfg.RateLimitSearch

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),

		CitationService:    citationService,
		PersonalityService: personalityService,
		NewsService:        newsService,

		Tags:         tagRepo,
		Parties:      partyRepo,
		MandateTypes: mandateTypeRepo,
		Departments:  territoryRepo,

		HealthChecker:  db,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、ニュース取得スケジューラと定期ジョブ群を起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	sourceRepo := repository.NewPostgresPressSourceRepo(db)
	newsRepo := repository.NewPostgresNewsRepo(db)
	personalityRepo := repository.NewPostgresPersonalityRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 5. ニュースフェッチャーの初期化
	upsertSvc := news.NewUpsertService(newsRepo, sanitizer)
	detector := ingest.NewFeedDetector(ssrfGuard)
	fetcher := ingest.NewFetcher(
		sourceRepo, upsertSvc, detector, ssrfGuard,
		slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize, cfg.FetchSourceInterval,
	)
	fetcher.SetMetrics(collector)

	// 6. スケジューラの初期化
	scheduler := ingest.NewScheduler(
		sourceRepo, fetcher, slog.Default(), cfg.FetchMaxConcurrent,
	)

	// 7. 肖像画取得ジョブの初期化
	wikiClient := wiki.NewClient(
		&http.Client{Timeout: 10 * time.Second},
		slog.Default(),
	)
	portraitJob := wiki.NewPortraitJob(personalityRepo, wikiClient, slog.Default(), wiki.PortraitJobConfig{
		JobInterval:      cfg.PortraitJobInterval,
		APIInterval:      cfg.PortraitAPIInterval,
		MaxCallsPerCycle: cfg.PortraitMaxCallsPerCycle,
	})
	portraitJob.SetMetrics(collector)

	// 8. 集計カウント更新ジョブの初期化
	countsJob := refresh.NewCountsJob(db, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("fetch_interval", cfg.FetchInterval),
		slog.Int("max_concurrent", cfg.FetchMaxConcurrent),
	)

	// 肖像画取得ジョブをバックグラウンドで起動
	go portraitJob.Start(ctx)

	// 集計カウント更新ジョブをバックグラウンドで起動
	go countsJob.Start(ctx, cfg.CountsRefreshInterval)

	// ニュースフェッチスケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.FetchInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
