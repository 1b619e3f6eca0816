// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/blogsmith/internal/ai"
	"github.com/hitoshi/blogsmith/internal/auth"
	"github.com/hitoshi/blogsmith/internal/blog"
	"github.com/hitoshi/blogsmith/internal/config"
	"github.com/hitoshi/blogsmith/internal/database"
	"github.com/hitoshi/blogsmith/internal/handler"
	"github.com/hitoshi/blogsmith/internal/logger"
	"github.com/hitoshi/blogsmith/internal/metrics"
	"github.com/hitoshi/blogsmith/internal/middleware"
	"github.com/hitoshi/blogsmith/internal/repository"
	"github.com/hitoshi/blogsmith/internal/security"
	"github.com/hitoshi/blogsmith/internal/token"
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
		slog.String("base_url", cfg.BaseURL),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(disconnectCtx); err != nil {
			slog.Error("failed to disconnect from database", slog.String("error", err.Error()))
		}
	}()

	slog.Info("database connection established",
		slog.String("database", cfg.MongoDatabase),
	)

	// 2. リポジトリの初期化
	userRepo := repository.NewMongoUserRepo(db)
	blogRepo := repository.NewMongoBlogRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	tokenService := token.NewService(cfg.JWTSecret, cfg.TokenExpiry)

	var oauthProvider auth.OAuthProvider
	if cfg.GoogleOAuthEnabled() {
		oauthProvider = auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL(),
		})
	} else {
		slog.Warn("google oauth is not configured; social login is disabled")
	}

	authService := auth.NewService(userRepo, tokenService, oauthProvider, collector)

	// ブートストラップ管理者のシーディング
	// パスワードは必須の環境変数から供給され、固定のデフォルト値は存在しない
	if err := authService.SeedAdmin(ctx, cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	var generator blog.Generator
	if cfg.GeminiAPIKey != "" {
		generator = ai.NewClient(
			&http.Client{Timeout: 60 * time.Second},
			slog.Default(),
			collector,
			ai.ClientConfig{
				APIKey: cfg.GeminiAPIKey,
				Model:  cfg.GeminiModel,
			},
		)
	} else {
		slog.Warn("gemini api key is not configured; blog generation is disabled")
	}

	sanitizer := security.NewContentSanitizer()
	blogService := blog.NewService(blogRepo, userRepo, sanitizer, generator)

	// 5. レート制限の初期化（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.GenerateRate = rate.Limit(float64(cfg.RateLimitGenerate) / 60.0)
	rateLimiterCfg.GenerateBurst = cfg.RateLimitGenerate
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     tokenService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		StatusRecorder:    collector,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			FrontendOrigin: cfg.CORSAllowedOrigin,
			CookieSecure:   strings.HasPrefix(cfg.BaseURL, "https://"),
		},

		BlogService:  blogService,
		AdminService: blogService,

		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // AI記事生成は応答に時間がかかる
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
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
