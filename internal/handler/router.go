package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogsmith/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusRecorder    middleware.StatusRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ブログ
	BlogService BlogServiceInterface

	// 管理者
	AdminService AdminServiceInterface

	// Prometheusスクレイプ用ハンドラー
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → SecurityHeaders → Logging → (ルートごとの認証・レート制限)
//
// 認証ミドルウェアはルートグループごとに使い分ける:
//   - 一覧・取得・作成・生成: OptionalAuth（匿名利用を許可）
//   - 更新・削除: RequireAuth
//   - 管理者統計: RequireAuth + RequireAdmin
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	blogHandler := NewBlogHandler(deps.BlogService)
	adminHandler := NewAdminHandler(deps.AdminService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Prometheusメトリクス
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// ローカル認証とOAuth URL発行
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/google/url", authHandler.GoogleURL)
	})

	// OAuthコールバック（ポップアップウィンドウのブラウザ遷移先）
	r.Get("/auth/google/callback", authHandler.GoogleCallback)

	// --- ブログAPI ---
	r.Route("/api/blogs", func(r chi.Router) {
		// 閲覧・作成は匿名利用を許可する
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewOptionalAuthMiddleware(deps.TokenVerifier))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/", blogHandler.List)
			r.Post("/", blogHandler.Create)
			r.Get("/{id}", blogHandler.Get)

			// AI記事生成（生成専用レート制限を追加）
			r.With(deps.RateLimiter.GenerateMiddleware()).Post("/generate", blogHandler.Generate)
		})

		// 変更系は認証必須
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireAuthMiddleware(deps.TokenVerifier))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Put("/{id}", blogHandler.Update)
			r.Delete("/{id}", blogHandler.Delete)
		})
	})

	// --- 管理者API ---
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.NewRequireAuthMiddleware(deps.TokenVerifier))
		r.Use(middleware.NewRequireAdminMiddleware())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/stats", adminHandler.Stats)
	})

	return r
}
