package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/blogsmith/internal/auth"
	"github.com/hitoshi/blogsmith/internal/blog"
	"github.com/hitoshi/blogsmith/internal/middleware"
	"github.com/hitoshi/blogsmith/internal/model"
	"github.com/hitoshi/blogsmith/internal/repository"
	"github.com/hitoshi/blogsmith/internal/security"
	"github.com/hitoshi/blogsmith/internal/token"
)

// --- 統合テスト用のインメモリリポジトリ ---

type memUserRepo struct {
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.users[id], nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email != "" && u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByGoogleSub(_ context.Context, sub string) (*model.User, error) {
	for _, u := range r.users {
		if u.GoogleSub != "" && u.GoogleSub == sub {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) LinkGoogleSub(_ context.Context, userID, sub, avatarURL string) error {
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %s", userID)
	}
	u.GoogleSub = sub
	u.AvatarURL = avatarURL
	return nil
}

func (r *memUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

var _ repository.UserRepository = (*memUserRepo)(nil)

type memBlogRepo struct {
	blogs map[string]*model.Blog
}

func newMemBlogRepo() *memBlogRepo {
	return &memBlogRepo{blogs: make(map[string]*model.Blog)}
}

func (r *memBlogRepo) FindByID(_ context.Context, id string) (*model.Blog, error) {
	return r.blogs[id], nil
}

func (r *memBlogRepo) FindByOwner(_ context.Context, ownerID string) ([]*model.Blog, error) {
	var results []*model.Blog
	for _, b := range r.blogs {
		if b.OwnerID != nil && *b.OwnerID == ownerID {
			results = append(results, b)
		}
	}
	return results, nil
}

func (r *memBlogRepo) FindAnonymous(_ context.Context, limit int64) ([]*model.Blog, error) {
	var results []*model.Blog
	for _, b := range r.blogs {
		if b.OwnerID == nil {
			results = append(results, b)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if int64(len(results)) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *memBlogRepo) Create(_ context.Context, b *model.Blog) error {
	r.blogs[b.ID] = b
	return nil
}

func (r *memBlogRepo) Update(_ context.Context, b *model.Blog) error {
	stored, ok := r.blogs[b.ID]
	if !ok {
		return fmt.Errorf("blog not found: %s", b.ID)
	}
	stored.Title = b.Title
	stored.Content = b.Content
	stored.Excerpt = b.Excerpt
	stored.UpdatedAt = b.UpdatedAt
	return nil
}

func (r *memBlogRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	if _, ok := r.blogs[id]; !ok {
		return false, nil
	}
	delete(r.blogs, id)
	return true, nil
}

func (r *memBlogRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.blogs)), nil
}

var _ repository.BlogRepository = (*memBlogRepo)(nil)

// --- 統合テスト用ルーター構築ヘルパー ---

// integrationEnv は実サービスをインメモリリポジトリの上に組み立てた環境。
type integrationEnv struct {
	router      http.Handler
	authService *auth.Service
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	userRepo := newMemUserRepo()
	blogRepo := newMemBlogRepo()

	tokenService := token.NewService("integration-test-secret", 24*time.Hour)
	authService := auth.NewService(userRepo, tokenService, nil, nil)
	blogService := blog.NewService(blogRepo, userRepo, security.NewContentSanitizer(), nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(&RouterDeps{
		Logger:            logger,
		TokenVerifier:     tokenService,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		AuthService:       authService,
		AuthConfig:        AuthHandlerConfig{FrontendOrigin: "http://localhost:3000"},
		BlogService:       blogService,
		AdminService:      blogService,
	})

	return &integrationEnv{
		router:      router,
		authService: authService,
	}
}

// doJSON はJSONボディ付きリクエストを実行する。tokenが空でなければBearerヘッダーを付与する。
func (env *integrationEnv) doJSON(method, path, bearer, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:12345"
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin はユーザーを登録してログインし、セッショントークンを返す。
func (env *integrationEnv) registerAndLogin(t *testing.T, username, password string) string {
	t.Helper()

	creds := fmt.Sprintf(`{"username": %q, "password": %q}`, username, password)
	if w := env.doJSON(http.MethodPost, "/api/auth/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", username, w.Code, w.Body.String())
	}

	w := env.doJSON(http.MethodPost, "/api/auth/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", username, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login response should contain a token")
	}
	return resp.Token
}

// createBlog は記事を作成してそのIDを返す。
func (env *integrationEnv) createBlog(t *testing.T, bearer, title string) string {
	t.Helper()

	body := fmt.Sprintf(`{"title": %q, "content": "<p>本文です。</p>"}`, title)
	w := env.doJSON(http.MethodPost, "/api/blogs", bearer, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create blog: status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp blogResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	return resp.ID
}

// --- エンドツーエンド統合テスト ---

// TestIntegration_RegisterLoginCreateList は登録からログイン・記事作成・一覧までの
// 基本フローを検証する。一覧は呼び出し元自身の記事のみにスコープされる。
func TestIntegration_RegisterLoginCreateList(t *testing.T) {
	env := newIntegrationEnv(t)

	aliceToken := env.registerAndLogin(t, "alice", "alice-password")
	bobToken := env.registerAndLogin(t, "bob", "bob-password")

	env.createBlog(t, aliceToken, "aliceの記事1")
	env.createBlog(t, aliceToken, "aliceの記事2")
	env.createBlog(t, bobToken, "bobの記事")

	w := env.doJSON(http.MethodGet, "/api/blogs", aliceToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w.Code)
	}

	var blogs []blogResponse
	if err := json.NewDecoder(w.Body).Decode(&blogs); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(blogs) != 2 {
		t.Fatalf("alice should see 2 blogs, got %d", len(blogs))
	}
	for _, b := range blogs {
		if strings.HasPrefix(b.Title, "bobの") {
			t.Errorf("alice's list should not contain bob's blog: %+v", b)
		}
	}
}

// TestIntegration_OwnershipEnforcement は所有者以外による変更の拒否と
// 管理者による変更の許可を検証する。
func TestIntegration_OwnershipEnforcement(t *testing.T) {
	env := newIntegrationEnv(t)

	aliceToken := env.registerAndLogin(t, "alice", "alice-password")
	bobToken := env.registerAndLogin(t, "bob", "bob-password")
	blogID := env.createBlog(t, aliceToken, "aliceの記事")

	// bobはaliceの記事を更新できない
	w := env.doJSON(http.MethodPut, "/api/blogs/"+blogID, bobToken, `{"title": "乗っ取り"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("bob update: status = %d, want 403", w.Code)
	}

	// bobはaliceの記事を削除できない
	w = env.doJSON(http.MethodDelete, "/api/blogs/"+blogID, bobToken, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("bob delete: status = %d, want 403", w.Code)
	}

	// 所有者自身は更新できる
	w = env.doJSON(http.MethodPut, "/api/blogs/"+blogID, aliceToken, `{"title": "改訂版"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("alice update: status = %d, body = %s", w.Code, w.Body.String())
	}
	var updated blogResponse
	json.NewDecoder(w.Body).Decode(&updated)
	if updated.Title != "改訂版" {
		t.Errorf("title = %q, want 改訂版", updated.Title)
	}

	// 管理者は他人の記事を削除できる
	if err := env.authService.SeedAdmin(context.Background(), "admin-bootstrap-password"); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
	w = env.doJSON(http.MethodPost, "/api/auth/login", "",
		`{"username": "admin", "password": "admin-bootstrap-password"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("admin login: status = %d", w.Code)
	}
	var adminLogin struct {
		Token string `json:"token"`
	}
	json.NewDecoder(w.Body).Decode(&adminLogin)

	w = env.doJSON(http.MethodDelete, "/api/blogs/"+blogID, adminLogin.Token, "")
	if w.Code != http.StatusOK {
		t.Errorf("admin delete: status = %d, want 200", w.Code)
	}

	// 削除後の取得は404
	w = env.doJSON(http.MethodGet, "/api/blogs/"+blogID, "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
}

// TestIntegration_AnonymousVisibility は匿名の呼び出し元の可視性ポリシーを検証する。
// 匿名の一覧には所有者のいない記事のみが現れ、個別取得は所有記事でも可能。
func TestIntegration_AnonymousVisibility(t *testing.T) {
	env := newIntegrationEnv(t)

	aliceToken := env.registerAndLogin(t, "alice", "alice-password")
	ownedID := env.createBlog(t, aliceToken, "aliceの記事")

	// 匿名でも記事を作成できる（所有者なし）
	anonID := env.createBlog(t, "", "匿名の記事")

	// 匿名の一覧には所有者のいない記事のみ
	w := env.doJSON(http.MethodGet, "/api/blogs", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous list: status = %d", w.Code)
	}
	var blogs []blogResponse
	json.NewDecoder(w.Body).Decode(&blogs)
	if len(blogs) != 1 {
		t.Fatalf("anonymous list should contain 1 blog, got %d", len(blogs))
	}
	if blogs[0].ID != anonID {
		t.Errorf("anonymous list should contain the ownerless blog, got %s", blogs[0].ID)
	}
	if blogs[0].OwnerID != nil {
		t.Errorf("ownerId should be null, got %v", *blogs[0].OwnerID)
	}

	// 個別取得に所有チェックはない
	w = env.doJSON(http.MethodGet, "/api/blogs/"+ownedID, "", "")
	if w.Code != http.StatusOK {
		t.Errorf("anonymous get of owned blog: status = %d, want 200", w.Code)
	}
}

// TestIntegration_ContentIsSanitized は保存経路でHTMLサニタイズが働くことを検証する。
func TestIntegration_ContentIsSanitized(t *testing.T) {
	env := newIntegrationEnv(t)

	aliceToken := env.registerAndLogin(t, "alice", "alice-password")

	body := `{"title": "XSSテスト", "content": "<p>安全な本文</p><script>alert('xss')</script>"}`
	w := env.doJSON(http.MethodPost, "/api/blogs", aliceToken, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}

	var created blogResponse
	json.NewDecoder(w.Body).Decode(&created)
	if strings.Contains(created.Content, "<script>") {
		t.Errorf("content should be sanitized, got %q", created.Content)
	}
	if !strings.Contains(created.Content, "<p>安全な本文</p>") {
		t.Errorf("safe markup should survive, got %q", created.Content)
	}
}

// TestIntegration_ProtectedEndpoints は認証境界を検証する。
// 変更系はトークン必須、閲覧系は不正トークンでも匿名に降格して通す。
func TestIntegration_ProtectedEndpoints(t *testing.T) {
	env := newIntegrationEnv(t)

	// トークンなしの更新・削除は401
	if w := env.doJSON(http.MethodPut, "/api/blogs/any-id", "", `{"title": "x"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("PUT without token: status = %d, want 401", w.Code)
	}
	if w := env.doJSON(http.MethodDelete, "/api/blogs/any-id", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("DELETE without token: status = %d, want 401", w.Code)
	}

	// 不正トークンの変更系も401
	if w := env.doJSON(http.MethodDelete, "/api/blogs/any-id", "garbage-token", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("DELETE with invalid token: status = %d, want 401", w.Code)
	}

	// 不正トークンの一覧は匿名に降格して200
	if w := env.doJSON(http.MethodGet, "/api/blogs", "garbage-token", ""); w.Code != http.StatusOK {
		t.Errorf("GET with invalid token: status = %d, want 200 (anonymous downgrade)", w.Code)
	}
}

// TestIntegration_AdminStats は管理者統計の集計とロール制御を検証する。
func TestIntegration_AdminStats(t *testing.T) {
	env := newIntegrationEnv(t)

	aliceToken := env.registerAndLogin(t, "alice", "alice-password")
	env.createBlog(t, aliceToken, "記事1")
	env.createBlog(t, aliceToken, "記事2")

	if err := env.authService.SeedAdmin(context.Background(), "admin-bootstrap-password"); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
	w := env.doJSON(http.MethodPost, "/api/auth/login", "",
		`{"username": "admin", "password": "admin-bootstrap-password"}`)
	var adminLogin struct {
		Token string `json:"token"`
	}
	json.NewDecoder(w.Body).Decode(&adminLogin)

	// 管理者は統計を取得できる（alice + admin = 2ユーザー、2記事）
	w = env.doJSON(http.MethodGet, "/api/admin/stats", adminLogin.Token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("admin stats: status = %d, body = %s", w.Code, w.Body.String())
	}
	var stats struct {
		UserCount int64 `json:"userCount"`
		BlogCount int64 `json:"blogCount"`
	}
	json.NewDecoder(w.Body).Decode(&stats)
	if stats.UserCount != 2 || stats.BlogCount != 2 {
		t.Errorf("stats = %+v, want userCount=2 blogCount=2", stats)
	}

	// 一般ユーザーは403
	if w := env.doJSON(http.MethodGet, "/api/admin/stats", aliceToken, ""); w.Code != http.StatusForbidden {
		t.Errorf("user stats: status = %d, want 403", w.Code)
	}

	// 匿名は401
	if w := env.doJSON(http.MethodGet, "/api/admin/stats", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous stats: status = %d, want 401", w.Code)
	}
}

// TestIntegration_ReservedAdminRegistration は予約ユーザー名の登録拒否を検証する。
func TestIntegration_ReservedAdminRegistration(t *testing.T) {
	env := newIntegrationEnv(t)

	w := env.doJSON(http.MethodPost, "/api/auth/register", "",
		`{"username": "admin", "password": "sneaky-password"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("register admin: status = %d, want 400", w.Code)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["code"] != model.ErrCodeReservedUsername {
		t.Errorf("code = %q, want RESERVED_USERNAME", body["code"])
	}
}

// TestIntegration_HealthCheck はヘルスチェックエンドポイントを検証する。
func TestIntegration_HealthCheck(t *testing.T) {
	env := newIntegrationEnv(t)

	w := env.doJSON(http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health: status = %d", w.Code)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}
