package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogsmith/internal/blog"
	"github.com/hitoshi/blogsmith/internal/middleware"
	"github.com/hitoshi/blogsmith/internal/model"
)

// BlogServiceInterface はブログハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	// List は呼び出し元に可視な記事一覧を返す。
	List(ctx context.Context, caller *model.Identity) ([]*model.Blog, error)
	// Get は指定IDの記事を取得する。
	Get(ctx context.Context, id string) (*model.Blog, error)
	// Create は記事を作成する。
	Create(ctx context.Context, caller *model.Identity, input blog.CreateInput) (*model.Blog, error)
	// Generate は生成AIで記事を作成する。
	Generate(ctx context.Context, caller *model.Identity, input blog.GenerateInput) (*model.Blog, error)
	// Update は記事を更新する。
	Update(ctx context.Context, caller *model.Identity, id string, input blog.UpdateInput) (*model.Blog, error)
	// Delete は記事を削除する。
	Delete(ctx context.Context, caller *model.Identity, id string) error
}

// BlogHandler はブログ記事のHTTPハンドラー。
type BlogHandler struct {
	service BlogServiceInterface
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service BlogServiceInterface) *BlogHandler {
	return &BlogHandler{service: service}
}

// createBlogRequest は記事作成リクエストのボディ。
type createBlogRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Excerpt  string `json:"excerpt"`
	Tone     string `json:"tone"`
	Language string `json:"language"`
}

// updateBlogRequest は記事更新リクエストのボディ。
type updateBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
}

// generateBlogRequest はAI記事生成リクエストのボディ。
type generateBlogRequest struct {
	Topic    string `json:"topic"`
	Tone     string `json:"tone"`
	Language string `json:"language"`
}

// blogResponse は記事のAPIレスポンス。
type blogResponse struct {
	ID        string     `json:"id"`
	OwnerID   *string    `json:"ownerId"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Excerpt   string     `json:"excerpt"`
	Tone      string     `json:"tone,omitempty"`
	Language  string     `json:"language,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// toBlogResponse はmodel.BlogをAPIレスポンスに変換する。
func toBlogResponse(b *model.Blog) blogResponse {
	return blogResponse{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Title:     b.Title,
		Content:   b.Content,
		Excerpt:   b.Excerpt,
		Tone:      b.Tone,
		Language:  b.Language,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// List は呼び出し元に可視な記事一覧を返す。
// 認証は任意。匿名の場合は公開記事のみが返る。
// GET /api/blogs
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromContext(r.Context())

	blogs, err := h.service.List(r.Context(), caller)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]blogResponse, len(blogs))
	for i, b := range blogs {
		results[i] = toBlogResponse(b)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// Get は記事詳細を取得する。所有チェックは行わない。
// GET /api/blogs/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	blogID := chi.URLParam(r, "id")

	b, err := h.service.Get(r.Context(), blogID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBlogResponse(b))
}

// Create は記事作成を処理する。認証は任意。
// POST /api/blogs
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromContext(r.Context())

	var req createBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	b, err := h.service.Create(r.Context(), caller, blog.CreateInput{
		Title:    req.Title,
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		Tone:     req.Tone,
		Language: req.Language,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toBlogResponse(b))
}

// Generate はAIによる記事生成を処理する。認証は任意。
// POST /api/blogs/generate
func (h *BlogHandler) Generate(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromContext(r.Context())

	var req generateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	b, err := h.service.Generate(r.Context(), caller, blog.GenerateInput{
		Topic:    req.Topic,
		Tone:     req.Tone,
		Language: req.Language,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toBlogResponse(b))
}

// Update は記事更新を処理する。認証必須、所有者または管理者のみ。
// PUT /api/blogs/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	blogID := chi.URLParam(r, "id")

	var req updateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	b, err := h.service.Update(r.Context(), caller, blogID, blog.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Excerpt: req.Excerpt,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBlogResponse(b))
}

// Delete は記事削除を処理する。認証必須、所有者または管理者のみ。
// DELETE /api/blogs/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	blogID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), caller, blogID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIErrorはコードに応じたステータスで返し、それ以外は詳細をログにのみ
// 記録して500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, middleware.StatusForAPIError(apiErr), apiErr)
		return
	}

	slog.Error("unexpected service error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
