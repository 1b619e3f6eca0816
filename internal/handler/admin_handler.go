package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/blogsmith/internal/blog"
	"github.com/hitoshi/blogsmith/internal/middleware"
	"github.com/hitoshi/blogsmith/internal/model"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
// blog.Serviceの部分集合として定義する。
type AdminServiceInterface interface {
	GetStats(ctx context.Context, caller *model.Identity) (*blog.Stats, error)
}

// AdminHandler は管理者向けのHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// statsResponse は管理者統計のレスポンス。
type statsResponse struct {
	UserCount int64 `json:"userCount"`
	BlogCount int64 `json:"blogCount"`
}

// Stats は管理者向けの集計情報を返す。管理者ロールのみ。
// GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	stats, err := h.service.GetStats(r.Context(), caller)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		UserCount: stats.UserCount,
		BlogCount: stats.BlogCount,
	})
}
