// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/blogsmith/internal/model"
	"github.com/hitoshi/blogsmith/internal/token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みアイデンティティを格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenVerifier はセッショントークンの検証に必要なインターフェース。
// token.Serviceの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// NewRequireAuthMiddleware はAuthorization: Bearerヘッダーのトークンを検証し、
// 認証済みアイデンティティをリクエストコンテキストに注入するミドルウェアを返す。
// トークンが無い、または検証に失敗したリクエストには401 Unauthorizedを返す。
// 変更系エンドポイント（更新・削除・管理者統計）で使用する。
func NewRequireAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := resolveIdentity(r, verifier)
			if identity == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalAuthMiddleware はトークンがあれば検証してアイデンティティを注入し、
// 無ければ匿名のままリクエストを通すミドルウェアを返す。
//
// 検証に失敗したトークン（期限切れ・改ざん）も匿名に降格して通す。これは
// 明示的なポリシーである: 一覧・作成エンドポイントは匿名利用を許可しており、
// 期限切れトークンを持つクライアントを拒否するよりも匿名として扱う方が
// 閲覧体験を損なわない。拒否が必要な操作はRequireAuth側に置くこと。
func NewOptionalAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if identity := resolveIdentity(r, verifier); identity != nil {
				ctx = ContextWithIdentity(ctx, identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireAdminMiddleware は管理者ロールを要求するミドルウェアを返す。
// RequireAuthの後に配置すること。非管理者には403 Forbiddenを返す。
func NewRequireAdminMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if !identity.IsAdmin() {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveIdentity はAuthorizationヘッダーからアイデンティティを導出する。
// トークンが無い、または検証に失敗した場合はnil（匿名）を返す。
func resolveIdentity(r *http.Request, verifier TokenVerifier) *model.Identity {
	header := r.Header.Get("Authorization")
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil
	}

	claims, err := verifier.Verify(tokenString)
	if err != nil {
		return nil
	}

	return &model.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}
}

// IdentityFromContext はリクエストコンテキストから認証済みアイデンティティを取得する。
// 匿名リクエストの場合はfalseを返す。
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// ContextWithIdentity はコンテキストにアイデンティティを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
