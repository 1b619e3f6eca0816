// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, blog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeBlogNotFound      = "BLOG_NOT_FOUND"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeReservedUsername  = "RESERVED_USERNAME"
	ErrCodeDuplicateUsername = "DUPLICATE_USERNAME"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeSocialLoginOnly   = "SOCIAL_LOGIN_ONLY"
	ErrCodeUpstreamFailure   = "UPSTREAM_FAILURE"
)

// NewUnauthorizedError は認証が必要な操作への未認証アクセスエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
// 所有者でも管理者でもない呼び出し元による変更操作で使用する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "記事の所有者または管理者アカウントでログインしてください。",
	}
}

// NewBlogNotFoundError は記事未検出エラーを生成する。
func NewBlogNotFoundError(blogID string) *APIError {
	return &APIError{
		Code:     ErrCodeBlogNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", blogID),
		Category: "blog",
		Action:   "記事IDを確認してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewReservedUsernameError は予約ユーザー名での登録エラーを生成する。
func NewReservedUsernameError() *APIError {
	return &APIError{
		Code:     ErrCodeReservedUsername,
		Message:  "このユーザー名は予約されているため使用できません。",
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  fmt.Sprintf("ユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// ユーザーの存在有無を漏らさないよう、原因を区別しない汎用メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度お試しください。",
	}
}

// NewSocialLoginOnlyError はパスワードを持たないアカウントへの
// パスワードログイン試行エラーを生成する。
func NewSocialLoginOnlyError() *APIError {
	return &APIError{
		Code:     ErrCodeSocialLoginOnly,
		Message:  "このアカウントはソーシャルログイン専用です。",
		Category: "auth",
		Action:   "Googleログインをご利用ください。",
	}
}

// NewUpstreamFailureError は外部サービス呼び出し失敗エラーを生成する。
func NewUpstreamFailureError(service string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailure,
		Message:  fmt.Sprintf("外部サービスの呼び出しに失敗しました: %s", service),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
