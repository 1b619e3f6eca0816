// Package auth は認証・認可のビジネスロジックを提供する。
// ローカル認証（ユーザー名+パスワード）、Google OAuthログイン、
// ブートストラップ管理者のシーディングを扱う。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blogsmith/internal/model"
	"github.com/hitoshi/blogsmith/internal/repository"
	"github.com/hitoshi/blogsmith/internal/token"
)

// bcryptCost はパスワードハッシュのコストファクター。
const bcryptCost = 10

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	Sub       string // プロバイダー側のsubject ID
	Email     string
	Name      string
	AvatarURL string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// LoginRecorder はログイン成功のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type LoginRecorder interface {
	RecordLogin(method string)
}

// Service は認証に関するビジネスロジックを提供する。
// oauthはGoogleログインが構成されていない場合nil。
type Service struct {
	users   repository.UserRepository
	tokens  *token.Service
	oauth   OAuthProvider
	metrics LoginRecorder
}

// NewService はServiceを生成する。
// metricsはnilを許容する（テスト等で記録を省略する場合）。
func NewService(
	users repository.UserRepository,
	tokens *token.Service,
	oauth OAuthProvider,
	metrics LoginRecorder,
) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		oauth:   oauth,
		metrics: metrics,
	}
}

// Register はローカル認証ユーザーを登録する。
// ユーザー名 admin（大文字小文字を区別しない）は予約されており登録できない。
// 重複チェックは保存時の表記どおり大文字小文字を区別する。
// 戻り値のUserにパスワードハッシュは含まれるが、ハンドラーは公開プロジェクション
// のみをレスポンスに載せること。
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, model.NewInvalidRequestError("ユーザー名とパスワードは必須です")
	}

	if strings.EqualFold(username, model.ReservedAdminUsername) {
		return nil, model.NewReservedUsernameError()
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateUsernameError(username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login はローカル認証を行い、セッショントークンを発行する。
// ユーザー不在とパスワード不一致は同じエラーで区別しない。
// パスワードを持たないソーシャルログイン専用アカウントに対してのみ、
// ソーシャルログインを案内する別エラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	if username == "" || password == "" {
		return "", nil, model.NewInvalidCredentialsError()
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", nil, model.NewInvalidCredentialsError()
	}

	if user.PasswordHash == "" {
		return "", nil, model.NewSocialLoginOnlyError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, model.NewInvalidCredentialsError()
	}

	tok, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLogin("password")
	}
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return tok, user, nil
}

// GetLoginURL はOAuth認証URLを生成する。
// Googleログインが構成されていない場合はエラーを返す。
func (s *Service) GetLoginURL(state string) (string, error) {
	if s.oauth == nil {
		return "", model.NewUpstreamFailureError("google oauth is not configured")
	}
	return s.oauth.GetLoginURL(state), nil
}

// HandleCallback はOAuthコールバックを処理し、セッショントークンを発行する。
//
// アカウント解決は以下の順で行い、最初に一致したものを採用する:
//  1. Google subject IDでユーザーを検索する。
//  2. プロバイダーがメールアドレスを返した場合、メールアドレスで検索し、
//     見つかればそのアカウントにsubject IDをリンクする（重複アカウントを作らない）。
//  3. どちらも見つからなければ新規ユーザーを作成する。ユーザー名は表示名、
//     なければメールアドレスのローカル部を使用する。
func (s *Service) HandleCallback(ctx context.Context, code string) (string, *model.User, error) {
	if s.oauth == nil {
		return "", nil, model.NewUpstreamFailureError("google oauth is not configured")
	}

	info, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return "", nil, model.NewUpstreamFailureError("google oauth")
	}

	user, err := s.resolveOAuthUser(ctx, info)
	if err != nil {
		return "", nil, err
	}

	tok, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLogin("google")
	}

	return tok, user, nil
}

// resolveOAuthUser はOAuthユーザー情報から既存アカウントを特定または新規作成する。
func (s *Service) resolveOAuthUser(ctx context.Context, info *OAuthUserInfo) (*model.User, error) {
	// 1. subject IDで検索
	user, err := s.users.FindByGoogleSub(ctx, info.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by google sub: %w", err)
	}
	if user != nil {
		slog.Info("oauth user logged in", slog.String("user_id", user.ID))
		return user, nil
	}

	// 2. メールアドレスで検索し、見つかれば既存アカウントにリンク
	if info.Email != "" {
		user, err = s.users.FindByEmail(ctx, info.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to find user by email: %w", err)
		}
		if user != nil {
			if err := s.users.LinkGoogleSub(ctx, user.ID, info.Sub, info.AvatarURL); err != nil {
				return nil, fmt.Errorf("failed to link google account: %w", err)
			}
			user.GoogleSub = info.Sub
			if info.AvatarURL != "" {
				user.AvatarURL = info.AvatarURL
			}
			slog.Info("google account linked to existing user",
				slog.String("user_id", user.ID),
			)
			return user, nil
		}
	}

	// 3. 新規ユーザーを作成
	user = &model.User{
		ID:        uuid.New().String(),
		Username:  s.oauthUsername(ctx, info),
		Role:      model.RoleUser,
		Email:     info.Email,
		GoogleSub: info.Sub,
		AvatarURL: info.AvatarURL,
		CreatedAt: time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}

	slog.Info("new oauth user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// oauthUsername は新規OAuthユーザーのユーザー名を決定する。
// 表示名、なければメールアドレスのローカル部を使用する。
// 予約名と衝突する場合、および既存ユーザー名と衝突する場合はサフィックスを付与する。
func (s *Service) oauthUsername(ctx context.Context, info *OAuthUserInfo) string {
	name := info.Name
	if name == "" && info.Email != "" {
		name, _, _ = strings.Cut(info.Email, "@")
	}
	if name == "" || strings.EqualFold(name, model.ReservedAdminUsername) {
		name = "user"
	}

	existing, err := s.users.FindByUsername(ctx, name)
	if err == nil && existing == nil {
		return name
	}
	return name + "-" + uuid.New().String()[:8]
}

// SeedAdmin は管理者アカウントのブートストラップシーディングを行う。
// ユーザー名 admin が存在しない場合のみ、設定から供給されたパスワードで作成する。
// パスワードは必須の環境変数であり、固定のデフォルト値は存在しない。
func (s *Service) SeedAdmin(ctx context.Context, password string) error {
	existing, err := s.users.FindByUsername(ctx, model.ReservedAdminUsername)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		ID:           uuid.New().String(),
		Username:     model.ReservedAdminUsername,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	slog.Info("bootstrap admin account created", slog.String("user_id", admin.ID))
	return nil
}
