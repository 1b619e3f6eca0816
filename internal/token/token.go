// Package token はセッショントークンの発行と検証を提供する。
// HMAC-SHA256で署名したJWTにユーザーID・ユーザー名・ロールのクレームを載せる。
// トークンはサーバー側に保存しないステートレス方式で、有効期間は発行時に確定し、
// 再ログインなしの延長はできない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/blogsmith/internal/model"
)

// 検証失敗の分類。呼び出し元はこの2種類のみを区別する。
var (
	// ErrExpired は有効期限切れのトークンを表す。
	ErrExpired = errors.New("token expired")
	// ErrInvalid は署名不一致・改ざん・形式不正のトークンを表す。
	ErrInvalid = errors.New("token invalid")
)

// Claims はセッショントークンに埋め込むクレーム。
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service はトークンの発行・検証を行う。
// 内部状態を持たない暗号変換のみで、並行利用は安全。
type Service struct {
	secret []byte
	expiry time.Duration
}

// NewService はServiceを生成する。
// secretは設定から供給された署名シークレット。フォールバック値は存在しない。
func NewService(secret string, expiry time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Issue は指定ユーザーのセッショントークンを発行する。
func (s *Service) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、クレームを返す。
// 失敗はErrExpired（期限切れ）またはErrInvalid（それ以外すべて）に分類する。
// トークンが空かどうかの判定は呼び出し元の責務。
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}

	return claims, nil
}
