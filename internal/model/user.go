// Package model はドメインモデルを定義する。
package model

import "time"

// ユーザーのロール。
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ReservedAdminUsername は自己登録が禁止されている予約ユーザー名。
// ブートストラップシーディングでのみ作成される。
const ReservedAdminUsername = "admin"

// User はサービス利用ユーザーを表す。
// PasswordHashが空のユーザーはソーシャルログイン専用アカウント。
// GoogleSubはGoogle OAuthのsubject ID。アカウントリンク後は両方が共存しうる。
type User struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	Role         string    `bson:"role"`
	Email        string    `bson:"email,omitempty"`
	GoogleSub    string    `bson:"google_sub,omitempty"`
	AvatarURL    string    `bson:"avatar_url,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

// IsAdmin はユーザーが管理者ロールを持つかどうかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser はAPIレスポンスに含めるユーザーの公開プロジェクション。
// パスワードハッシュは決して含めない。
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Public はUserから公開プロジェクションを生成する。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}
