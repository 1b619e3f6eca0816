// Package model はドメインモデルを定義する。
package model

// Identity はリクエストの呼び出し元の認証済みアイデンティティを表す。
// セッショントークンの検証結果から導出され、ハンドラーとサービスに
// 明示的な値として渡される。nilの*Identityは匿名の呼び出し元を表す。
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// IsAdmin は呼び出し元が管理者ロールを持つかどうかを返す。
// 匿名（nil）の場合はfalseを返す。
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
