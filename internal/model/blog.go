// Package model はドメインモデルを定義する。
package model

import "time"

// Blog はブログ記事を表す。
// OwnerIDがnilの記事は匿名（公開）記事として扱う。
// OwnerIDは作成時に確定し、以降変更されない。
type Blog struct {
	ID        string     `bson:"_id"`
	OwnerID   *string    `bson:"owner_id"`
	Title     string     `bson:"title"`
	Content   string     `bson:"content"`
	Excerpt   string     `bson:"excerpt"`
	Tone      string     `bson:"tone,omitempty"`
	Language  string     `bson:"language,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty"`
}

// IsAnonymous は所有者のいない公開記事かどうかを返す。
func (b *Blog) IsAnonymous() bool {
	return b.OwnerID == nil
}

// OwnedBy は指定ユーザーが記事の所有者かどうかを返す。
// 匿名記事に対しては常にfalseを返す。
func (b *Blog) OwnedBy(userID string) bool {
	return b.OwnerID != nil && *b.OwnerID == userID
}
