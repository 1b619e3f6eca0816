// Package repository はデータ永続化層を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/blogsmith/internal/model"
)

// UserRepository はユーザーレコードの永続化インターフェース。
// FindBy*系は対象が存在しない場合、エラーではなくnilを返す。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByUsername は指定ユーザー名のユーザーを取得する（大文字小文字を区別）。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// FindByEmail は指定メールアドレスのユーザーを取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByGoogleSub はGoogle OAuthのsubject IDでユーザーを取得する。
	FindByGoogleSub(ctx context.Context, sub string) (*model.User, error)
	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
	// LinkGoogleSub は既存ユーザーにGoogle subject IDとアバターを紐付ける。
	LinkGoogleSub(ctx context.Context, userID, sub, avatarURL string) error
	// Count は全ユーザー数を返す。
	Count(ctx context.Context) (int64, error)
}

// BlogRepository はブログ記事の永続化インターフェース。
type BlogRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Blog, error)
	// FindByOwner は指定ユーザーが所有する記事をすべて取得する。
	// このクエリ形状に対してストアは順序を保証しないため、並び替えは呼び出し元で行う。
	FindByOwner(ctx context.Context, ownerID string) ([]*model.Blog, error)
	// FindAnonymous は所有者のいない記事を作成日時降順でlimit件まで取得する。
	FindAnonymous(ctx context.Context, limit int64) ([]*model.Blog, error)
	// Create は記事を作成する。
	Create(ctx context.Context, blog *model.Blog) error
	// Update は記事のタイトル・本文・抜粋・更新日時のみを更新する。
	// 所有者は作成時に確定しており、ここでは変更されない。
	Update(ctx context.Context, blog *model.Blog) error
	// DeleteByID は指定IDの記事を削除する。対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
	// Count は全記事数を返す。
	Count(ctx context.Context) (int64, error)
}
