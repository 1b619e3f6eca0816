package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/hitoshi/blogsmith/internal/model"
)

const blogCollection = "blogs"

// MongoBlogRepo はMongoDBを使用したブログ記事リポジトリ。
type MongoBlogRepo struct {
	coll *mongo.Collection
}

// NewMongoBlogRepo はMongoBlogRepoを生成する。
func NewMongoBlogRepo(db *mongo.Database) *MongoBlogRepo {
	return &MongoBlogRepo{coll: db.Collection(blogCollection)}
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *MongoBlogRepo) FindByID(ctx context.Context, id string) (*model.Blog, error) {
	blog := &model.Blog{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(blog)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blog: %w", err)
	}
	return blog, nil
}

// FindByOwner は指定ユーザーが所有する記事をすべて取得する。
// 取得順序は保証されない。並び替えはサービス層で行う。
func (r *MongoBlogRepo) FindByOwner(ctx context.Context, ownerID string) ([]*model.Blog, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to find blogs by owner: %w", err)
	}

	var blogs []*model.Blog
	if err := cursor.All(ctx, &blogs); err != nil {
		return nil, fmt.Errorf("failed to decode blogs: %w", err)
	}
	return blogs, nil
}

// FindAnonymous は所有者のいない記事を作成日時降順でlimit件まで取得する。
// 並び替えはストア側のクエリ機能で行う。
func (r *MongoBlogRepo) FindAnonymous(ctx context.Context, limit int64) ([]*model.Blog, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"owner_id": nil},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find anonymous blogs: %w", err)
	}

	var blogs []*model.Blog
	if err := cursor.All(ctx, &blogs); err != nil {
		return nil, fmt.Errorf("failed to decode blogs: %w", err)
	}
	return blogs, nil
}

// Create は記事を作成する。
func (r *MongoBlogRepo) Create(ctx context.Context, blog *model.Blog) error {
	if _, err := r.coll.InsertOne(ctx, blog); err != nil {
		return fmt.Errorf("failed to insert blog: %w", err)
	}
	return nil
}

// Update は記事のタイトル・本文・抜粋・更新日時のみを更新する。
func (r *MongoBlogRepo) Update(ctx context.Context, blog *model.Blog) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": blog.ID},
		bson.M{"$set": bson.M{
			"title":      blog.Title,
			"content":    blog.Content,
			"excerpt":    blog.Excerpt,
			"updated_at": blog.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("blog not found: %s", blog.ID)
	}
	return nil
}

// DeleteByID は指定IDの記事を削除する。対象が存在しない場合はfalseを返す。
func (r *MongoBlogRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete blog: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// Count は全記事数を返す。
func (r *MongoBlogRepo) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count blogs: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ BlogRepository = (*MongoBlogRepo)(nil)
