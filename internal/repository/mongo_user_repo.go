package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/hitoshi/blogsmith/internal/model"
)

const userCollection = "users"

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(userCollection)}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
// 照合は保存時の表記どおり大文字小文字を区別する。
func (r *MongoUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByGoogleSub はGoogle OAuthのsubject IDでユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByGoogleSub(ctx context.Context, sub string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"google_sub": sub})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	user := &model.User{}
	err := r.coll.FindOne(ctx, filter).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// LinkGoogleSub は既存ユーザーにGoogle subject IDとアバターを紐付ける。
// ソーシャルログインで既存のローカルアカウントが特定された場合のリンク処理で使用する。
func (r *MongoUserRepo) LinkGoogleSub(ctx context.Context, userID, sub, avatarURL string) error {
	set := bson.M{"google_sub": sub}
	if avatarURL != "" {
		set["avatar_url"] = avatarURL
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to link google sub: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// Count は全ユーザー数を返す。
func (r *MongoUserRepo) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ UserRepository = (*MongoUserRepo)(nil)
