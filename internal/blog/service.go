// Package blog はブログ記事の可視性・所有ポリシーとCRUDのビジネスロジックを提供する。
//
// ポリシーの要点:
//   - 一覧は呼び出し元ごとにスコープされる。認証済みユーザーは自分の記事のみを
//     見る（管理者も例外ではない。ダッシュボードは個人のものであり全体ビューではない）。
//     匿名の呼び出し元は所有者のいない公開記事のみを見る。
//   - 単一記事の取得に所有チェックはない。IDを知っていれば誰でも読める。
//   - 更新・削除は所有者または管理者のみ。所有者は作成時に確定し変更されない。
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogsmith/internal/model"
	"github.com/hitoshi/blogsmith/internal/repository"
)

// AnonymousListLimit は匿名の呼び出し元への一覧の最大件数。
const AnonymousListLimit = 20

// Sanitizer は記事コンテンツのサニタイズに必要なインターフェース。
// security.ContentSanitizerServiceの部分集合として定義する。
type Sanitizer interface {
	Sanitize(rawHTML string) string
	SanitizeText(raw string) string
}

// Generator は生成AIによる記事生成のインターフェース。
// ai.Clientの部分集合として定義する。記事生成が構成されていない場合はnil。
type Generator interface {
	GenerateBlog(ctx context.Context, topic, tone, language string) (*GeneratedBlog, error)
}

// GeneratedBlog は生成AIが返す記事データ。
type GeneratedBlog struct {
	Title   string
	Content string
	Excerpt string
}

// Service はブログ記事に関するビジネスロジックを提供する。
type Service struct {
	blogs     repository.BlogRepository
	users     repository.UserRepository
	sanitizer Sanitizer
	generator Generator
}

// NewService はServiceを生成する。
func NewService(
	blogs repository.BlogRepository,
	users repository.UserRepository,
	sanitizer Sanitizer,
	generator Generator,
) *Service {
	return &Service{
		blogs:     blogs,
		users:     users,
		sanitizer: sanitizer,
		generator: generator,
	}
}

// CreateInput は記事作成の入力。
type CreateInput struct {
	Title    string
	Content  string
	Excerpt  string
	Tone     string
	Language string
}

// UpdateInput は記事更新の入力。空のフィールドは変更しない。
// タイトル・本文・抜粋以外は更新できない。
type UpdateInput struct {
	Title   string
	Content string
	Excerpt string
}

// GenerateInput はAI記事生成の入力。
type GenerateInput struct {
	Topic    string
	Tone     string
	Language string
}

// List は呼び出し元に可視な記事一覧を返す。
// 認証済みの場合は自分の所有記事のみを作成日時降順で返す。ストアはこのクエリ形状の
// 順序を保証しないため取得後に並び替え、作成日時のない記事はゼロ値として扱う。
// 匿名の場合は所有者のいない記事を新しい順に最大AnonymousListLimit件返す。
func (s *Service) List(ctx context.Context, caller *model.Identity) ([]*model.Blog, error) {
	if caller == nil {
		blogs, err := s.blogs.FindAnonymous(ctx, AnonymousListLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list anonymous blogs: %w", err)
		}
		return blogs, nil
	}

	blogs, err := s.blogs.FindByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}

	sort.SliceStable(blogs, func(i, j int) bool {
		return blogs[i].CreatedAt.After(blogs[j].CreatedAt)
	})

	return blogs, nil
}

// Get は指定IDの記事を取得する。所有チェックは行わない。
func (s *Service) Get(ctx context.Context, id string) (*model.Blog, error) {
	if id == "" {
		return nil, model.NewInvalidRequestError("記事IDが空です")
	}

	blog, err := s.blogs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find blog: %w", err)
	}
	if blog == nil {
		return nil, model.NewBlogNotFoundError(id)
	}

	return blog, nil
}

// Create は記事を作成する。callerがnilの場合は所有者のいない公開記事になる。
// 所有者は作成時に確定し、以降変更されない。
func (s *Service) Create(ctx context.Context, caller *model.Identity, input CreateInput) (*model.Blog, error) {
	if input.Title == "" || input.Content == "" {
		return nil, model.NewInvalidRequestError("タイトルと本文は必須です")
	}

	var ownerID *string
	if caller != nil {
		ownerID = &caller.UserID
	}

	blog := &model.Blog{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     s.sanitizer.SanitizeText(input.Title),
		Content:   s.sanitizer.Sanitize(input.Content),
		Excerpt:   s.sanitizer.SanitizeText(input.Excerpt),
		Tone:      input.Tone,
		Language:  input.Language,
		CreatedAt: time.Now(),
	}

	if err := s.blogs.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}

	slog.Info("blog created",
		slog.String("blog_id", blog.ID),
		slog.Bool("anonymous", blog.IsAnonymous()),
	)

	return blog, nil
}

// Generate は生成AIで記事を作成する。作成後の所有・可視性はCreateと同じ。
func (s *Service) Generate(ctx context.Context, caller *model.Identity, input GenerateInput) (*model.Blog, error) {
	if s.generator == nil {
		return nil, model.NewUpstreamFailureError("generation is not configured")
	}
	if input.Topic == "" {
		return nil, model.NewInvalidRequestError("トピックは必須です")
	}

	generated, err := s.generator.GenerateBlog(ctx, input.Topic, input.Tone, input.Language)
	if err != nil {
		slog.Error("blog generation failed", slog.String("error", err.Error()))
		return nil, model.NewUpstreamFailureError("generative ai")
	}

	return s.Create(ctx, caller, CreateInput{
		Title:    generated.Title,
		Content:  generated.Content,
		Excerpt:  generated.Excerpt,
		Tone:     input.Tone,
		Language: input.Language,
	})
}

// Update は記事のタイトル・本文・抜粋を更新する。
// 所有者または管理者のみが実行できる。空のフィールドは変更しない。
func (s *Service) Update(ctx context.Context, caller *model.Identity, id string, input UpdateInput) (*model.Blog, error) {
	blog, err := s.authorizeMutation(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if input.Title != "" {
		blog.Title = s.sanitizer.SanitizeText(input.Title)
	}
	if input.Content != "" {
		blog.Content = s.sanitizer.Sanitize(input.Content)
	}
	if input.Excerpt != "" {
		blog.Excerpt = s.sanitizer.SanitizeText(input.Excerpt)
	}
	now := time.Now()
	blog.UpdatedAt = &now

	if err := s.blogs.Update(ctx, blog); err != nil {
		return nil, fmt.Errorf("failed to update blog: %w", err)
	}

	slog.Info("blog updated",
		slog.String("blog_id", blog.ID),
		slog.String("user_id", caller.UserID),
	)

	return blog, nil
}

// Delete は記事を削除する。所有者または管理者のみが実行できる。
func (s *Service) Delete(ctx context.Context, caller *model.Identity, id string) error {
	blog, err := s.authorizeMutation(ctx, caller, id)
	if err != nil {
		return err
	}

	deleted, err := s.blogs.DeleteByID(ctx, blog.ID)
	if err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	if !deleted {
		return model.NewBlogNotFoundError(id)
	}

	slog.Info("blog deleted",
		slog.String("blog_id", blog.ID),
		slog.String("user_id", caller.UserID),
	)

	return nil
}

// authorizeMutation は変更操作の認可を行い、対象記事を返す。
// 存在チェックを認可チェックより先に行うため、存在しない記事への変更は
// 権限に関わらずNotFoundになる。
func (s *Service) authorizeMutation(ctx context.Context, caller *model.Identity, id string) (*model.Blog, error) {
	if caller == nil {
		return nil, model.NewUnauthorizedError()
	}
	if id == "" {
		return nil, model.NewInvalidRequestError("記事IDが空です")
	}

	blog, err := s.blogs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find blog: %w", err)
	}
	if blog == nil {
		return nil, model.NewBlogNotFoundError(id)
	}

	if !blog.OwnedBy(caller.UserID) && !caller.IsAdmin() {
		return nil, model.NewForbiddenError()
	}

	return blog, nil
}

// Stats は管理者向けの集計情報。
type Stats struct {
	UserCount int64
	BlogCount int64
}

// GetStats は管理者向けの集計情報を返す。管理者ロールのみが実行できる。
func (s *Service) GetStats(ctx context.Context, caller *model.Identity) (*Stats, error) {
	if caller == nil {
		return nil, model.NewUnauthorizedError()
	}
	if !caller.IsAdmin() {
		return nil, model.NewForbiddenError()
	}

	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	blogCount, err := s.blogs.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count blogs: %w", err)
	}

	return &Stats{UserCount: userCount, BlogCount: blogCount}, nil
}
