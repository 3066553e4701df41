// Package repository provides data access for the development posts API.
package repository

import (
	"context"
	"errors"

	"newsletter/internal/models"
	"newsletter/internal/observability"

	"gorm.io/gorm"
)

const postsTable = "posts"

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id int) (*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", postsTable, r.db.Dialector.Name())
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("create", postsTable)()

	return r.db.WithContext(ctx).Create(post).Error
}

// List returns every post in insertion order.
func (r *postRepository) List(ctx context.Context) (posts []models.Post, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "List", postsTable, r.db.Dialector.Name())
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("list", postsTable)()

	posts = []models.Post{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetByID returns a *models.AppError with code NOT_FOUND when no post has id.
func (r *postRepository) GetByID(ctx context.Context, id int) (post *models.Post, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByID", postsTable, r.db.Dialector.Name())
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("get_by_id", postsTable)()

	var p models.Post
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			nf := models.NewNotFoundError("Post", id)
			nf.Err = err
			return nil, nf
		}
		return nil, err
	}
	return &p, nil
}
