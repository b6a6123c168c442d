package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ripplehq/ripple-api/internal/models"
)

// Counter columns maintained on the post summary row.
const (
	PostCounterLikes    = "likes"
	PostCounterComments = "comments"
	PostCounterShares   = "shares"
)

// PostRepository persists post summary rows and their cached counters.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id uint) (models.Post, error)
	// AdjustCounter moves the named counter by delta, never below zero.
	AdjustCounter(ctx context.Context, id uint, column string, delta int64) error
	// SetCounter overwrites the named counter with a recomputed value.
	SetCounter(ctx context.Context, id uint, column string, value int64) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository constructs a GORM-backed post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (r *postRepository) AdjustCounter(ctx context.Context, id uint, column string, delta int64) error {
	if err := validPostCounter(column); err != nil {
		return err
	}

	// CASE keeps the decrement floored at zero without read-modify-write.
	expr := gorm.Expr(
		fmt.Sprintf("CASE WHEN %s + ? >= 0 THEN %s + ? ELSE 0 END", column, column),
		delta, delta,
	)

	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn(column, expr)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postRepository) SetCounter(ctx context.Context, id uint, column string, value int64) error {
	if err := validPostCounter(column); err != nil {
		return err
	}
	if value < 0 {
		value = 0
	}

	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func validPostCounter(column string) error {
	switch column {
	case PostCounterLikes, PostCounterComments, PostCounterShares:
		return nil
	default:
		return fmt.Errorf("unknown post counter column %q", column)
	}
}
