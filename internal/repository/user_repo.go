package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ripplehq/ripple-api/internal/models"
)

// UserRepository persists user summary rows and their follow counters.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (models.User, error)
	// AdjustFollowCounters moves the actor's following counter and the target's
	// followers counter by delta in one transaction, never below zero.
	AdjustFollowCounters(ctx context.Context, actorID, targetID uint, delta int64) error
	SetFollowCounters(ctx context.Context, id uint, followers, following int64) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) AdjustFollowCounters(ctx context.Context, actorID, targetID uint, delta int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flooredUpdate := func(id uint, column string) error {
			expr := gorm.Expr(
				"CASE WHEN "+column+" + ? >= 0 THEN "+column+" + ? ELSE 0 END",
				delta, delta,
			)
			result := tx.Model(&models.User{}).Where("id = ?", id).UpdateColumn(column, expr)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return nil
		}

		if err := flooredUpdate(actorID, "following"); err != nil {
			return err
		}
		return flooredUpdate(targetID, "followers")
	})
}

func (r *userRepository) SetFollowCounters(ctx context.Context, id uint, followers, following int64) error {
	if followers < 0 {
		followers = 0
	}
	if following < 0 {
		following = 0
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"followers": followers,
			"following": following,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
