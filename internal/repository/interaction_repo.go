package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ripplehq/ripple-api/internal/models"
)

// InteractionRepository persists the append-only interaction ledger.
type InteractionRepository interface {
	// Toggle flips the active flag for a toggleable (actor, target, action)
	// tuple, creating the row on first use. Returns the resulting state.
	Toggle(ctx context.Context, actorID uint, targetType string, targetID uint, actionType string) (bool, models.Interaction, error)
	Record(ctx context.Context, interaction *models.Interaction) error
	FindActive(ctx context.Context, actorID uint, targetType string, targetID uint, actionType string) (models.Interaction, error)
	CountActive(ctx context.Context, targetType string, targetID uint, actionType string) (int64, error)
	CountActiveByActor(ctx context.Context, actorID uint, actionType string) (int64, error)
	ListComments(ctx context.Context, targetType string, targetID uint, limit, offset int) ([]models.Interaction, error)
	ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	MutualFollowers(ctx context.Context, userID uint) ([]models.User, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository constructs a ledger repository backed by GORM.
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Toggle(ctx context.Context, actorID uint, targetType string, targetID uint, actionType string) (bool, models.Interaction, error) {
	var (
		row       models.Interaction
		activated bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("actor_id = ? AND target_type = ? AND target_id = ? AND action_type = ?",
				actorID, targetType, targetID, actionType).
			First(&row).Error

		switch {
		case err == nil:
			activated = !row.Active
			row.Active = activated
			return tx.Model(&row).Update("active", row.Active).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.Interaction{
				ActorID:    actorID,
				TargetType: targetType,
				TargetID:   targetID,
				ActionType: actionType,
				Active:     true,
			}
			activated = true
			return tx.Create(&row).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, models.Interaction{}, err
	}

	return activated, row, nil
}

func (r *interactionRepository) Record(ctx context.Context, interaction *models.Interaction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

func (r *interactionRepository) FindActive(ctx context.Context, actorID uint, targetType string, targetID uint, actionType string) (models.Interaction, error) {
	var interaction models.Interaction
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_type = ? AND target_id = ? AND action_type = ? AND active = ?",
			actorID, targetType, targetID, actionType, true).
		First(&interaction).Error
	if err != nil {
		return models.Interaction{}, err
	}
	return interaction, nil
}

func (r *interactionRepository) CountActive(ctx context.Context, targetType string, targetID uint, actionType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Interaction{}).
		Where("target_type = ? AND target_id = ? AND action_type = ? AND active = ?",
			targetType, targetID, actionType, true).
		Count(&count).Error
	return count, err
}

func (r *interactionRepository) CountActiveByActor(ctx context.Context, actorID uint, actionType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Interaction{}).
		Where("actor_id = ? AND action_type = ? AND active = ?", actorID, actionType, true).
		Count(&count).Error
	return count, err
}

func (r *interactionRepository) ListComments(ctx context.Context, targetType string, targetID uint, limit, offset int) ([]models.Interaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var comments []models.Interaction
	if err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND action_type = ? AND active = ?",
			targetType, targetID, models.ActionComment, true).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *interactionRepository) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	// The follow row's created_at carries the ordering, so the join must drive
	// the outer query; a subquery would surrender the order to the planner.
	var users []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("users.*").
		Joins("JOIN interactions ON interactions.actor_id = users.id").
		Where("interactions.target_type = ? AND interactions.target_id = ? AND interactions.action_type = ? AND interactions.active = ?",
			models.TargetUser, userID, models.ActionFollow, true).
		Order("interactions.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *interactionRepository) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var users []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("users.*").
		Joins("JOIN interactions ON interactions.target_id = users.id").
		Where("interactions.target_type = ? AND interactions.actor_id = ? AND interactions.action_type = ? AND interactions.active = ?",
			models.TargetUser, userID, models.ActionFollow, true).
		Order("interactions.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *interactionRepository) MutualFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.followRows().Select("target_id").Where("actor_id = ?", userID)).
		Where("id IN (?)", r.followRows().Select("actor_id").Where("target_id = ?", userID)).
		Find(&users).Error
	return users, err
}

func (r *interactionRepository) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Interaction{}).
		Where("actor_id = ? AND target_type = ? AND target_id = ? AND action_type = ? AND active = ?",
			followerID, models.TargetUser, followedID, models.ActionFollow, true).
		Count(&count).Error
	return count > 0, err
}

func (r *interactionRepository) followRows() *gorm.DB {
	return r.db.Model(&models.Interaction{}).
		Where("target_type = ? AND action_type = ? AND active = ?",
			models.TargetUser, models.ActionFollow, true)
}
