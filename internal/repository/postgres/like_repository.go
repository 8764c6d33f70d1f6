package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outfitJourney/domain"
	"outfitJourney/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxToggleAttempts = 3

type LikeRepository struct {
	DB *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{
		DB: db,
	}
}

// LikeHistory returns the outfit ids the identity currently likes, newest first.
func (r *LikeRepository) LikeHistory(ctx context.Context, id domain.Identity) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var outfitIDs []uint64
	err := r.DB.WithContext(ctx).
		Model(&domain.Like{}).
		Scopes(ScopeIdentity(id)).
		Where("is_deleted = ?", false).
		Order("timestamp DESC, id DESC").
		Pluck("outfit_id", &outfitIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query like history: %w", err)
	}

	return outfitIDs, nil
}

func (r *LikeRepository) IsLiked(ctx context.Context, id domain.Identity, outfitID uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := r.DB.WithContext(ctx).
		Model(&domain.Like{}).
		Scopes(ScopeIdentity(id)).
		Where("outfit_id = ? AND is_deleted = ?", outfitID, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}

	return count > 0, nil
}

// ListLikes pages through live likes in reverse-chronological order.
func (r *LikeRepository) ListLikes(ctx context.Context, id domain.Identity, offset, limit int) ([]domain.Like, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var likes []domain.Like
	err := r.DB.WithContext(ctx).
		Scopes(ScopeIdentity(id)).
		Where("is_deleted = ?", false).
		Order("timestamp DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&likes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	return likes, nil
}

// ToggleLike inserts the like or flips its is_deleted flag inside one
// row-locking transaction. Two first-time likes racing on the same pair
// collide on idx_likes_identity_outfit; the loser retries and flips instead
// of inserting a duplicate.
func (r *LikeRepository) ToggleLike(
	ctx context.Context,
	id domain.Identity,
	outfitID uint64,
	likeType domain.LikeType,
	bucket *string,
) (domain.ToggleResult, error) {

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("context error: %w", err)
		}

		result, err := r.toggleOnce(ctx, id, outfitID, likeType, bucket)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= maxToggleAttempts {
			return "", fmt.Errorf("failed to toggle like: %w", err)
		}

		logger.Warn("like_toggle_retry",
			"identity", id.Key(),
			"outfit_id", outfitID,
			"attempt", attempt,
		)
	}
}

func (r *LikeRepository) toggleOnce(
	ctx context.Context,
	id domain.Identity,
	outfitID uint64,
	likeType domain.LikeType,
	bucket *string,
) (domain.ToggleResult, error) {

	var result domain.ToggleResult
	now := time.Now()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var like domain.Like
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(ScopeIdentity(id)).
			Where("outfit_id = ?", outfitID).
			Take(&like).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			like = domain.Like{
				IdentityKey: id.Key(),
				SessionID:   id.SessionToken,
				UserID:      id.MemberID,
				OutfitID:    outfitID,
				LikeType:    likeType,
				Bucket:      bucket,
				AsLogin:     id.IsMember(),
				IsDeleted:   false,
				Timestamp:   now,
			}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			result = domain.ToggleCreated
			return nil
		}
		if err != nil {
			return err
		}

		deleted := !like.IsDeleted
		if err := tx.Model(&like).Updates(map[string]interface{}{
			"is_deleted": deleted,
			"timestamp":  now,
			"like_type":  likeType,
		}).Error; err != nil {
			return err
		}

		if deleted {
			result = domain.ToggleFlippedToUnliked
		} else {
			result = domain.ToggleFlippedToLiked
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return result, nil
}
