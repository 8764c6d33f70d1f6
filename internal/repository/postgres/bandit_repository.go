package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"outfitJourney/business/bandit"
	"outfitJourney/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const eventBatchSize = 100

var (
	_ bandit.ArmRepository   = (*BanditRepository)(nil)
	_ bandit.EventRepository = (*BanditRepository)(nil)
)

type BanditRepository struct {
	DB *gorm.DB
}

func NewBanditRepository(db *gorm.DB) *BanditRepository {
	return &BanditRepository{DB: db}
}

// ---- Events ----

func (r *BanditRepository) SaveEvents(ctx context.Context, events []domain.BanditEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	if err := r.DB.WithContext(ctx).CreateInBatches(&events, eventBatchSize).Error; err != nil {
		return fmt.Errorf("failed to save bandit events: %w", err)
	}

	return nil
}

// ---- Arms ----

func (r *BanditRepository) GetArms(ctx context.Context, identityKey string) (map[uint64]bandit.ArmState, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.BanditArm
	err := r.DB.WithContext(ctx).Where("identity_key = ?", identityKey).Find(&rows).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query bandit_arms: %w", err)
	}

	arms := make(map[uint64]bandit.ArmState, len(rows))
	for _, row := range rows {
		arms[row.OutfitID] = bandit.ArmState{
			Alpha:       row.Alpha,
			Beta:        row.Beta,
			Pulls:       row.Pulls,
			LastUpdated: row.UpdatedAt,
		}
	}

	return arms, nil
}

// IncrementArms upserts every delta as "column = column + delta", so
// concurrent updates to one arm add up instead of overwriting each other.
// Rows are touched in outfit order so two writers on one identity take
// their row locks in the same order.
func (r *BanditRepository) IncrementArms(
	ctx context.Context,
	identityKey string,
	prior bandit.ArmState,
	deltas []bandit.ArmDelta,
) error {

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(deltas) == 0 {
		return nil
	}

	ordered := make([]bandit.ArmDelta, len(deltas))
	copy(ordered, deltas)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].OutfitID < ordered[j].OutfitID
	})

	now := time.Now()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range ordered {
			row := domain.BanditArm{
				IdentityKey: identityKey,
				OutfitID:    d.OutfitID,
				Alpha:       prior.Alpha + d.Alpha,
				Beta:        prior.Beta + d.Beta,
				Pulls:       prior.Pulls + d.Pulls,
				UpdatedAt:   now,
			}

			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "identity_key"}, {Name: "outfit_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"alpha":      gorm.Expr("bandit_arms.alpha + ?", d.Alpha),
					"beta":       gorm.Expr("bandit_arms.beta + ?", d.Beta),
					"pulls":      gorm.Expr("bandit_arms.pulls + ?", d.Pulls),
					"updated_at": now,
				}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("outfit %d: %w", d.OutfitID, err)
			}

			for i := int64(0); i < d.Upgrades; i++ {
				if err := upgradeExposure(tx, identityKey, d.OutfitID, prior.Beta, now); err != nil {
					return fmt.Errorf("outfit %d: %w", d.OutfitID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert bandit_arms: %w", err)
	}

	return nil
}

// upgradeExposure moves one zero reward to α when β is above the prior floor,
// otherwise records a fresh rewarded pull. SET expressions read the old row.
func upgradeExposure(tx *gorm.DB, identityKey string, outfitID uint64, priorBeta float64, now time.Time) error {
	return tx.Model(&domain.BanditArm{}).
		Where("identity_key = ? AND outfit_id = ?", identityKey, outfitID).
		Updates(map[string]interface{}{
			"alpha":      gorm.Expr("alpha + 1"),
			"beta":       gorm.Expr("CASE WHEN beta - 1 >= ? THEN beta - 1 ELSE beta END", priorBeta),
			"pulls":      gorm.Expr("CASE WHEN beta - 1 >= ? THEN pulls ELSE pulls + 1 END", priorBeta),
			"updated_at": now,
		}).Error
}

func (r *BanditRepository) CountArms(ctx context.Context, identityKey string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := r.DB.WithContext(ctx).
		Model(&domain.BanditArm{}).
		Where("identity_key = ?", identityKey).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bandit_arms: %w", err)
	}

	return int(count), nil
}

// PruneArms keeps the keep most recently updated arms and deletes the rest.
func (r *BanditRepository) PruneArms(ctx context.Context, identityKey string, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	db := r.DB.WithContext(ctx)

	newest := db.Model(&domain.BanditArm{}).
		Select("outfit_id").
		Where("identity_key = ?", identityKey).
		Order("updated_at DESC, outfit_id DESC").
		Limit(keep)

	result := db.
		Where("identity_key = ?", identityKey).
		Where("outfit_id NOT IN (?)", newest).
		Delete(&domain.BanditArm{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune bandit_arms: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}
