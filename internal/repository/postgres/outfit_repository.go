package postgres

import (
	"context"
	"errors"
	"fmt"

	"outfitJourney/domain"

	"gorm.io/gorm"
)

type OutfitRepository struct {
	DB *gorm.DB
}

func NewOutfitRepository(db *gorm.DB) *OutfitRepository {
	return &OutfitRepository{
		DB: db,
	}
}

func (r *OutfitRepository) FindByID(ctx context.Context, outfitID uint64) (domain.Outfit, error) {
	if err := ctx.Err(); err != nil {
		return domain.Outfit{}, fmt.Errorf("context error: %w", err)
	}

	var outfit domain.Outfit
	err := r.DB.WithContext(ctx).First(&outfit, "outfit_id = ?", outfitID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Outfit{}, domain.ErrOutfitNotFound
		}
		return domain.Outfit{}, fmt.Errorf("failed to find outfit: %w", err)
	}

	return outfit, nil
}

// FindByIDs returns the outfits in the order of ids; unknown ids are skipped.
func (r *OutfitRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Outfit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Outfit{}, nil
	}

	var rows []domain.Outfit
	if err := r.DB.WithContext(ctx).Where("outfit_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find outfits: %w", err)
	}

	byID := make(map[uint64]domain.Outfit, len(rows))
	for _, o := range rows {
		byID[o.OutfitID] = o
	}

	out := make([]domain.Outfit, 0, len(rows))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
			delete(byID, id)
		}
	}

	return out, nil
}

func (r *OutfitRepository) Exists(ctx context.Context, outfitID uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := r.DB.WithContext(ctx).
		Model(&domain.Outfit{}).
		Where("outfit_id = ?", outfitID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check outfit: %w", err)
	}

	return count > 0, nil
}

func (r *OutfitRepository) FindSimilar(ctx context.Context, outfitID uint64) (domain.Similar, error) {
	if err := ctx.Err(); err != nil {
		return domain.Similar{}, fmt.Errorf("context error: %w", err)
	}

	var similar domain.Similar
	err := r.DB.WithContext(ctx).First(&similar, "outfit_id = ?", outfitID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Similar{}, domain.ErrSimilarityNotFound
		}
		return domain.Similar{}, fmt.Errorf("failed to find similar outfits: %w", err)
	}

	return similar, nil
}

// FindSimilarMany loads the neighbour rows of several outfits, in the order
// of ids. Outfits without a row are skipped.
func (r *OutfitRepository) FindSimilarMany(ctx context.Context, ids []uint64) ([]domain.Similar, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Similar{}, nil
	}

	var rows []domain.Similar
	if err := r.DB.WithContext(ctx).Where("outfit_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query similar outfits: %w", err)
	}

	byID := make(map[uint64]domain.Similar, len(rows))
	for _, s := range rows {
		byID[s.OutfitID] = s
	}

	out := make([]domain.Similar, 0, len(rows))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}

	return out, nil
}

// RandomByCategories draws up to limit random outfits from the given
// categories, or from the whole catalogue when categories is empty.
func (r *OutfitRepository) RandomByCategories(
	ctx context.Context,
	categories []string,
	exclude []uint64,
	limit int,
) ([]domain.Outfit, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		return []domain.Outfit{}, nil
	}

	q := r.DB.WithContext(ctx).Model(&domain.Outfit{})
	if len(categories) > 0 {
		q = q.Where("category IN ?", categories)
	}
	// NOT IN with an empty list matches nothing
	if len(exclude) > 0 {
		q = q.Where("outfit_id NOT IN ?", exclude)
	}

	var outfits []domain.Outfit
	if err := q.Order("RANDOM()").Limit(limit).Find(&outfits).Error; err != nil {
		return nil, fmt.Errorf("failed to query random outfits: %w", err)
	}

	return outfits, nil
}
