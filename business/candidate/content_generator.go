package candidate

import (
	"context"
	"fmt"

	"outfitJourney/domain"
	"outfitJourney/pkg/logger"
)

// likes used to seed both lanes
const maxSeedLikes = 20

type OutfitRepository interface {
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Outfit, error)
	FindSimilarMany(ctx context.Context, ids []uint64) ([]domain.Similar, error)
	RandomByCategories(ctx context.Context, categories []string, exclude []uint64, limit int) ([]domain.Outfit, error)
}

// ContentGenerator builds candidates from the precomputed similarity table
// (neighbours of liked outfits) and from random outfits in the liked
// categories. Short lanes are topped up from the whole catalogue, so a
// guest with no likes gets a random page.
type ContentGenerator struct {
	outfitRepo OutfitRepository
}

func NewContentGenerator(outfitRepo OutfitRepository) *ContentGenerator {
	return &ContentGenerator{outfitRepo: outfitRepo}
}

func (g *ContentGenerator) Generate(ctx context.Context, req Request) ([]domain.Outfit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if req.Total <= 0 {
		return []domain.Outfit{}, nil
	}

	seeds := req.Likes
	if len(seeds) > maxSeedLikes {
		seeds = seeds[:maxSeedLikes]
	}

	picked := newPickSet(req.Likes)
	out := make([]domain.Outfit, 0, req.Total)

	// similarity lane
	if len(seeds) > 0 && req.SimilarCount > 0 {
		simIDs, err := g.similarLane(ctx, seeds, picked, req.SimilarCount)
		if err != nil {
			return nil, err
		}
		outfits, err := g.outfitRepo.FindByIDs(ctx, simIDs)
		if err != nil {
			return nil, fmt.Errorf("load similar outfits: %w", err)
		}
		out = picked.addAll(out, outfits, req.Total)
	}

	// category lane
	if req.CategoryCount > 0 && len(out) < req.Total {
		categories, err := g.likedCategories(ctx, seeds)
		if err != nil {
			return nil, err
		}
		if len(categories) > 0 {
			outfits, err := g.outfitRepo.RandomByCategories(ctx, categories, picked.ids(), req.CategoryCount)
			if err != nil {
				return nil, fmt.Errorf("load category outfits: %w", err)
			}
			out = picked.addAll(out, outfits, req.Total)
		}
	}

	// top up from the catalogue
	if missing := req.Total - len(out); missing > 0 {
		outfits, err := g.outfitRepo.RandomByCategories(ctx, nil, picked.ids(), missing)
		if err != nil {
			return nil, fmt.Errorf("load random outfits: %w", err)
		}
		out = picked.addAll(out, outfits, req.Total)
	}

	logger.Debug("candidates_generated",
		"identity", req.Identity.Key(),
		"mode", string(req.Mode),
		"likes", len(req.Likes),
		"requested", req.Total,
		"returned", len(out),
	)

	return out, nil
}

func (g *ContentGenerator) similarLane(ctx context.Context, seeds []uint64, picked *pickSet, limit int) ([]uint64, error) {
	rows, err := g.outfitRepo.FindSimilarMany(ctx, seeds)
	if err != nil {
		return nil, fmt.Errorf("load similarity rows: %w", err)
	}

	lists := make([][]uint64, 0, len(rows))
	for _, row := range rows {
		lists = append(lists, row.Merged())
	}

	// round-robin so every liked outfit contributes neighbours
	ids := make([]uint64, 0, limit)
	seen := make(map[uint64]struct{}, limit)
	for depth := 0; len(ids) < limit; depth++ {
		progressed := false
		for _, list := range lists {
			if depth >= len(list) {
				continue
			}
			progressed = true
			id := list[depth]
			if picked.has(id) {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
		if !progressed {
			break
		}
	}

	return ids, nil
}

func (g *ContentGenerator) likedCategories(ctx context.Context, seeds []uint64) ([]string, error) {
	if len(seeds) == 0 {
		return nil, nil
	}

	outfits, err := g.outfitRepo.FindByIDs(ctx, seeds)
	if err != nil {
		return nil, fmt.Errorf("load liked outfits: %w", err)
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0, len(outfits))
	for _, o := range outfits {
		if o.Category == "" {
			continue
		}
		if _, ok := seen[o.Category]; ok {
			continue
		}
		seen[o.Category] = struct{}{}
		categories = append(categories, o.Category)
	}

	return categories, nil
}

// pickSet tracks outfits already liked or already emitted.
type pickSet struct {
	set   map[uint64]struct{}
	order []uint64
}

func newPickSet(initial []uint64) *pickSet {
	p := &pickSet{set: make(map[uint64]struct{}, len(initial))}
	for _, id := range initial {
		p.add(id)
	}
	return p
}

func (p *pickSet) has(id uint64) bool {
	_, ok := p.set[id]
	return ok
}

func (p *pickSet) add(id uint64) bool {
	if p.has(id) {
		return false
	}
	p.set[id] = struct{}{}
	p.order = append(p.order, id)
	return true
}

func (p *pickSet) ids() []uint64 {
	return p.order
}

func (p *pickSet) addAll(out, outfits []domain.Outfit, limit int) []domain.Outfit {
	for _, o := range outfits {
		if len(out) >= limit {
			break
		}
		if p.add(o.OutfitID) {
			out = append(out, o)
		}
	}
	return out
}
