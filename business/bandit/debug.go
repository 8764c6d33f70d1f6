package bandit

import (
	"context"
	"fmt"

	"outfitJourney/domain"
	"outfitJourney/pkg/logger"
)

// DebugSelect runs one selection and returns every scored candidate with its
// posterior, sample and whether it made the top k.
func (s *Service) DebugSelect(
	ctx context.Context,
	id domain.Identity,
	candidates []uint64,
	k int,
) ([]domain.DebugRecommendation, error) {

	model, err := s.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load bandit model: %w", err)
	}

	scoredList := s.scoreCandidates(model, candidates)

	logger.Debug("bandit_debug_select",
		"trace_id", logger.TraceID(ctx),
		"identity", model.IdentityKey,
		"candidates", len(scoredList),
		"k", k,
	)

	out := make([]domain.DebugRecommendation, 0, len(scoredList))
	for i, sc := range scoredList {
		out = append(out, domain.DebugRecommendation{
			OutfitID:      sc.outfitID,
			Alpha:         sc.arm.Alpha,
			Beta:          sc.arm.Beta,
			PosteriorMean: posteriorMean(sc.arm),
			Sample:        sc.sample,
			Selected:      i < k,
		})
	}

	return out, nil
}
