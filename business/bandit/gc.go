package bandit

import (
	"context"
	"fmt"

	"outfitJourney/pkg/logger"
)

// capArms prunes the oldest, least-updated arms once an identity holds more
// than MaxArmsPerState of them.
func (s *Service) capArms(ctx context.Context, key string) error {
	maxArms := s.cfg.MaxArmsPerState
	if maxArms <= 0 {
		return nil
	}

	count, err := s.armRepo.CountArms(ctx, key)
	if err != nil {
		return fmt.Errorf("count bandit arms: %w", err)
	}
	if count <= maxArms {
		return nil
	}

	dropped, err := s.armRepo.PruneArms(ctx, key, maxArms)
	if err != nil {
		return fmt.Errorf("prune bandit arms: %w", err)
	}

	BanditArmsPrunedTotal.Add(float64(dropped))
	logger.Info("bandit_arms_pruned",
		"identity", key,
		"before", count,
		"dropped", dropped,
	)

	return nil
}
