package interaction

import (
	"context"
	"fmt"

	"outfitJourney/domain"
	"outfitJourney/pkg/logger"
)

// LikeRepository contract interface
type LikeRepository interface {
	LikeHistory(ctx context.Context, id domain.Identity) ([]uint64, error)
	IsLiked(ctx context.Context, id domain.Identity, outfitID uint64) (bool, error)
	ListLikes(ctx context.Context, id domain.Identity, offset, limit int) ([]domain.Like, error)
	ToggleLike(ctx context.Context, id domain.Identity, outfitID uint64, likeType domain.LikeType, bucket *string) (domain.ToggleResult, error)
}

type SessionRepository interface {
	RefreshLastAction(ctx context.Context, id domain.Identity) (bool, error)
}

type OutfitRepository interface {
	Exists(ctx context.Context, outfitID uint64) (bool, error)
}

type Service struct {
	likeRepo    LikeRepository
	sessionRepo SessionRepository
	outfitRepo  OutfitRepository
}

func NewInteractionService(
	likeRepo LikeRepository,
	sessionRepo SessionRepository,
	outfitRepo OutfitRepository,
) *Service {
	return &Service{
		likeRepo:    likeRepo,
		sessionRepo: sessionRepo,
		outfitRepo:  outfitRepo,
	}
}

func (s *Service) LikeHistory(ctx context.Context, id domain.Identity) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	ids, err := s.likeRepo.LikeHistory(ctx, id)
	if err != nil {
		logger.Error("failed to load like history", "identity", id.Key(), err)
		return nil, err
	}

	return ids, nil
}

func (s *Service) IsLiked(ctx context.Context, id domain.Identity, outfitID uint64) (bool, error) {
	return s.likeRepo.IsLiked(ctx, id, outfitID)
}

func (s *Service) ListLikes(ctx context.Context, id domain.Identity, offset, limit int) ([]domain.Like, error) {
	if offset < 0 {
		offset = 0
	}
	return s.likeRepo.ListLikes(ctx, id, offset, limit)
}

// ToggleLike checks the outfit exists, normalizes the like type and flips
// the relation. The returned state tells the caller which reward label
// applies.
func (s *Service) ToggleLike(
	ctx context.Context,
	id domain.Identity,
	outfitID uint64,
	rawLikeType string,
	bucket *string,
) (domain.ToggleResult, error) {

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	exists, err := s.outfitRepo.Exists(ctx, outfitID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.ErrOutfitNotFound
	}

	result, err := s.likeRepo.ToggleLike(ctx, id, outfitID, domain.NormalizeLikeType(rawLikeType), bucket)
	if err != nil {
		logger.Error("failed to toggle like", "identity", id.Key(), "outfit_id", outfitID, err)
		return "", err
	}

	logger.Debug("like_toggled",
		"identity", id.Key(),
		"outfit_id", outfitID,
		"result", string(result),
	)

	return result, nil
}

// RefreshLastAction is best effort; a missing session row is only logged.
func (s *Service) RefreshLastAction(ctx context.Context, id domain.Identity) error {
	ok, err := s.sessionRepo.RefreshLastAction(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("session row missing, last action not refreshed", "identity", id.Key())
	}
	return nil
}
