package bandit

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"outfitJourney/domain"
	"outfitJourney/pkg/logger"

	"gorm.io/datatypes"
)

// ---- Repository interfaces ----

// ArmDelta is a change to one arm. Alpha, Beta and Pulls are plain adds.
// Each of the Upgrades turns one outstanding zero-reward exposure into a
// reward of 1: α+1 and β−1 while β stays at or above the prior. With no
// exposure left it counts as a fresh rewarded pull instead.
type ArmDelta struct {
	OutfitID uint64
	Alpha    float64
	Beta     float64
	Pulls    int64
	Upgrades int64
}

// ApplyDelta is the reference arithmetic for one delta: adds first, then
// upgrades one at a time.
func ApplyDelta(arm, prior ArmState, d ArmDelta) ArmState {
	arm.Alpha += d.Alpha
	arm.Beta += d.Beta
	arm.Pulls += d.Pulls
	for i := int64(0); i < d.Upgrades; i++ {
		arm.Alpha++
		if arm.Beta-1 >= prior.Beta {
			arm.Beta--
		} else {
			arm.Pulls++
		}
	}
	return arm
}

// ArmRepository persists arm posteriors per identity key. IncrementArms must
// apply each delta atomically with ApplyDelta's arithmetic; an arm missing
// from the store starts at prior before the delta is applied.
type ArmRepository interface {
	GetArms(ctx context.Context, identityKey string) (map[uint64]ArmState, error)
	IncrementArms(ctx context.Context, identityKey string, prior ArmState, deltas []ArmDelta) error
	CountArms(ctx context.Context, identityKey string) (int, error)
	PruneArms(ctx context.Context, identityKey string, keep int) (int, error)
}

type EventRepository interface {
	SaveEvents(ctx context.Context, events []domain.BanditEvent) error
}

// ---- Usecase / Service ----

type Service struct {
	armRepo   ArmRepository
	eventRepo EventRepository
	cfg       Config

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Service)

// WithRandSource makes selection reproducible.
func WithRandSource(src rand.Source) Option {
	return func(s *Service) {
		s.rng = rand.New(src)
	}
}

func NewBanditService(
	armRepo ArmRepository,
	eventRepo EventRepository,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.PriorAlpha <= 0 {
		cfg.PriorAlpha = defaultPriorAlpha
	}
	if cfg.PriorBeta <= 0 {
		cfg.PriorBeta = defaultPriorBeta
	}
	if cfg.LikeCancel == "" {
		cfg.LikeCancel = LikeCancelEngage
	}

	s := &Service{
		armRepo:   armRepo,
		eventRepo: eventRepo,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Config() Config {
	return s.cfg
}

// Load fetches the identity's model. Missing state is the uniform prior,
// never an error.
func (s *Service) Load(ctx context.Context, id domain.Identity) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	key := id.Key()
	model := newModel(key)

	arms, err := s.armRepo.GetArms(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load bandit arms: %w", err)
	}
	for outfitID, arm := range arms {
		model.Arms[outfitID] = clampToPrior(arm, s.cfg)
	}

	logger.Debug("bandit_load",
		"trace_id", logger.TraceID(ctx),
		"identity", key,
		"arms", len(model.Arms),
	)

	return model, nil
}

// Select ranks the candidates by a Thompson sample of each arm and returns the
// top k. Duplicate candidates are collapsed; the result never exceeds
// min(k, distinct candidates).
func (s *Service) Select(model *Model, candidates []uint64, k int) []uint64 {
	scored := s.scoreCandidates(model, candidates)
	if k > len(scored) {
		k = len(scored)
	}
	if k <= 0 {
		return []uint64{}
	}

	out := make([]uint64, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, scored[i].outfitID)
	}

	BanditSelectionsTotal.Inc()
	return out
}

type scored struct {
	outfitID uint64
	arm      ArmState
	sample   float64
}

// scoreCandidates draws one Beta sample per distinct candidate and sorts
// descending. Candidate order is kept for ties so a seeded source gives the
// same ranking for the same input.
func (s *Service) scoreCandidates(model *Model, candidates []uint64) []scored {
	if model == nil {
		model = newModel("")
	}

	seen := make(map[uint64]struct{}, len(candidates))
	out := make([]scored, 0, len(candidates))

	s.mu.Lock()
	for _, id := range candidates {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		arm := model.Arm(id, s.cfg)
		out = append(out, scored{
			outfitID: id,
			arm:      arm,
			sample:   sampleBeta(s.rng, arm.Alpha, arm.Beta),
		})
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].sample > out[j].sample
	})
	return out
}

// Update applies rewards as atomic per-arm changes. A reward of 0 records an
// exposure (β+1). A reward of 1 upgrades the arm's last outstanding exposure,
// so an item shown and then clicked ends with exactly one reward. Several
// rewards for one outfit are folded into one delta.
func (s *Service) Update(ctx context.Context, id domain.Identity, rewards []Reward) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(rewards) == 0 {
		return nil
	}

	key := id.Key()

	order := make([]uint64, 0, len(rewards))
	byOutfit := make(map[uint64]*ArmDelta, len(rewards))
	for _, r := range rewards {
		if r.Value != 0 && r.Value != 1 {
			return fmt.Errorf("reward must be 0 or 1, got %d", r.Value)
		}
		d, ok := byOutfit[r.OutfitID]
		if !ok {
			d = &ArmDelta{OutfitID: r.OutfitID}
			byOutfit[r.OutfitID] = d
			order = append(order, r.OutfitID)
		}
		if r.Value == 1 {
			d.Upgrades++
		} else {
			d.Beta++
			d.Pulls++
		}
	}

	deltas := make([]ArmDelta, 0, len(order))
	for _, outfitID := range order {
		deltas = append(deltas, *byOutfit[outfitID])
	}

	logger.Debug("bandit_update",
		"trace_id", logger.TraceID(ctx),
		"identity", key,
		"rewards", len(rewards),
		"arms", len(deltas),
	)

	if err := s.armRepo.IncrementArms(ctx, key, newArmState(s.cfg), deltas); err != nil {
		return fmt.Errorf("failed to increment bandit arms: %w", err)
	}

	for _, r := range rewards {
		BanditRewardUpdatesTotal.
			WithLabelValues(string(r.Interaction), fmt.Sprint(r.Value)).
			Inc()
	}

	if s.eventRepo != nil {
		evCtx := datatypes.JSONMap{
			"session_id": id.SessionToken,
			"trace_id":   logger.TraceID(ctx),
		}
		events := make([]domain.BanditEvent, 0, len(rewards))
		for _, r := range rewards {
			events = append(events, domain.BanditEvent{
				IdentityKey: key,
				OutfitID:    r.OutfitID,
				Interaction: string(r.Interaction),
				Reward:      r.Value,
				Context:     evCtx,
			})
		}
		if err := s.eventRepo.SaveEvents(ctx, events); err != nil {
			return fmt.Errorf("failed to save bandit events: %w", err)
		}
	}

	return s.capArms(ctx, key)
}
