package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"outfitJourney/business/bandit"
	"outfitJourney/business/candidate"
	"outfitJourney/domain"
	"outfitJourney/pkg/logger"
)

type LikeReader interface {
	LikeHistory(ctx context.Context, id domain.Identity) ([]uint64, error)
	IsLiked(ctx context.Context, id domain.Identity, outfitID uint64) (bool, error)
	ListLikes(ctx context.Context, id domain.Identity, offset, limit int) ([]domain.Like, error)
}

type OutfitReader interface {
	FindByID(ctx context.Context, outfitID uint64) (domain.Outfit, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Outfit, error)
	FindSimilar(ctx context.Context, outfitID uint64) (domain.Similar, error)
}

type Bandit interface {
	Load(ctx context.Context, id domain.Identity) (*bandit.Model, error)
	Select(model *bandit.Model, candidates []uint64, k int) []uint64
	DebugSelect(ctx context.Context, id domain.Identity, candidates []uint64, k int) ([]domain.DebugRecommendation, error)
	Update(ctx context.Context, id domain.Identity, rewards []bandit.Reward) error
	Config() bandit.Config
}

type Config struct {
	MinLikesForBandit int
	PoolMultiplier    int
	Modes             ModePolicy
}

func DefaultConfig() Config {
	return Config{
		MinLikesForBandit: 4,
		PoolMultiplier:    10,
		Modes:             ModePolicy{Default: ModeMAB},
	}
}

type JourneyPage struct {
	Outfits  []domain.OutfitView `json:"outfits_list"`
	PageSize int                 `json:"page_size"`
	Offset   int                 `json:"offset"`
	IsLast   bool                `json:"is_last"`
	// strategy actually served
	Mode Mode `json:"-"`
}

type CollectionPage struct {
	Outfits  []domain.OutfitView `json:"outfits_list"`
	PageSize int                 `json:"page_size"`
	Offset   int                 `json:"offset"`
	IsLast   bool                `json:"is_last"`
}

type DetailPage struct {
	Outfit  domain.OutfitView   `json:"outfit"`
	Similar []domain.OutfitView `json:"similar_outfits_list"`
}

// Assembler builds the three page shapes from likes, candidates and the
// bandit. It has no side effects; feedback is scheduled by Service.
type Assembler struct {
	likes     LikeReader
	outfits   OutfitReader
	generator candidate.Generator
	bandit    Bandit
	cfg       Config

	mu  sync.Mutex
	rng *rand.Rand
}

type AssemblerOption func(*Assembler)

// WithSampleSource makes similar-outfit sampling reproducible.
func WithSampleSource(src rand.Source) AssemblerOption {
	return func(a *Assembler) {
		a.rng = rand.New(src)
	}
}

func NewAssembler(
	likes LikeReader,
	outfits OutfitReader,
	generator candidate.Generator,
	banditSvc Bandit,
	cfg Config,
	opts ...AssemblerOption,
) *Assembler {
	if cfg.PoolMultiplier <= 0 {
		cfg.PoolMultiplier = DefaultConfig().PoolMultiplier
	}

	a := &Assembler{
		likes:     likes,
		outfits:   outfits,
		generator: generator,
		bandit:    banditSvc,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildJourneyPage serves content recommendations while the identity has
// few likes or is pinned to content, and a bandit-ranked pool otherwise.
// A bandit that fails to load degrades the page to content mode.
func (a *Assembler) BuildJourneyPage(
	ctx context.Context,
	id domain.Identity,
	bucket, hint string,
	pageSize, offset int,
) (JourneyPage, error) {

	likes, err := a.likes.LikeHistory(ctx, id)
	if err != nil {
		return JourneyPage{}, fmt.Errorf("load like history: %w", err)
	}

	mode := a.cfg.Modes.Resolve(id, bucket, hint)
	if len(likes) < a.cfg.MinLikesForBandit {
		mode = ModeContent
	}

	var outfits []domain.Outfit
	if mode == ModeMAB {
		outfits, err = a.banditPage(ctx, id, likes, pageSize)
		if err != nil {
			logger.Warn("bandit page failed, serving content",
				"trace_id", logger.TraceID(ctx),
				"identity", id.Key(),
				err,
			)
			mode = ModeContent
		}
	}

	if mode == ModeContent {
		outfits, err = a.generator.Generate(ctx, candidate.FinalRequest(id, likes, pageSize))
		if err != nil {
			return JourneyPage{}, fmt.Errorf("generate content page: %w", err)
		}
		if len(outfits) > pageSize {
			outfits = outfits[:pageSize]
		}
	}

	liked := toSet(likes)
	views := make([]domain.OutfitView, 0, len(outfits))
	for _, o := range outfits {
		_, isLiked := liked[o.OutfitID]
		views = append(views, domain.NewOutfitView(o, isLiked))
	}

	return JourneyPage{
		Outfits:  views,
		PageSize: pageSize,
		Offset:   offset,
		IsLast:   len(views) < pageSize,
		Mode:     mode,
	}, nil
}

func (a *Assembler) banditPage(ctx context.Context, id domain.Identity, likes []uint64, pageSize int) ([]domain.Outfit, error) {
	pool, err := a.generator.Generate(ctx, candidate.PoolRequest(id, likes, pageSize, a.cfg.PoolMultiplier))
	if err != nil {
		return nil, fmt.Errorf("generate candidate pool: %w", err)
	}

	model, err := a.bandit.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load bandit model: %w", err)
	}

	byID := make(map[uint64]domain.Outfit, len(pool))
	for _, o := range pool {
		byID[o.OutfitID] = o
	}

	selected := a.bandit.Select(model, candidate.IDs(pool), pageSize)
	out := make([]domain.Outfit, 0, len(selected))
	for _, oid := range selected {
		out = append(out, byID[oid])
	}
	return out, nil
}

// BuildCollectionPage lists liked outfits newest first. One extra row is
// fetched to tell whether a further page exists.
func (a *Assembler) BuildCollectionPage(ctx context.Context, id domain.Identity, pageSize, offset int) (CollectionPage, error) {
	likes, err := a.likes.ListLikes(ctx, id, offset, pageSize+1)
	if err != nil {
		return CollectionPage{}, fmt.Errorf("list likes: %w", err)
	}

	isLast := len(likes) <= pageSize
	if !isLast {
		likes = likes[:pageSize]
	}
	if len(likes) == 0 {
		return CollectionPage{}, domain.ErrEmptyCollection
	}

	ids := make([]uint64, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.OutfitID)
	}

	outfits, err := a.outfits.FindByIDs(ctx, ids)
	if err != nil {
		return CollectionPage{}, fmt.Errorf("load liked outfits: %w", err)
	}

	views := make([]domain.OutfitView, 0, len(outfits))
	for _, o := range outfits {
		views = append(views, domain.NewOutfitView(o, true))
	}

	return CollectionPage{
		Outfits:  views,
		PageSize: pageSize,
		Offset:   offset,
		IsLast:   isLast,
	}, nil
}

// BuildSingleAndSimilar returns the outfit and nSamples outfits drawn
// without replacement from its merged similarity set.
func (a *Assembler) BuildSingleAndSimilar(ctx context.Context, id domain.Identity, outfitID uint64, nSamples int) (DetailPage, error) {
	outfit, err := a.outfits.FindByID(ctx, outfitID)
	if err != nil {
		return DetailPage{}, err
	}

	similar, err := a.outfits.FindSimilar(ctx, outfitID)
	if err != nil {
		return DetailPage{}, err
	}

	pool := similar.Merged()
	if nSamples > len(pool) {
		return DetailPage{}, fmt.Errorf("%w: requested %d, have %d", domain.ErrInsufficientSimilarItems, nSamples, len(pool))
	}

	sampled := a.sample(pool, nSamples)
	similarOutfits, err := a.outfits.FindByIDs(ctx, sampled)
	if err != nil {
		return DetailPage{}, fmt.Errorf("load similar outfits: %w", err)
	}
	if len(similarOutfits) != len(sampled) {
		return DetailPage{}, fmt.Errorf("%w: similar outfit missing from catalogue", domain.ErrOutfitNotFound)
	}

	likes, err := a.likes.LikeHistory(ctx, id)
	if err != nil {
		return DetailPage{}, fmt.Errorf("load like history: %w", err)
	}
	liked := toSet(likes)

	_, mainLiked := liked[outfit.OutfitID]
	page := DetailPage{
		Outfit:  domain.NewOutfitView(outfit, mainLiked),
		Similar: make([]domain.OutfitView, 0, len(similarOutfits)),
	}
	for _, o := range similarOutfits {
		_, isLiked := liked[o.OutfitID]
		page.Similar = append(page.Similar, domain.NewOutfitView(o, isLiked))
	}

	return page, nil
}

// DebugSelect scores a fresh candidate pool without serving it.
func (a *Assembler) DebugSelect(ctx context.Context, id domain.Identity, pageSize int) ([]domain.DebugRecommendation, error) {
	likes, err := a.likes.LikeHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load like history: %w", err)
	}

	pool, err := a.generator.Generate(ctx, candidate.PoolRequest(id, likes, pageSize, a.cfg.PoolMultiplier))
	if err != nil {
		return nil, fmt.Errorf("generate candidate pool: %w", err)
	}

	return a.bandit.DebugSelect(ctx, id, candidate.IDs(pool), pageSize)
}

// sample is a partial Fisher-Yates shuffle over a copy of pool.
func (a *Assembler) sample(pool []uint64, n int) []uint64 {
	buf := make([]uint64, len(pool))
	copy(buf, pool)

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < n; i++ {
		j := i + a.rng.Intn(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:n]
}

func toSet(ids []uint64) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
