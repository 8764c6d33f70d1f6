package feed

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"outfitJourney/business/bandit"
	"outfitJourney/business/candidate"
	"outfitJourney/business/eventlog"
	"outfitJourney/business/feedback"
	"outfitJourney/domain"
)

// ---- likes ----

type fakeLikes struct {
	mu    sync.Mutex
	liked []uint64 // newest first
}

func (f *fakeLikes) LikeHistory(ctx context.Context, id domain.Identity) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.liked...), nil
}

func (f *fakeLikes) IsLiked(ctx context.Context, id domain.Identity, outfitID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.liked {
		if l == outfitID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLikes) ListLikes(ctx context.Context, id domain.Identity, offset, limit int) ([]domain.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Like{}
	for i := offset; i < len(f.liked) && len(out) < limit; i++ {
		out = append(out, domain.Like{OutfitID: f.liked[i]})
	}
	return out, nil
}

func (f *fakeLikes) ToggleLike(ctx context.Context, id domain.Identity, outfitID uint64, rawLikeType string, bucket *string) (domain.ToggleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.liked {
		if l == outfitID {
			f.liked = append(f.liked[:i], f.liked[i+1:]...)
			return domain.ToggleFlippedToUnliked, nil
		}
	}
	f.liked = append([]uint64{outfitID}, f.liked...)
	return domain.ToggleCreated, nil
}

func (f *fakeLikes) RefreshLastAction(ctx context.Context, id domain.Identity) error {
	return nil
}

// ---- outfits ----

type fakeCatalogue struct {
	outfits map[uint64]domain.Outfit
	similar map[uint64]domain.Similar
}

func newCatalogue(n int) *fakeCatalogue {
	c := &fakeCatalogue{
		outfits: make(map[uint64]domain.Outfit),
		similar: make(map[uint64]domain.Similar),
	}
	for i := 1; i <= n; i++ {
		c.outfits[uint64(i)] = domain.Outfit{OutfitID: uint64(i), Category: "casual"}
	}
	return c
}

func (c *fakeCatalogue) FindByID(ctx context.Context, outfitID uint64) (domain.Outfit, error) {
	o, ok := c.outfits[outfitID]
	if !ok {
		return domain.Outfit{}, domain.ErrOutfitNotFound
	}
	return o, nil
}

func (c *fakeCatalogue) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Outfit, error) {
	out := []domain.Outfit{}
	for _, id := range ids {
		if o, ok := c.outfits[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (c *fakeCatalogue) FindSimilar(ctx context.Context, outfitID uint64) (domain.Similar, error) {
	s, ok := c.similar[outfitID]
	if !ok {
		return domain.Similar{}, domain.ErrSimilarityNotFound
	}
	return s, nil
}

func (c *fakeCatalogue) Exists(ctx context.Context, outfitID uint64) (bool, error) {
	_, ok := c.outfits[outfitID]
	return ok, nil
}

// ---- generator ----

// fakeGenerator returns unliked catalogue outfits in ascending id order.
type fakeGenerator struct {
	catalogue *fakeCatalogue
	requests  []candidate.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, req candidate.Request) ([]domain.Outfit, error) {
	g.requests = append(g.requests, req)

	liked := toSet(req.Likes)
	ids := make([]uint64, 0, len(g.catalogue.outfits))
	for id := range g.catalogue.outfits {
		if _, ok := liked[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > req.Total {
		ids = ids[:req.Total]
	}
	return g.catalogue.FindByIDs(ctx, ids)
}

func (g *fakeGenerator) lastMode() candidate.Mode {
	return g.requests[len(g.requests)-1].Mode
}

// ---- bandit store ----

type memArms struct {
	mu   sync.Mutex
	fail bool
	arms map[string]map[uint64]bandit.ArmState
}

func newMemArms() *memArms {
	return &memArms{arms: make(map[string]map[uint64]bandit.ArmState)}
}

func (m *memArms) GetArms(ctx context.Context, key string) (map[uint64]bandit.ArmState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errors.New("arm store down")
	}
	out := make(map[uint64]bandit.ArmState)
	for id, a := range m.arms[key] {
		out[id] = a
	}
	return out, nil
}

func (m *memArms) IncrementArms(ctx context.Context, key string, prior bandit.ArmState, deltas []bandit.ArmDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.arms[key]
	if st == nil {
		st = make(map[uint64]bandit.ArmState)
		m.arms[key] = st
	}
	for _, d := range deltas {
		a, ok := st[d.OutfitID]
		if !ok {
			a = prior
		}
		st[d.OutfitID] = bandit.ApplyDelta(a, prior, d)
	}
	return nil
}

func (m *memArms) CountArms(ctx context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.arms[key]), nil
}

func (m *memArms) PruneArms(ctx context.Context, key string, keep int) (int, error) {
	return 0, nil
}

func (m *memArms) arm(key string, outfitID uint64) (bandit.ArmState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.arms[key][outfitID]
	return a, ok
}

// ---- dispatcher ----

// inlineDispatcher runs every job immediately on the caller's goroutine.
type inlineDispatcher struct {
	jobs []feedback.Job
}

func (d *inlineDispatcher) Dispatch(job feedback.Job) bool {
	d.jobs = append(d.jobs, job)
	for _, eff := range job.Effects {
		_ = eff.Run(context.Background())
	}
	return true
}

func (d *inlineDispatcher) effectNames() []string {
	var names []string
	for _, j := range d.jobs {
		for _, e := range j.Effects {
			names = append(names, e.Name)
		}
	}
	return names
}

// ---- harness ----

type harness struct {
	likes      *fakeLikes
	catalogue  *fakeCatalogue
	generator  *fakeGenerator
	arms       *memArms
	bandit     *bandit.Service
	events     *eventlog.Logger
	dispatcher *inlineDispatcher
	assembler  *Assembler
	service    *Service
	logDir     string
}

func newHarness(t *testing.T, likes []uint64, banditCfg bandit.Config) *harness {
	t.Helper()

	h := &harness{
		likes:      &fakeLikes{liked: likes},
		catalogue:  newCatalogue(100),
		arms:       newMemArms(),
		dispatcher: &inlineDispatcher{},
		logDir:     t.TempDir(),
	}
	h.generator = &fakeGenerator{catalogue: h.catalogue}
	h.bandit = bandit.NewBanditService(h.arms, nil, banditCfg, bandit.WithRandSource(rand.NewSource(5)))

	events, err := eventlog.NewLogger(h.logDir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = events.Close() })
	h.events = events

	h.assembler = NewAssembler(h.likes, h.catalogue, h.generator, h.bandit, DefaultConfig(),
		WithSampleSource(rand.NewSource(9)))
	h.service = NewFeedService(h.assembler, h.likes, h.catalogue, h.bandit, h.events, h.dispatcher)
	return h
}

func guest() domain.Identity {
	return domain.Identity{SessionToken: "sess"}
}

func seq(from, to uint64) []uint64 {
	out := []uint64{}
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
