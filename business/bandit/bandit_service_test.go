package bandit

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"outfitJourney/domain"
)

// memArmRepo is an in-memory ArmRepository with atomic adds under a mutex.
type memArmRepo struct {
	mu   sync.Mutex
	arms map[string]map[uint64]ArmState
}

func newMemArmRepo() *memArmRepo {
	return &memArmRepo{arms: make(map[string]map[uint64]ArmState)}
}

func (r *memArmRepo) GetArms(ctx context.Context, key string) (map[uint64]ArmState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint64]ArmState, len(r.arms[key]))
	for id, arm := range r.arms[key] {
		out[id] = arm
	}
	return out, nil
}

func (r *memArmRepo) IncrementArms(ctx context.Context, key string, prior ArmState, deltas []ArmDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.arms[key]
	if !ok {
		st = make(map[uint64]ArmState)
		r.arms[key] = st
	}
	for _, d := range deltas {
		arm, ok := st[d.OutfitID]
		if !ok {
			arm = prior
		}
		arm = ApplyDelta(arm, prior, d)
		arm.LastUpdated = time.Now()
		st[d.OutfitID] = arm
	}
	return nil
}

func (r *memArmRepo) CountArms(ctx context.Context, key string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.arms[key]), nil
}

func (r *memArmRepo) PruneArms(ctx context.Context, key string, keep int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.arms[key]
	if len(st) <= keep {
		return 0, nil
	}
	ids := make([]uint64, 0, len(st))
	for id := range st {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return st[ids[i]].LastUpdated.Before(st[ids[j]].LastUpdated)
	})
	drop := len(st) - keep
	for _, id := range ids[:drop] {
		delete(st, id)
	}
	return drop, nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []domain.BanditEvent
}

func (r *memEventRepo) SaveEvents(ctx context.Context, events []domain.BanditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func guest(session string) domain.Identity {
	return domain.Identity{SessionToken: session}
}

func newTestService(seed int64) (*Service, *memArmRepo, *memEventRepo) {
	arms := newMemArmRepo()
	events := &memEventRepo{}
	svc := NewBanditService(arms, events, DefaultConfig(), WithRandSource(rand.NewSource(seed)))
	return svc, arms, events
}

func TestLoadMissingStateIsPrior(t *testing.T) {
	svc, _, _ := newTestService(1)

	model, err := svc.Load(context.Background(), guest("new"))
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Arms) != 0 {
		t.Errorf("Expected no arms, got %d", len(model.Arms))
	}

	arm := model.Arm(99, svc.Config())
	if arm.Alpha != 1 || arm.Beta != 1 {
		t.Errorf("Expected prior (1,1), got (%v,%v)", arm.Alpha, arm.Beta)
	}
}

func TestSelectNeverDuplicatesAndIsBounded(t *testing.T) {
	svc, _, _ := newTestService(7)
	model := newModel("s:x")

	cases := []struct {
		candidates []uint64
		k          int
		want       int
	}{
		{[]uint64{1, 2, 3, 4, 5}, 3, 3},
		{[]uint64{1, 2, 3}, 10, 3},
		{[]uint64{1, 1, 2, 2, 3, 3}, 5, 3},
		{[]uint64{}, 4, 0},
		{[]uint64{9, 8}, 0, 0},
	}

	for _, c := range cases {
		for round := 0; round < 50; round++ {
			got := svc.Select(model, c.candidates, c.k)
			if len(got) != c.want {
				t.Fatalf("candidates=%v k=%d: expected %d items, got %d", c.candidates, c.k, c.want, len(got))
			}
			seen := make(map[uint64]bool)
			for _, id := range got {
				if seen[id] {
					t.Fatalf("duplicate outfit %d in %v", id, got)
				}
				seen[id] = true
			}
		}
	}
}

func TestSelectReproducibleWithSeed(t *testing.T) {
	candidates := []uint64{10, 20, 30, 40, 50, 60, 70, 80}

	a, _, _ := newTestService(42)
	b, _, _ := newTestService(42)

	for i := 0; i < 5; i++ {
		ga := a.Select(newModel("k"), candidates, 4)
		gb := b.Select(newModel("k"), candidates, 4)
		for j := range ga {
			if ga[j] != gb[j] {
				t.Fatalf("round %d: expected identical selections, got %v and %v", i, ga, gb)
			}
		}
	}
}

func TestUpdateIncrementsAlphaAndBeta(t *testing.T) {
	svc, _, events := newTestService(1)
	ctx := context.Background()
	id := guest("sess")

	err := svc.Update(ctx, id, []Reward{
		{OutfitID: 1, Value: 1, Interaction: InteractionClick},
		{OutfitID: 1, Value: 0, Interaction: InteractionView},
		{OutfitID: 2, Value: 0, Interaction: InteractionView},
	})
	if err != nil {
		t.Fatal(err)
	}

	model, err := svc.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	// the click upgrades the view in the same batch
	if arm := model.Arms[1]; arm.Alpha != 2 || arm.Beta != 1 || arm.Pulls != 1 {
		t.Errorf("Expected outfit 1 at (2,1,1), got (%v,%v,%d)", arm.Alpha, arm.Beta, arm.Pulls)
	}
	if arm := model.Arms[2]; arm.Alpha != 1 || arm.Beta != 2 {
		t.Errorf("Expected outfit 2 at (1,2), got (%v,%v)", arm.Alpha, arm.Beta)
	}
	if len(events.events) != 3 {
		t.Errorf("Expected 3 audit events, got %d", len(events.events))
	}
}

func TestUpdateRejectsNonBinaryReward(t *testing.T) {
	svc, _, _ := newTestService(1)

	err := svc.Update(context.Background(), guest("s"), []Reward{{OutfitID: 1, Value: 3}})
	if err == nil {
		t.Fatal("Expected error for reward 3")
	}
}

func TestUpdateConcurrentRewardsAreNotLost(t *testing.T) {
	svc, _, _ := newTestService(1)
	ctx := context.Background()
	id := guest("busy")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = svc.Update(ctx, id, []Reward{{OutfitID: 5, Value: i % 2, Interaction: InteractionView}})
		}(i)
	}
	wg.Wait()

	model, _ := svc.Load(ctx, id)
	arm := model.Arms[5]
	if arm.Alpha != 51 {
		t.Errorf("Expected alpha 51 after 50 clicks, got %v", arm.Alpha)
	}
	// each click either consumed a view or added its own pull
	if consumed := 51 - arm.Beta; float64(arm.Pulls) != 100-consumed {
		t.Errorf("Expected pulls %v for %v consumed views, got %d", 100-consumed, consumed, arm.Pulls)
	}
}

func TestUpgradeConsumesExposure(t *testing.T) {
	prior := ArmState{Alpha: 1, Beta: 1}

	cases := []struct {
		name  string
		start ArmState
		delta ArmDelta
		want  ArmState
	}{
		{"view then click", prior, ArmDelta{Beta: 1, Pulls: 1, Upgrades: 1}, ArmState{Alpha: 2, Beta: 1, Pulls: 1}},
		{"click without exposure", prior, ArmDelta{Upgrades: 1}, ArmState{Alpha: 2, Beta: 1, Pulls: 1}},
		{"one view two clicks", prior, ArmDelta{Beta: 1, Pulls: 1, Upgrades: 2}, ArmState{Alpha: 3, Beta: 1, Pulls: 2}},
		{"stored exposures", ArmState{Alpha: 1, Beta: 4, Pulls: 3}, ArmDelta{Upgrades: 2}, ArmState{Alpha: 3, Beta: 2, Pulls: 3}},
		{"plain view", prior, ArmDelta{Beta: 1, Pulls: 1}, ArmState{Alpha: 1, Beta: 2, Pulls: 1}},
	}

	for _, c := range cases {
		got := ApplyDelta(c.start, prior, c.delta)
		if got.Alpha != c.want.Alpha || got.Beta != c.want.Beta || got.Pulls != c.want.Pulls {
			t.Errorf("%s: expected (%v,%v,%d), got (%v,%v,%d)", c.name,
				c.want.Alpha, c.want.Beta, c.want.Pulls, got.Alpha, got.Beta, got.Pulls)
		}
	}
}

func TestViewThenClickEndsWithOneReward(t *testing.T) {
	svc, _, _ := newTestService(1)
	ctx := context.Background()
	id := guest("shown")

	if err := svc.Update(ctx, id, []Reward{{OutfitID: 3, Value: 0, Interaction: InteractionView}}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(ctx, id, []Reward{{OutfitID: 3, Value: 1, Interaction: InteractionClick}}); err != nil {
		t.Fatal(err)
	}

	model, _ := svc.Load(ctx, id)
	if arm := model.Arms[3]; arm.Alpha != 2 || arm.Beta != 1 || arm.Pulls != 1 {
		t.Errorf("Expected (2,1,1) after view and click, got (%v,%v,%d)", arm.Alpha, arm.Beta, arm.Pulls)
	}
}

func TestModelJSONRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	m := newModel("u:1")
	m.Apply(1, 1, cfg)
	m.Apply(1, 0, cfg)
	m.Apply(2, 0, cfg)
	m.Arms[3] = ArmState{Alpha: 1.125, Beta: 7.3}

	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}

	var back Model
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}

	if back.IdentityKey != m.IdentityKey {
		t.Errorf("Expected key %s, got %s", m.IdentityKey, back.IdentityKey)
	}
	if len(back.Arms) != len(m.Arms) {
		t.Fatalf("Expected %d arms, got %d", len(m.Arms), len(back.Arms))
	}
	for id, arm := range m.Arms {
		got := back.Arms[id]
		if got.Alpha != arm.Alpha || got.Beta != arm.Beta {
			t.Errorf("arm %d: expected (%v,%v), got (%v,%v)", id, arm.Alpha, arm.Beta, got.Alpha, got.Beta)
		}
	}
}

func TestCapArmsPrunesOldest(t *testing.T) {
	arms := newMemArmRepo()
	cfg := DefaultConfig()
	cfg.MaxArmsPerState = 3
	svc := NewBanditService(arms, nil, cfg, WithRandSource(rand.NewSource(1)))
	ctx := context.Background()
	id := guest("cap")

	for i := uint64(1); i <= 5; i++ {
		if err := svc.Update(ctx, id, []Reward{{OutfitID: i, Value: 0, Interaction: InteractionView}}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}

	model, _ := svc.Load(ctx, id)
	if len(model.Arms) != 3 {
		t.Fatalf("Expected 3 arms after cap, got %d", len(model.Arms))
	}
	for _, id := range []uint64{3, 4, 5} {
		if _, ok := model.Arms[id]; !ok {
			t.Errorf("Expected newest arm %d to survive", id)
		}
	}
}

func TestRewardForInteraction(t *testing.T) {
	cases := []struct {
		policy LikeCancelPolicy
		in     Interaction
		reward int
		ok     bool
	}{
		{LikeCancelEngage, InteractionView, 0, true},
		{LikeCancelEngage, InteractionClick, 1, true},
		{LikeCancelEngage, InteractionLikeClick, 1, true},
		{LikeCancelEngage, InteractionLikeCancel, 1, true},
		{LikeCancelPenalize, InteractionLikeCancel, 0, true},
		{LikeCancelSkip, InteractionLikeCancel, 0, false},
	}

	for _, c := range cases {
		cfg := DefaultConfig()
		cfg.LikeCancel = c.policy
		reward, ok, err := cfg.RewardForInteraction(c.in)
		if err != nil {
			t.Fatalf("%s/%s: %v", c.policy, c.in, err)
		}
		if reward != c.reward || ok != c.ok {
			t.Errorf("%s/%s: expected (%d,%v), got (%d,%v)", c.policy, c.in, c.reward, c.ok, reward, ok)
		}
	}

	if _, _, err := DefaultConfig().RewardForInteraction("share"); err == nil {
		t.Error("Expected error for unknown interaction")
	}
}

func TestRewardsForSkipPolicyIsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LikeCancel = LikeCancelSkip

	rewards, err := cfg.RewardsFor(InteractionLikeCancel, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rewards) != 0 {
		t.Errorf("Expected no rewards, got %d", len(rewards))
	}
}

func TestDebugSelectMarksTopK(t *testing.T) {
	svc, _, _ := newTestService(3)

	recs, err := svc.DebugSelect(context.Background(), guest("dbg"), []uint64{1, 2, 3, 4}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("Expected 4 debug rows, got %d", len(recs))
	}

	selected := 0
	for i, r := range recs {
		if r.Selected {
			selected++
		}
		if i > 0 && recs[i-1].Sample < r.Sample {
			t.Errorf("Expected rows sorted by sample descending")
		}
		if r.PosteriorMean != 0.5 {
			t.Errorf("Expected prior mean 0.5, got %v", r.PosteriorMean)
		}
	}
	if selected != 2 {
		t.Errorf("Expected 2 selected rows, got %d", selected)
	}
}
