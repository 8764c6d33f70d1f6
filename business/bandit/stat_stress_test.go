//go:build !integration

package bandit

import (
	"math"
	"math/rand"
	"testing"
)

// scenario params
const (
	stressRounds     = 4000
	stressCandidates = 20
	stressGoodArm    = uint64(7)
)

func TestBetaSampleMean(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	cases := []struct{ a, b float64 }{
		{1, 1},
		{2, 5},
		{30, 3},
		{0.5, 0.5},
	}

	for _, c := range cases {
		const n = 20000
		sum := 0.0
		for i := 0; i < n; i++ {
			x := sampleBeta(r, c.a, c.b)
			if x < 0 || x > 1 {
				t.Fatalf("Beta(%v,%v) sample out of range: %v", c.a, c.b, x)
			}
			sum += x
		}
		mean := sum / n
		want := c.a / (c.a + c.b)
		if math.Abs(mean-want) > 0.02 {
			t.Errorf("Beta(%v,%v): expected mean %.3f, got %.3f", c.a, c.b, want, mean)
		}
	}
}

func TestThompsonFavoursRewardedArm(t *testing.T) {
	svc, _, _ := newTestService(99)
	cfg := svc.Config()

	model := newModel("s:stress")
	for i := 0; i < 40; i++ {
		model.Apply(stressGoodArm, 1, cfg)
	}
	for id := uint64(1); id <= stressCandidates; id++ {
		if id == stressGoodArm {
			continue
		}
		for i := 0; i < 5; i++ {
			model.Apply(id, 0, cfg)
		}
	}

	candidates := make([]uint64, 0, stressCandidates+5)
	for id := uint64(1); id <= stressCandidates+5; id++ {
		candidates = append(candidates, id)
	}

	wins := 0
	unseenWins := 0
	for i := 0; i < stressRounds; i++ {
		top := svc.Select(model, candidates, 1)[0]
		if top == stressGoodArm {
			wins++
		}
		if top > stressCandidates {
			unseenWins++
		}
	}

	t.Logf("[THOMPSON] good-arm wins=%d unseen-arm wins=%d of %d", wins, unseenWins, stressRounds)

	if wins < stressRounds/2 {
		t.Errorf("Expected rewarded arm to win most rounds, got %d/%d", wins, stressRounds)
	}
	// unseen arms keep a wide prior and must still be explored
	if unseenWins == 0 {
		t.Errorf("Expected unseen arms to be explored at least once")
	}
}
