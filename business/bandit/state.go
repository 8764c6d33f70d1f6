package bandit

import "time"

// ArmState is the Beta(α, β) posterior of one outfit.
type ArmState struct {
	Alpha       float64   `json:"alpha"`
	Beta        float64   `json:"beta"`
	Pulls       int64     `json:"pulls"`
	LastUpdated time.Time `json:"last_updated"`
}

// Model is the bandit state of one identity. Arms absent from the map are at
// the prior.
type Model struct {
	IdentityKey string              `json:"identity_key"`
	Arms        map[uint64]ArmState `json:"arms"` // key: outfitID
}

func newArmState(cfg Config) ArmState {
	return ArmState{
		Alpha: cfg.PriorAlpha,
		Beta:  cfg.PriorBeta,
	}
}

func newModel(key string) *Model {
	return &Model{
		IdentityKey: key,
		Arms:        make(map[uint64]ArmState),
	}
}

// Arm returns the stored arm or the prior for an unseen outfit.
func (m *Model) Arm(outfitID uint64, cfg Config) ArmState {
	if arm, ok := m.Arms[outfitID]; ok {
		return arm
	}
	return newArmState(cfg)
}

// Apply folds one reward into the in-memory model the way Update persists it.
func (m *Model) Apply(outfitID uint64, reward int, cfg Config) {
	d := ArmDelta{OutfitID: outfitID}
	if reward > 0 {
		d.Upgrades = 1
	} else {
		d.Beta, d.Pulls = 1, 1
	}
	arm := ApplyDelta(m.Arm(outfitID, cfg), newArmState(cfg), d)
	arm.LastUpdated = time.Now()
	m.Arms[outfitID] = arm
}

// clampToPrior keeps persisted values from dropping below the prior floor.
func clampToPrior(arm ArmState, cfg Config) ArmState {
	if arm.Alpha < cfg.PriorAlpha {
		arm.Alpha = cfg.PriorAlpha
	}
	if arm.Beta < cfg.PriorBeta {
		arm.Beta = cfg.PriorBeta
	}
	return arm
}
