package bandit

import "fmt"

type Config struct {
	// Beta prior and floor for every arm
	PriorAlpha float64
	PriorBeta  float64

	// per-identity arm cap; least recently updated arms are pruned beyond it
	MaxArmsPerState int

	// what a like_cancel interaction feeds back
	LikeCancel LikeCancelPolicy
}

// LikeCancelPolicy decides the reward for cancelling a like.
type LikeCancelPolicy string

const (
	// counts the cancel as engagement (reward 1)
	LikeCancelEngage LikeCancelPolicy = "engage"
	// counts the cancel as a negative signal (reward 0)
	LikeCancelPenalize LikeCancelPolicy = "penalize"
	// submits no update
	LikeCancelSkip LikeCancelPolicy = "skip"
)

func ParseLikeCancelPolicy(raw string) (LikeCancelPolicy, error) {
	switch p := LikeCancelPolicy(raw); p {
	case LikeCancelEngage, LikeCancelPenalize, LikeCancelSkip:
		return p, nil
	default:
		return "", fmt.Errorf("unknown like cancel policy: %s", raw)
	}
}

const (
	defaultPriorAlpha      = 1.0
	defaultPriorBeta       = 1.0
	defaultMaxArmsPerState = 2000
)

func DefaultConfig() Config {
	return Config{
		PriorAlpha:      defaultPriorAlpha,
		PriorBeta:       defaultPriorBeta,
		MaxArmsPerState: defaultMaxArmsPerState,
		LikeCancel:      LikeCancelEngage,
	}
}
