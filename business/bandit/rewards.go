package bandit

import "fmt"

// Interaction labels the user signal behind a reward.
type Interaction string

const (
	InteractionView       Interaction = "view"
	InteractionClick      Interaction = "click"
	InteractionLikeClick  Interaction = "like_click"
	InteractionLikeCancel Interaction = "like_cancel"
)

// Reward is one (outfit, reward) pair destined for an arm.
type Reward struct {
	OutfitID    uint64      `json:"outfit_id"`
	Value       int         `json:"reward"`
	Interaction Interaction `json:"interaction"`
}

// RewardForInteraction turns an interaction into a binary reward using the
// current config. ok is false when the interaction submits no update.
func (cfg Config) RewardForInteraction(in Interaction) (reward int, ok bool, err error) {
	switch in {
	case InteractionView:
		return 0, true, nil
	case InteractionClick, InteractionLikeClick:
		return 1, true, nil
	case InteractionLikeCancel:
		switch cfg.LikeCancel {
		case LikeCancelPenalize:
			return 0, true, nil
		case LikeCancelSkip:
			return 0, false, nil
		default:
			return 1, true, nil
		}
	default:
		return 0, false, fmt.Errorf("unknown interaction: %s", in)
	}
}

// RewardsFor builds one reward per outfit for the same interaction.
func (cfg Config) RewardsFor(in Interaction, outfitIDs ...uint64) ([]Reward, error) {
	value, ok, err := cfg.RewardForInteraction(in)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	out := make([]Reward, 0, len(outfitIDs))
	for _, id := range outfitIDs {
		out = append(out, Reward{OutfitID: id, Value: value, Interaction: in})
	}
	return out, nil
}
