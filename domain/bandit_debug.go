package domain

type DebugRecommendation struct {
	OutfitID      uint64  `json:"outfit_id"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	PosteriorMean float64 `json:"posterior_mean"` // α / (α+β)
	Sample        float64 `json:"sample"`         // Beta(α, β) draw used for ranking
	Selected      bool    `json:"selected"`
}
