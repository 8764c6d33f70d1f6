package candidate

import (
	"context"

	"outfitJourney/domain"
)

// Mode picks how many outfits a generator returns and how they are used.
type Mode string

const (
	// ModeFinal returns exactly the page to show.
	ModeFinal Mode = "rec"
	// ModePool returns a wider pool for the bandit to rank.
	ModePool Mode = "cand"
)

// Request asks for up to Total outfits, drawn from a similarity lane of up
// to SimilarCount and a category lane of up to CategoryCount.
type Request struct {
	Identity      domain.Identity
	Likes         []uint64 // newest first
	Mode          Mode
	Total         int
	SimilarCount  int
	CategoryCount int
}

// Generator produces candidate outfits for one identity. Implementations
// must not return duplicates or outfits the identity already likes.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]domain.Outfit, error)
}

// FinalRequest asks for one page of outfits.
func FinalRequest(id domain.Identity, likes []uint64, pageSize int) Request {
	return Request{
		Identity:      id,
		Likes:         likes,
		Mode:          ModeFinal,
		Total:         pageSize,
		SimilarCount:  pageSize / 2,
		CategoryCount: pageSize - pageSize/2,
	}
}

// PoolRequest asks for pageSize*multiplier outfits split evenly between the
// two lanes.
func PoolRequest(id domain.Identity, likes []uint64, pageSize, multiplier int) Request {
	total := pageSize * multiplier
	return Request{
		Identity:      id,
		Likes:         likes,
		Mode:          ModePool,
		Total:         total,
		SimilarCount:  total / 2,
		CategoryCount: total - total/2,
	}
}

// IDs extracts outfit ids, dropping repeats while keeping first-seen order.
func IDs(outfits []domain.Outfit) []uint64 {
	seen := make(map[uint64]struct{}, len(outfits))
	out := make([]uint64, 0, len(outfits))
	for _, o := range outfits {
		if _, ok := seen[o.OutfitID]; ok {
			continue
		}
		seen[o.OutfitID] = struct{}{}
		out = append(out, o.OutfitID)
	}
	return out
}
