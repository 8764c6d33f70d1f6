package feed

import (
	"hash/fnv"

	"outfitJourney/domain"
)

// Mode is the recommendation strategy for a journey page.
type Mode string

const (
	ModeContent Mode = "content"
	ModeMAB     Mode = "mab"
)

// ParseMode accepts content and mab; everything else is mab.
func ParseMode(raw string) Mode {
	if Mode(raw) == ModeContent {
		return ModeContent
	}
	return ModeMAB
}

// ModePolicy decides the mode of a request. A bucket label pins the mode,
// then an explicit hint, then an optional hash split of bucket-less traffic.
type ModePolicy struct {
	Default           Mode
	ContentTrafficPct int // 0..100 of bucket-less, hint-less identities sent to content
}

func (p ModePolicy) Resolve(id domain.Identity, bucket, hint string) Mode {
	if bucket != "" {
		return ParseMode(bucket)
	}
	if hint != "" {
		return ParseMode(hint)
	}
	if p.ContentTrafficPct > 0 && trafficSlot(id.Key()) < p.ContentTrafficPct {
		return ModeContent
	}
	return ParseMode(string(p.Default))
}

// trafficSlot maps an identity to a stable slot in [0, 100).
func trafficSlot(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % 100)
}
