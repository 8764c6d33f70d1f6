package domain

import "time"

type LikeType string

const (
	LikeTypeJourney LikeType = "journey"
	LikeTypeDetail  LikeType = "detail"
	LikeTypeUnknown LikeType = "unknown"
)

// NormalizeLikeType maps anything outside the known set to "unknown".
func NormalizeLikeType(raw string) LikeType {
	switch LikeType(raw) {
	case LikeTypeJourney, LikeTypeDetail:
		return LikeType(raw)
	default:
		return LikeTypeUnknown
	}
}

// Like is the toggled favourite relation between an identity and an outfit.
// There is at most one row per (identity_key, outfit_id); it is flipped,
// never hard-deleted.
type Like struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	IdentityKey string    `gorm:"column:identity_key;not null;uniqueIndex:idx_likes_identity_outfit" json:"-"`
	SessionID   string    `gorm:"column:session_id;not null" json:"session_id"`
	UserID      *uint64   `gorm:"column:user_id" json:"user_id"`
	OutfitID    uint64    `gorm:"column:outfit_id;not null;uniqueIndex:idx_likes_identity_outfit" json:"outfit_id"`
	LikeType    LikeType  `gorm:"column:like_type;type:text;not null" json:"like_type"`
	Bucket      *string   `gorm:"column:bucket" json:"bucket"`
	AsLogin     bool      `gorm:"column:as_login;not null;default:false" json:"as_login"`
	IsDeleted   bool      `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	Timestamp   time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
}

func (Like) TableName() string {
	return "likes"
}

type ToggleResult string

const (
	ToggleCreated          ToggleResult = "created"
	ToggleFlippedToLiked   ToggleResult = "flipped_to_liked"
	ToggleFlippedToUnliked ToggleResult = "flipped_to_unliked"
)

// Liked reports whether the relation is live after the toggle.
func (r ToggleResult) Liked() bool {
	return r != ToggleFlippedToUnliked
}
