package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.outfits (
//     outfit_id   BIGINT PRIMARY KEY,
//     gender      TEXT,
//     category    TEXT,
//     img_url     TEXT,
//     origin_url  TEXT,
//     reporter    TEXT,
//     tags        JSONB,
//     brands      JSONB,
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );

type Outfit struct {
	OutfitID  uint64                      `gorm:"column:outfit_id;primaryKey;autoIncrement:false" json:"outfit_id"`
	Gender    string                      `gorm:"column:gender;type:text" json:"gender"`
	Category  string                      `gorm:"column:category;type:text;index" json:"category"`
	ImgURL    string                      `gorm:"column:img_url;type:text" json:"img_url"`
	OriginURL string                      `gorm:"column:origin_url;type:text" json:"origin_url"`
	Reporter  string                      `gorm:"column:reporter;type:text" json:"reporter"`
	Tags      datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	Brands    datatypes.JSONSlice[string] `gorm:"column:brands" json:"brands"`
	CreatedAt time.Time                   `gorm:"column:created_at" json:"-"`
}

func (Outfit) TableName() string {
	return "outfits"
}

// Similar holds the precomputed neighbours of one outfit from two
// similarity methods.
type Similar struct {
	OutfitID uint64                      `gorm:"column:outfit_id;primaryKey;autoIncrement:false"`
	Kkma     datatypes.JSONSlice[uint64] `gorm:"column:kkma"`
	Gpt      datatypes.JSONSlice[uint64] `gorm:"column:gpt"`
}

func (Similar) TableName() string {
	return "similar_outfits"
}

// Merged returns the union of both neighbour lists in first-seen order.
func (s Similar) Merged() []uint64 {
	seen := make(map[uint64]struct{}, len(s.Kkma)+len(s.Gpt))
	out := make([]uint64, 0, len(s.Kkma)+len(s.Gpt))
	for _, list := range [][]uint64{s.Kkma, s.Gpt} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// OutfitView is an outfit as served to one identity. IsLiked is computed per
// request and never stored.
type OutfitView struct {
	Outfit
	IsLiked bool `json:"is_liked"`
}

func NewOutfitView(o Outfit, liked bool) OutfitView {
	return OutfitView{Outfit: o, IsLiked: liked}
}
