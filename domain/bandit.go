package domain

import (
	"time"

	"gorm.io/datatypes"
)

// BanditArm is the persisted Beta posterior of one outfit for one identity.
type BanditArm struct {
	IdentityKey string    `gorm:"column:identity_key;primaryKey" json:"identity_key"`
	OutfitID    uint64    `gorm:"column:outfit_id;primaryKey;autoIncrement:false" json:"outfit_id"`
	Alpha       float64   `gorm:"column:alpha;not null" json:"alpha"`
	Beta        float64   `gorm:"column:beta;not null" json:"beta"`
	Pulls       int64     `gorm:"column:pulls;not null;default:0" json:"pulls"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (BanditArm) TableName() string {
	return "bandit_arms"
}

// BanditEvent is the audit row written for every applied reward.
type BanditEvent struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	IdentityKey string            `gorm:"column:identity_key;not null;index" json:"identity_key"`
	OutfitID    uint64            `gorm:"column:outfit_id;not null" json:"outfit_id"`
	Interaction string            `gorm:"column:interaction;not null" json:"interaction"`
	Reward      int               `gorm:"column:reward;not null" json:"reward"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Context     datatypes.JSONMap `gorm:"column:context" json:"context"`
}

func (BanditEvent) TableName() string {
	return "bandit_events"
}
