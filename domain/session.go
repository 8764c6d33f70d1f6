package domain

import "time"

// UserSession rows are created by the session layer; the feed only refreshes
// last_action_at.
type UserSession struct {
	ID           uint64    `gorm:"primaryKey"`
	SessionID    string    `gorm:"column:session_id;not null;index"`
	UserID       *uint64   `gorm:"column:user_id"`
	Bucket       *string   `gorm:"column:bucket"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	// stored in the legacy expired_at column
	LastActionAt time.Time `gorm:"column:expired_at"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
