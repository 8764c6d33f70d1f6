package postgres

import (
	"context"
	"fmt"
	"time"

	"outfitJourney/domain"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		DB: db,
	}
}

// RefreshLastAction stamps the session row. Rows are created elsewhere, so a
// missing row reports false rather than an error.
func (r *SessionRepository) RefreshLastAction(ctx context.Context, id domain.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.UserSession{}).
		Scopes(ScopeSession(id)).
		Update("expired_at", time.Now())
	if result.Error != nil {
		return false, fmt.Errorf("failed to refresh session: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
