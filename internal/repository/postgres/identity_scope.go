package postgres

import (
	"outfitJourney/domain"

	"gorm.io/gorm"
)

// ScopeIdentity filters rows carrying user_id/session_id columns down to one
// identity. Members match on user_id alone; guests match their session with
// a NULL user_id so guest and member rows never mix.
func ScopeIdentity(id domain.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id.IsMember() {
			return db.Where("user_id = ?", *id.MemberID)
		}
		return db.Where("user_id IS NULL AND session_id = ?", id.SessionToken)
	}
}

// ScopeSession narrows ScopeIdentity to the identity's own session row.
func ScopeSession(id domain.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = ScopeIdentity(id)(db)
		if id.IsMember() {
			db = db.Where("session_id = ?", id.SessionToken)
		}
		return db
	}
}
