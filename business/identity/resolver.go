package identity

import (
	"fmt"
	"strings"

	"outfitJourney/domain"
)

// Resolve builds the canonical identity from the optional member id and the
// session token. A member id wins; a guest must carry a session token.
// Tokens are written into comma separated event logs, so separators are
// rejected.
func Resolve(memberID *uint64, sessionToken string) (domain.Identity, error) {
	sessionToken = strings.TrimSpace(sessionToken)

	if strings.ContainsAny(sessionToken, ",\r\n") {
		return domain.Identity{}, fmt.Errorf("%w: session token contains a separator", domain.ErrInvalidIdentity)
	}

	if memberID == nil && sessionToken == "" {
		return domain.Identity{}, domain.ErrInvalidIdentity
	}

	id := domain.Identity{SessionToken: sessionToken}
	if memberID != nil {
		m := *memberID
		id.MemberID = &m
	}

	return id, nil
}
