package domain

import "strconv"

// Identity is the resolved caller. When MemberID is set every lookup keys on
// it; otherwise lookups key on SessionToken with no member attached.
type Identity struct {
	MemberID     *uint64 `json:"member_id,omitempty"`
	SessionToken string  `json:"session_token"`
}

func (i Identity) IsMember() bool {
	return i.MemberID != nil
}

// Key is the canonical lookup key: "u:<member_id>" or "s:<session_token>".
func (i Identity) Key() string {
	if i.MemberID != nil {
		return "u:" + strconv.FormatUint(*i.MemberID, 10)
	}
	return "s:" + i.SessionToken
}

// LogUserID is the user id written to log sinks, 0 for guests.
func (i Identity) LogUserID() uint64 {
	if i.MemberID == nil {
		return 0
	}
	return *i.MemberID
}
