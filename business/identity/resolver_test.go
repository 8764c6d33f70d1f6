package identity

import (
	"errors"
	"testing"

	"outfitJourney/domain"
)

func TestResolveGuest(t *testing.T) {
	id, err := Resolve(nil, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if id.IsMember() {
		t.Error("Expected guest identity")
	}
	if id.Key() != "s:sess-1" {
		t.Errorf("Expected key 's:sess-1', got '%s'", id.Key())
	}
	if id.LogUserID() != 0 {
		t.Errorf("Expected log user id 0, got %d", id.LogUserID())
	}
}

func TestResolveMember(t *testing.T) {
	member := uint64(42)
	id, err := Resolve(&member, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if !id.IsMember() {
		t.Error("Expected member identity")
	}
	if id.Key() != "u:42" {
		t.Errorf("Expected key 'u:42', got '%s'", id.Key())
	}
	if id.SessionToken != "sess-1" {
		t.Errorf("Expected session token kept, got '%s'", id.SessionToken)
	}

	// the resolved identity must not alias the caller's pointer
	member = 7
	if id.Key() != "u:42" {
		t.Errorf("Expected key unchanged after caller mutation, got '%s'", id.Key())
	}
}

func TestResolveMemberWithoutSession(t *testing.T) {
	member := uint64(3)
	id, err := Resolve(&member, "")
	if err != nil {
		t.Fatal(err)
	}
	if id.Key() != "u:3" {
		t.Errorf("Expected key 'u:3', got '%s'", id.Key())
	}
}

func TestResolveNobody(t *testing.T) {
	_, err := Resolve(nil, "  ")
	if !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Fatalf("Expected ErrInvalidIdentity, got %v", err)
	}
}

func TestResolveRejectsSeparatorsInToken(t *testing.T) {
	member := uint64(3)
	for _, token := range []string{"a,b", "a\nb", "x\r"} {
		if _, err := Resolve(nil, token); !errors.Is(err, domain.ErrInvalidIdentity) {
			t.Errorf("guest %q: expected ErrInvalidIdentity, got %v", token, err)
		}
		if _, err := Resolve(&member, token); !errors.Is(err, domain.ErrInvalidIdentity) {
			t.Errorf("member %q: expected ErrInvalidIdentity, got %v", token, err)
		}
	}
}

func TestGuestAndMemberKeysNeverCollide(t *testing.T) {
	member := uint64(1)
	m, _ := Resolve(&member, "1")
	g, _ := Resolve(nil, "1")
	if m.Key() == g.Key() {
		t.Fatalf("Expected distinct keys, both were '%s'", m.Key())
	}
}
