package staging

import (
	"errors"
	"testing"

	"PinCurator/internal/domain"
)

func newCandidate(id string) domain.Candidate {
	return domain.Candidate{
		ID:      id,
		Product: domain.Product{ID: "prod-" + id},
		State:   domain.StatePending,
	}
}

func TestSessionPendingOrder(t *testing.T) {
	t.Parallel()

	session := NewSession()
	session.Add(newCandidate("a"))
	session.Add(newCandidate("b"))
	session.Add(newCandidate("c"))

	pending := session.Pending()
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(pending))
	}
	if pending[0].ID != "a" || pending[2].ID != "c" {
		t.Fatalf("staging order not preserved: %+v", pending)
	}
}

func TestSessionClaimIsExclusive(t *testing.T) {
	t.Parallel()

	session := NewSession()
	session.Add(newCandidate("a"))

	claimed, err := session.Claim("a")
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if claimed.Product.ID != "prod-a" {
		t.Fatalf("unexpected claim snapshot: %+v", claimed)
	}

	if _, err := session.Claim("a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second claim must fail with ErrNotFound, got %v", err)
	}

	if len(session.Pending()) != 0 {
		t.Fatalf("claimed candidate must leave the pending list")
	}
}

func TestSessionReleaseRestoresPending(t *testing.T) {
	t.Parallel()

	session := NewSession()
	session.Add(newCandidate("a"))

	if _, err := session.Claim("a"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	session.Release("a")

	if len(session.Pending()) != 1 {
		t.Fatalf("released candidate must return to pending")
	}
	if _, err := session.Claim("a"); err != nil {
		t.Fatalf("re-claim after release failed: %v", err)
	}
}

func TestSessionRejectUnknown(t *testing.T) {
	t.Parallel()

	session := NewSession()
	session.Add(newCandidate("a"))

	if err := session.Reject("a"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if err := session.Reject("a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("double reject must fail with ErrNotFound, got %v", err)
	}
	if err := session.Reject("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown id must fail with ErrNotFound, got %v", err)
	}
}
