package staging

import (
	"fmt"
	"sync"

	"PinCurator/internal/domain"
)

// Session holds one generated batch of candidates for operator review. It is
// created at batch-generation time and discarded when the next batch is
// generated or the process exits; candidates are not persisted.
//
// All methods are safe for concurrent operator actions. Claim/Release/Remove
// form the mutual-exclusion boundary that keeps a double approval from
// publishing the same candidate twice.
type Session struct {
	mu         sync.Mutex
	candidates map[string]*domain.Candidate
	order      []string
}

// NewSession builds an empty review session.
func NewSession() *Session {
	return &Session{candidates: map[string]*domain.Candidate{}}
}

// Add stages a candidate in pending state.
func (s *Session) Add(candidate domain.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate.State = domain.StatePending
	s.candidates[candidate.ID] = &candidate
	s.order = append(s.order, candidate.ID)
}

// Pending returns the candidates still awaiting review, in staging order.
func (s *Session) Pending() []domain.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]domain.Candidate, 0, len(s.candidates))
	for _, id := range s.order {
		if candidate, ok := s.candidates[id]; ok && candidate.State == domain.StatePending {
			pending = append(pending, *candidate)
		}
	}
	return pending
}

// Claim transitions a pending candidate to approved and returns a snapshot.
// A second claim of the same candidate fails with ErrNotFound, so concurrent
// approvals settle on exactly one winner.
func (s *Session) Claim(id string) (domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate, ok := s.candidates[id]
	if !ok || candidate.State != domain.StatePending {
		return domain.Candidate{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	candidate.State = domain.StateApproved
	return *candidate, nil
}

// Release returns a claimed candidate to pending after a failed publish.
func (s *Session) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if candidate, ok := s.candidates[id]; ok && candidate.State == domain.StateApproved {
		candidate.State = domain.StatePending
	}
}

// Remove drops a settled candidate from the session.
func (s *Session) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.candidates, id)
}

// Reject discards a pending candidate. Unknown or already-settled ids fail
// with ErrNotFound.
func (s *Session) Reject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate, ok := s.candidates[id]
	if !ok || candidate.State != domain.StatePending {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	candidate.State = domain.StateRejected
	delete(s.candidates, id)
	return nil
}

// Len reports how many candidates remain in the session.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.candidates)
}
