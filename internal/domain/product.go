package domain

import "time"

// Product is a single row of the affiliate feed, read-only per run.
// ID must be stable across feed refreshes for dedup to be meaningful.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       string
	ImageURL    string
	DeepLink    string
}

// CandidateState enumerates review outcomes for a staged candidate.
type CandidateState string

const (
	StatePending  CandidateState = "pending"
	StateApproved CandidateState = "approved"
	StateRejected CandidateState = "rejected"
)

// Candidate pairs a product with generated copy and a formatted image while
// it awaits operator review. Candidates live only inside a review session
// and are lost on process restart.
type Candidate struct {
	ID          string
	Product     Product
	Description string
	ImagePath   string
	State       CandidateState
	CreatedAt   time.Time
}

// LedgerEntry records a published product. The ledger is append-only: one
// entry per product id for the life of the dataset, never updated or deleted.
type LedgerEntry struct {
	ProductID string
	PostedAt  time.Time
	PinRef    string
}
