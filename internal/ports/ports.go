package ports

import (
	"context"

	"PinCurator/internal/domain"
)

// FeedSource pulls the full product catalog from the configured feeds.
type FeedSource interface {
	Fetch(ctx context.Context) ([]domain.Product, error)
}

// Ledger is the durable record of already-published product ids.
// Record fails with domain.ErrDuplicateKey when the id is present.
type Ledger interface {
	Exists(ctx context.Context, productID string) (bool, error)
	Record(ctx context.Context, entry domain.LedgerEntry) error
}

// DescriptionGenerator produces the base marketing text for a product.
type DescriptionGenerator interface {
	Generate(ctx context.Context, product domain.Product) (string, error)
}

// ImageFormatter downloads and normalizes a product image, returning the
// path of the re-encoded file.
type ImageFormatter interface {
	Format(ctx context.Context, imageURL string) (string, error)
}

// Enricher turns a sampled product into a reviewable candidate.
type Enricher interface {
	Enrich(ctx context.Context, product domain.Product) (domain.Candidate, error)
}

// ImageHost uploads a formatted image and returns a publicly reachable URL.
type ImageHost interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Publisher pushes an approved candidate to the social platform and returns
// the platform-assigned pin reference.
type Publisher interface {
	Publish(ctx context.Context, candidate domain.Candidate) (string, error)
}
