package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"PinCurator/internal/domain"
	"PinCurator/internal/ports"
	"PinCurator/internal/staging"
)

const defaultMaxPerRun = 5

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.FeedSource
	Ledger    ports.Ledger
	Enricher  ports.Enricher
	Publisher ports.Publisher
	Logger    *slog.Logger
	MaxPerRun int
	Rand      *rand.Rand
}

// Pipeline implements the intake and approval workflows.
type Pipeline struct {
	source    ports.FeedSource
	ledger    ports.Ledger
	enricher  ports.Enricher
	publisher ports.Publisher
	logger    *slog.Logger
	maxPerRun int

	// randMu guards rand: operator requests reach GenerateBatch concurrently
	// and *rand.Rand is not safe for concurrent use.
	randMu sync.Mutex
	rand   *rand.Rand
}

// IntakeStats distinguishes an empty feed (Fetched == 0) from a feed whose
// products have all been published already (Fetched > 0, Eligible == 0).
// Neither condition is an error.
type IntakeStats struct {
	Fetched  int
	Eligible int
	Sampled  int
	Staged   int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	maxPerRun := deps.MaxPerRun
	if maxPerRun <= 0 {
		maxPerRun = defaultMaxPerRun
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pipeline{
		source:    deps.Source,
		ledger:    deps.Ledger,
		enricher:  deps.Enricher,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		maxPerRun: maxPerRun,
		rand:      rng,
	}
}

// GenerateBatch fetches the feed, filters out already-published products,
// samples up to MaxPerRun of the remainder uniformly, enriches each and
// stages the results in a fresh review session. Per-candidate enrichment
// failures drop only that candidate; feed-level failures abort the run.
func (p *Pipeline) GenerateBatch(ctx context.Context) (*staging.Session, IntakeStats, error) {
	var stats IntakeStats

	products, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("fetch feed: %w", err)
	}
	stats.Fetched = len(products)

	eligible, err := p.filterUnposted(ctx, products)
	if err != nil {
		return nil, stats, err
	}
	stats.Eligible = len(eligible)

	batch := p.sample(eligible)
	stats.Sampled = len(batch)

	session := staging.NewSession()
	for _, product := range batch {
		candidate, err := p.enricher.Enrich(ctx, product)
		if err != nil {
			if errors.Is(err, domain.ErrImage) || errors.Is(err, domain.ErrGeneration) {
				p.warn("candidate dropped", "product", product.ID, "error", err)
				continue
			}
			return nil, stats, fmt.Errorf("enrich product %s: %w", product.ID, err)
		}
		session.Add(candidate)
		stats.Staged++
	}

	p.info("batch generated",
		"fetched", stats.Fetched,
		"eligible", stats.Eligible,
		"sampled", stats.Sampled,
		"staged", stats.Staged)
	return session, stats, nil
}

// Approve publishes a claimed candidate and records it in the ledger.
//
// Publish-then-record: the ledger entry needs the platform pin reference,
// which exists only after publish. A DuplicateKey on record means a
// concurrent approval of the same product won the race; it is logged and
// the candidate stays removed rather than crashing the run.
func (p *Pipeline) Approve(ctx context.Context, session *staging.Session, candidateID string) (domain.LedgerEntry, error) {
	candidate, err := session.Claim(candidateID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	pinRef, err := p.publisher.Publish(ctx, candidate)
	if err != nil {
		session.Release(candidateID)
		return domain.LedgerEntry{}, fmt.Errorf("publish candidate %s: %w", candidateID, err)
	}

	session.Remove(candidateID)

	entry := domain.LedgerEntry{
		ProductID: candidate.Product.ID,
		PostedAt:  time.Now().UTC(),
		PinRef:    pinRef,
	}
	if err := p.ledger.Record(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			p.warn("product already recorded", "product", candidate.Product.ID, "pin", pinRef)
			return entry, nil
		}
		return domain.LedgerEntry{}, fmt.Errorf("record product %s: %w", candidate.Product.ID, err)
	}

	p.info("candidate published", "product", candidate.Product.ID, "pin", pinRef)
	return entry, nil
}

// Reject discards a pending candidate from the session.
func (p *Pipeline) Reject(session *staging.Session, candidateID string) error {
	return session.Reject(candidateID)
}

func (p *Pipeline) filterUnposted(ctx context.Context, products []domain.Product) ([]domain.Product, error) {
	var eligible []domain.Product
	for _, product := range products {
		posted, err := p.ledger.Exists(ctx, product.ID)
		if err != nil {
			return nil, fmt.Errorf("check ledger for %s: %w", product.ID, err)
		}
		if !posted {
			eligible = append(eligible, product)
		}
	}
	return eligible, nil
}

// sample draws up to maxPerRun products uniformly without replacement, so
// the pipeline does not perpetually favor feed-order-early entries.
func (p *Pipeline) sample(products []domain.Product) []domain.Product {
	n := p.maxPerRun
	if len(products) < n {
		n = len(products)
	}
	if n == 0 {
		return nil
	}

	p.randMu.Lock()
	order := p.rand.Perm(len(products))
	p.randMu.Unlock()

	picked := make([]domain.Product, 0, n)
	for _, idx := range order[:n] {
		picked = append(picked, products[idx])
	}
	return picked
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
