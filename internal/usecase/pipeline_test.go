package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"

	"PinCurator/internal/domain"
)

type fakeSource struct {
	products []domain.Product
	err      error
}

func (s *fakeSource) Fetch(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

type fakeLedger struct {
	entries map[string]domain.LedgerEntry
}

func newFakeLedger(posted ...string) *fakeLedger {
	ledger := &fakeLedger{entries: map[string]domain.LedgerEntry{}}
	for _, id := range posted {
		ledger.entries[id] = domain.LedgerEntry{ProductID: id}
	}
	return ledger
}

func (l *fakeLedger) Exists(_ context.Context, productID string) (bool, error) {
	_, ok := l.entries[productID]
	return ok, nil
}

func (l *fakeLedger) Record(_ context.Context, entry domain.LedgerEntry) error {
	if _, ok := l.entries[entry.ProductID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, entry.ProductID)
	}
	l.entries[entry.ProductID] = entry
	return nil
}

type fakeEnricher struct {
	failFor map[string]error
}

func (e *fakeEnricher) Enrich(_ context.Context, product domain.Product) (domain.Candidate, error) {
	if err, ok := e.failFor[product.ID]; ok {
		return domain.Candidate{}, err
	}
	return domain.Candidate{
		ID:          uuid.NewString(),
		Product:     product,
		Description: "copy for " + product.Name,
		ImagePath:   "/tmp/" + product.ID + ".jpg",
		State:       domain.StatePending,
	}, nil
}

type fakePublisher struct {
	err   error
	calls int
}

func (p *fakePublisher) Publish(_ context.Context, candidate domain.Candidate) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "pin-" + candidate.Product.ID, nil
}

func products(ids ...string) []domain.Product {
	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		result = append(result, domain.Product{ID: id, Name: "Product " + id, ImageURL: "https://img/" + id})
	}
	return result
}

func newTestPipeline(source *fakeSource, ledger *fakeLedger, enricher *fakeEnricher, publisher *fakePublisher, maxPerRun int) *Pipeline {
	if enricher == nil {
		enricher = &fakeEnricher{}
	}
	if publisher == nil {
		publisher = &fakePublisher{}
	}
	return NewPipeline(PipelineDeps{
		Source:    source,
		Ledger:    ledger,
		Enricher:  enricher,
		Publisher: publisher,
		MaxPerRun: maxPerRun,
		Rand:      rand.New(rand.NewSource(42)),
	})
}

func TestGenerateBatchExcludesPostedProducts(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A", "B", "C", "D")}
	ledger := newFakeLedger("B", "D")
	pipeline := newTestPipeline(source, ledger, nil, nil, 10)

	session, stats, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("GenerateBatch returned error: %v", err)
	}

	if stats.Fetched != 4 || stats.Eligible != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	for _, candidate := range session.Pending() {
		if candidate.Product.ID == "B" || candidate.Product.ID == "D" {
			t.Fatalf("posted product %s staged again", candidate.Product.ID)
		}
	}
}

func TestGenerateBatchSamplesWithoutReplacement(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A", "B", "C", "D", "E", "F")}
	pipeline := newTestPipeline(source, newFakeLedger(), nil, nil, 4)

	session, stats, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("GenerateBatch returned error: %v", err)
	}

	if stats.Sampled != 4 || stats.Staged != 4 {
		t.Fatalf("expected 4 sampled and staged, got %+v", stats)
	}

	seen := map[string]bool{}
	for _, candidate := range session.Pending() {
		if seen[candidate.Product.ID] {
			t.Fatalf("product %s sampled twice", candidate.Product.ID)
		}
		seen[candidate.Product.ID] = true
	}
}

func TestGenerateBatchSampleSmallerThanMax(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A", "B")}
	pipeline := newTestPipeline(source, newFakeLedger(), nil, nil, 5)

	_, stats, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("GenerateBatch returned error: %v", err)
	}
	if stats.Sampled != 2 {
		t.Fatalf("expected all 2 eligible products, got %d", stats.Sampled)
	}
}

func TestGenerateBatchDropsFailedCandidates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A", "B", "C")}
	enricher := &fakeEnricher{failFor: map[string]error{
		"B": fmt.Errorf("%w: decode failed", domain.ErrImage),
	}}
	pipeline := newTestPipeline(source, newFakeLedger(), enricher, nil, 10)

	session, stats, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("a per-candidate failure must not abort the batch: %v", err)
	}
	if stats.Sampled != 3 || stats.Staged != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	for _, candidate := range session.Pending() {
		if candidate.Product.ID == "B" {
			t.Fatalf("failed candidate staged anyway")
		}
	}
}

func TestGenerateBatchFeedFailureAborts(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: fmt.Errorf("%w: timeout", domain.ErrSourceUnavailable)}
	pipeline := newTestPipeline(source, newFakeLedger(), nil, nil, 5)

	_, _, err := pipeline.GenerateBatch(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestEndToEndApproveOne(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A", "B", "C")}
	ledger := newFakeLedger()
	publisher := &fakePublisher{}
	pipeline := newTestPipeline(source, ledger, nil, publisher, 2)

	session, stats, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("GenerateBatch returned error: %v", err)
	}
	if stats.Staged != 2 {
		t.Fatalf("expected exactly 2 staged candidates, got %d", stats.Staged)
	}

	pending := session.Pending()
	entry, err := pipeline.Approve(context.Background(), session, pending[0].ID)
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}

	if entry.PinRef != "pin-"+pending[0].Product.ID {
		t.Fatalf("unexpected pin ref: %s", entry.PinRef)
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("ledger should gain exactly one entry, got %d", len(ledger.entries))
	}
	if remaining := session.Pending(); len(remaining) != 1 || remaining[0].ID != pending[1].ID {
		t.Fatalf("the other candidate should remain pending: %+v", remaining)
	}
}

func TestEndToEndAllAlreadyPosted(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A")}
	pipeline := newTestPipeline(source, newFakeLedger("A"), nil, nil, 5)

	session, stats, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("run must complete without error: %v", err)
	}
	if stats.Fetched != 1 || stats.Eligible != 0 || stats.Staged != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(session.Pending()) != 0 {
		t.Fatalf("no candidates should be staged")
	}
}

func TestApprovePublishFailureKeepsCandidate(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A")}
	publisher := &fakePublisher{err: fmt.Errorf("%w: token is missing", domain.ErrConfig)}
	pipeline := newTestPipeline(source, newFakeLedger(), nil, publisher, 5)

	session, _, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("GenerateBatch returned error: %v", err)
	}

	candidateID := session.Pending()[0].ID
	if _, err := pipeline.Approve(context.Background(), session, candidateID); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if len(session.Pending()) != 1 {
		t.Fatalf("candidate must stay pending after a failed publish")
	}
}

func TestApproveDuplicateKeyIsRecoverable(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A")}
	ledger := newFakeLedger()
	publisher := &fakePublisher{}
	pipeline := newTestPipeline(source, ledger, nil, publisher, 5)

	session, _, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("GenerateBatch returned error: %v", err)
	}
	candidateID := session.Pending()[0].ID

	// Another operator publishes the same product between claim and record.
	ledger.entries["A"] = domain.LedgerEntry{ProductID: "A", PinRef: "pin-other"}

	entry, err := pipeline.Approve(context.Background(), session, candidateID)
	if err != nil {
		t.Fatalf("DuplicateKey must be recoverable, got %v", err)
	}
	if entry.ProductID != "A" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if ledger.entries["A"].PinRef != "pin-other" {
		t.Fatalf("existing ledger entry must never be overwritten")
	}
}

func TestApproveUnknownCandidate(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A")}
	publisher := &fakePublisher{}
	pipeline := newTestPipeline(source, newFakeLedger(), nil, publisher, 5)

	session, _, err := pipeline.GenerateBatch(context.Background())
	if err != nil {
		t.Fatalf("GenerateBatch returned error: %v", err)
	}

	if _, err := pipeline.Approve(context.Background(), session, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if publisher.calls != 0 {
		t.Fatalf("publisher must not be called for unknown candidates")
	}
}

func TestGenerateBatchConcurrent(t *testing.T) {
	t.Parallel()

	source := &fakeSource{products: products("A", "B", "C", "D", "E", "F", "G", "H")}
	pipeline := newTestPipeline(source, newFakeLedger(), nil, nil, 3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, stats, err := pipeline.GenerateBatch(context.Background())
			if err != nil {
				t.Errorf("GenerateBatch returned error: %v", err)
				return
			}
			if stats.Sampled != 3 || session.Len() != 3 {
				t.Errorf("unexpected batch size: %+v", stats)
			}
		}()
	}
	wg.Wait()
}
