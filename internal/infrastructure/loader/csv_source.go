package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"PinCurator/internal/domain"
	"PinCurator/internal/feed"
	"PinCurator/internal/httpx"
)

// requiredColumns is the minimum schema an affiliate feed must provide.
var requiredColumns = []string{
	"product_id",
	"product_name",
	"description",
	"price",
	"product_image",
	"awin_deep_link",
}

// CSVSource downloads a tabular affiliate feed and parses it into products.
// Comma is the primary delimiter; a schema mismatch falls back to tab.
type CSVSource struct {
	client *http.Client
}

var _ feed.Source = (*CSVSource)(nil)

// NewCSVSource wires an HTTP client; a nil client gets a bounded timeout.
func NewCSVSource(client *http.Client) *CSVSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CSVSource{client: client}
}

// Name identifies the strategy inside the registry.
func (s *CSVSource) Name() string {
	return "csv"
}

// Fetch downloads and parses the feed. Schema validation happens on the
// header before any product is constructed.
func (s *CSVSource) Fetch(ctx context.Context, req feed.Request) ([]domain.Product, error) {
	raw, err := s.download(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	products, primaryErr := parseTable(raw, ',')
	if primaryErr == nil {
		return products, nil
	}

	var schemaErr *domain.SchemaError
	if !errors.As(primaryErr, &schemaErr) {
		return nil, primaryErr
	}

	// A tab-separated feed parsed with comma collapses into one column and
	// trips schema validation, so retry with the secondary delimiter.
	products, fallbackErr := parseTable(raw, '\t')
	if fallbackErr != nil {
		return nil, primaryErr
	}
	return products, nil
}

func (s *CSVSource) download(ctx context.Context, feedURL string) ([]byte, error) {
	body, status, err := httpx.Get(ctx, s.client, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: feed returned status %d", domain.ErrSourceUnavailable, status)
	}
	return body, nil
}

func parseTable(raw []byte, delimiter rune) ([]domain.Product, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.SchemaError{Missing: requiredColumns}
		}
		return nil, fmt.Errorf("read feed header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, column := range header {
		index[strings.TrimSpace(column)] = i
	}

	var missing []string
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Missing: missing}
	}

	var products []domain.Product
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feed row: %w", err)
		}

		field := func(column string) string {
			i := index[column]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		id := field("product_id")
		if id == "" {
			continue
		}

		products = append(products, domain.Product{
			ID:          id,
			Name:        field("product_name"),
			Description: field("description"),
			Price:       field("price"),
			ImageURL:    field("product_image"),
			DeepLink:    field("awin_deep_link"),
		})
	}

	return products, nil
}
