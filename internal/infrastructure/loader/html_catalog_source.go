package loader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PinCurator/internal/domain"
	"PinCurator/internal/feed"
	"PinCurator/internal/httpx"
)

// Selector defaults for catalog pages; overridable via feed options.
const (
	defaultItemSelector  = ".product"
	defaultNameSelector  = ".name"
	defaultPriceSelector = ".price"
	defaultDescSelector  = ".description"
	defaultIDAttr        = "data-product-id"
)

// HTMLCatalogSource scrapes a merchant catalog page into products for feeds
// that expose no tabular export.
type HTMLCatalogSource struct {
	client *http.Client
}

var _ feed.Source = (*HTMLCatalogSource)(nil)

// NewHTMLCatalogSource wires an HTTP client; a nil client gets a bounded timeout.
func NewHTMLCatalogSource(client *http.Client) *HTMLCatalogSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTMLCatalogSource{client: client}
}

// Name identifies the strategy inside the registry.
func (s *HTMLCatalogSource) Name() string {
	return "html"
}

// Fetch downloads the catalog page and extracts one product per item node.
// Items missing the mandatory fields are rejected; if no item yields a valid
// product, the union of missing fields surfaces as a SchemaError.
func (s *HTMLCatalogSource) Fetch(ctx context.Context, req feed.Request) ([]domain.Product, error) {
	body, status, err := httpx.Get(ctx, s.client, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: catalog returned status %d", domain.ErrSourceUnavailable, status)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse catalog page: %w", err)
	}

	var (
		products []domain.Product
		missing  = map[string]struct{}{}
	)

	doc.Find(option(req.Options, "itemSelector", defaultItemSelector)).Each(func(_ int, item *goquery.Selection) {
		product := domain.Product{
			ID:          strings.TrimSpace(item.AttrOr(option(req.Options, "idAttr", defaultIDAttr), "")),
			Name:        text(item, option(req.Options, "nameSelector", defaultNameSelector)),
			Description: text(item, option(req.Options, "descSelector", defaultDescSelector)),
			Price:       text(item, option(req.Options, "priceSelector", defaultPriceSelector)),
			ImageURL:    item.Find("img").First().AttrOr("src", ""),
			DeepLink:    item.Find("a").First().AttrOr("href", ""),
		}

		ok := true
		for column, value := range map[string]string{
			"product_id":     product.ID,
			"product_name":   product.Name,
			"description":    product.Description,
			"price":          product.Price,
			"product_image":  product.ImageURL,
			"awin_deep_link": product.DeepLink,
		} {
			if value == "" {
				missing[column] = struct{}{}
				ok = false
			}
		}
		if ok {
			products = append(products, product)
		}
	})

	if len(products) == 0 && len(missing) > 0 {
		columns := make([]string, 0, len(missing))
		for column := range missing {
			columns = append(columns, column)
		}
		sort.Strings(columns)
		return nil, &domain.SchemaError{Missing: columns}
	}

	return products, nil
}

func option(options map[string]string, key, fallback string) string {
	if value, ok := options[key]; ok && value != "" {
		return value
	}
	return fallback
}

func text(item *goquery.Selection, selector string) string {
	return strings.TrimSpace(item.Find(selector).First().Text())
}
