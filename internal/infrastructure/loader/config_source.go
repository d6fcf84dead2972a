package loader

import (
	"context"
	"fmt"
	"log/slog"

	"PinCurator/internal/config"
	"PinCurator/internal/domain"
	"PinCurator/internal/feed"
	"PinCurator/internal/ports"
)

// ConfigSource implements FeedSource by resolving and executing the strategy
// each configured feed names.
type ConfigSource struct {
	registry *feed.Registry
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.FeedSource = (*ConfigSource)(nil)

// NewConfigSource wires the source registry with config-defined feeds.
func NewConfigSource(registry *feed.Registry, feeds []config.FeedConfig, logger *slog.Logger) *ConfigSource {
	return &ConfigSource{
		registry: registry,
		feeds:    feeds,
		logger:   logger,
	}
}

// Fetch iterates over configured feeds and aggregates their products,
// keeping the first occurrence of each product id within a run.
func (s *ConfigSource) Fetch(ctx context.Context) ([]domain.Product, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("feed registry is not configured")
	}

	s.debug("fetch feeds", "feeds", len(s.feeds))

	var (
		aggregated []domain.Product
		seen       = map[string]struct{}{}
	)
	for _, cfg := range s.feeds {
		source, err := s.registry.Resolve(cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", cfg.Name, err)
		}

		products, err := source.Fetch(ctx, feed.Request{
			FeedName: cfg.Name,
			URL:      cfg.URL,
			Options:  cfg.Options,
		})
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", cfg.Name, err)
		}

		for _, product := range products {
			if _, ok := seen[product.ID]; ok {
				continue
			}
			seen[product.ID] = struct{}{}
			aggregated = append(aggregated, product)
		}
		s.debug("feed produced products", "feed", cfg.Name, "count", len(products))
	}

	s.debug("feed fetch done", "total_products", len(aggregated))
	return aggregated, nil
}

func (s *ConfigSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
