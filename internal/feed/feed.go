package feed

import (
	"context"
	"fmt"

	"PinCurator/internal/domain"
)

// Request carries the parameters resolved from config for a single feed.
type Request struct {
	FeedName string
	URL      string
	Options  map[string]string
}

// Source is a single feed-loading strategy (csv download, html catalog, etc.).
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]domain.Product, error)
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("feed source %s is not registered", name)
}
