package enrich

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"PinCurator/internal/domain"
	"PinCurator/internal/ports"
)

// TemplateGenerator produces the base description from a fixed template set.
// It never fails, which makes it the fallback path when the model-based
// generator is unavailable.
type TemplateGenerator struct {
	// rngMu guards rng: one generator serves concurrent batch runs.
	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ ports.DescriptionGenerator = (*TemplateGenerator)(nil)

// NewTemplateGenerator accepts an optional rand source for deterministic tests.
func NewTemplateGenerator(rng *rand.Rand) *TemplateGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TemplateGenerator{rng: rng}
}

// Generate picks one of the copy templates and interpolates product fields.
func (g *TemplateGenerator) Generate(_ context.Context, product domain.Product) (string, error) {
	templates := []string{
		fmt.Sprintf("Loving this %s! Perfect for my home. 🛍️", product.Name),
		fmt.Sprintf("Just found this amazing %s. What do you think?", product.Name),
		fmt.Sprintf("Great deal alert! 🚨 %s for only %s!", product.Name, product.Price),
	}
	g.rngMu.Lock()
	pick := g.rng.Intn(len(templates))
	g.rngMu.Unlock()
	return templates[pick], nil
}
