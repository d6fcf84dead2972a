package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"PinCurator/internal/domain"
	"PinCurator/internal/ports"
)

// EnricherDeps wires the generators and image formatter into the enricher.
type EnricherDeps struct {
	Model    ports.DescriptionGenerator // optional; nil disables the model path
	Template ports.DescriptionGenerator
	Composer *Composer
	Images   ports.ImageFormatter
	Logger   *slog.Logger
}

// Enricher builds review candidates from sampled products. A model-based
// generation failure is recoverable and falls back to the template path;
// an image failure fails only the candidate being enriched.
type Enricher struct {
	model    ports.DescriptionGenerator
	template ports.DescriptionGenerator
	composer *Composer
	images   ports.ImageFormatter
	logger   *slog.Logger
}

var _ ports.Enricher = (*Enricher)(nil)

// NewEnricher constructs the enrichment stage.
func NewEnricher(deps EnricherDeps) *Enricher {
	return &Enricher{
		model:    deps.Model,
		template: deps.Template,
		composer: deps.Composer,
		images:   deps.Images,
		logger:   deps.Logger,
	}
}

// Enrich generates the description and formatted image for one product.
func (e *Enricher) Enrich(ctx context.Context, product domain.Product) (domain.Candidate, error) {
	var base string
	if e.model != nil {
		text, err := e.model.Generate(ctx, product)
		if err != nil {
			e.warn("model generation failed, using template", "product", product.ID, "error", err)
		} else {
			base = text
		}
	}
	if base == "" {
		text, err := e.template.Generate(ctx, product)
		if err != nil {
			return domain.Candidate{}, err
		}
		base = text
	}

	imagePath, err := e.images.Format(ctx, product.ImageURL)
	if err != nil {
		return domain.Candidate{}, err
	}

	return domain.Candidate{
		ID:          uuid.NewString(),
		Product:     product,
		Description: e.composer.Compose(base),
		ImagePath:   imagePath,
		State:       domain.StatePending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (e *Enricher) warn(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
