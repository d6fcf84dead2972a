package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for the pipeline. Batch-level failures (ErrSourceUnavailable,
// SchemaError, ErrConfig) abort a run; per-candidate failures (ErrImage,
// ErrGeneration) drop a single candidate from the batch.
var (
	ErrSourceUnavailable = errors.New("feed source unavailable")
	ErrGeneration        = errors.New("description generation failed")
	ErrImage             = errors.New("image processing failed")
	ErrConfig            = errors.New("publisher misconfigured")
	ErrDuplicateKey      = errors.New("product id already recorded")
	ErrNotFound          = errors.New("candidate not found")
)

// SchemaError reports required feed columns absent from the source. It is
// returned before any Product is produced, so a bad feed never yields
// partial results.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("feed is missing required columns: %s", strings.Join(e.Missing, ", "))
}
