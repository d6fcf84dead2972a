package images

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"PinCurator/internal/domain"
	"PinCurator/internal/httpx"
	"PinCurator/internal/ports"
)

// Formatter downloads a product image, constrains it to the pin bounding box
// and re-encodes it as JPEG under a collision-free name in the work dir.
// Any failure wraps domain.ErrImage and fails only the candidate in flight.
type Formatter struct {
	client    *http.Client
	workDir   string
	maxWidth  int
	maxHeight int
	quality   int
}

var _ ports.ImageFormatter = (*Formatter)(nil)

// NewFormatter wires an HTTP client; zero bounds fall back to the pin defaults.
func NewFormatter(client *http.Client, workDir string, maxWidth, maxHeight, quality int) *Formatter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxWidth <= 0 {
		maxWidth = 1000
	}
	if maxHeight <= 0 {
		maxHeight = 1500
	}
	if quality <= 0 {
		quality = 85
	}
	return &Formatter{
		client:    client,
		workDir:   workDir,
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		quality:   quality,
	}
}

// Format fetches, normalizes and persists one image, returning the file path.
// Images already inside the bounding box are never upscaled.
func (f *Formatter) Format(ctx context.Context, imageURL string) (string, error) {
	body, status, err := httpx.Get(ctx, f.client, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", domain.ErrImage, imageURL, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", domain.ErrImage, imageURL, status)
	}

	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", domain.ErrImage, imageURL, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > f.maxWidth || bounds.Dy() > f.maxHeight {
		img = imaging.Fit(img, f.maxWidth, f.maxHeight, imaging.Lanczos)
	}

	if err := os.MkdirAll(f.workDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create work dir: %v", domain.ErrImage, err)
	}

	// JPEG output normalizes every input (PNG, GIF, CMYK JPEG) to RGB.
	path := filepath.Join(f.workDir, uuid.NewString()+".jpg")
	if err := imaging.Save(img, path, imaging.JPEGQuality(f.quality)); err != nil {
		return "", fmt.Errorf("%w: save %s: %v", domain.ErrImage, path, err)
	}

	return path, nil
}
