package pinterest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"PinCurator/internal/domain"
	"PinCurator/internal/ports"
)

// SimulatedPublisher logs the would-be pin and fabricates a reference. It is
// the default mode: real posting requires a publicly hosted image.
type SimulatedPublisher struct {
	boardID     string
	accessToken string
	logger      *slog.Logger
}

var _ ports.Publisher = (*SimulatedPublisher)(nil)

// NewSimulatedPublisher registers the destination board and credential.
func NewSimulatedPublisher(boardID, accessToken string, logger *slog.Logger) *SimulatedPublisher {
	return &SimulatedPublisher{
		boardID:     boardID,
		accessToken: accessToken,
		logger:      logger,
	}
}

// Publish validates configuration and returns a simulated pin reference.
func (p *SimulatedPublisher) Publish(_ context.Context, candidate domain.Candidate) (string, error) {
	if err := validateDestination(p.boardID, p.accessToken); err != nil {
		return "", err
	}

	pinRef := "simulated_" + uuid.NewString()
	if p.logger != nil {
		p.logger.Info("simulated pin created",
			"board", p.boardID,
			"product", candidate.Product.ID,
			"link", candidate.Product.DeepLink,
			"image", candidate.ImagePath,
			"pin", pinRef)
	}
	return pinRef, nil
}

// HostedPublisher uploads the formatted image to a public host and creates a
// real pin through the API.
type HostedPublisher struct {
	client      *Client
	host        ports.ImageHost
	boardID     string
	accessToken string
	logger      *slog.Logger
}

var _ ports.Publisher = (*HostedPublisher)(nil)

// NewHostedPublisher wires the API client with an image host.
func NewHostedPublisher(client *Client, host ports.ImageHost, boardID, accessToken string, logger *slog.Logger) *HostedPublisher {
	return &HostedPublisher{
		client:      client,
		host:        host,
		boardID:     boardID,
		accessToken: accessToken,
		logger:      logger,
	}
}

// Publish hosts the candidate image, creates the pin, and returns its id.
func (p *HostedPublisher) Publish(ctx context.Context, candidate domain.Candidate) (string, error) {
	if err := validateDestination(p.boardID, p.accessToken); err != nil {
		return "", err
	}

	imageURL, err := p.host.Upload(ctx, candidate.ImagePath)
	if err != nil {
		return "", fmt.Errorf("host image: %w", err)
	}

	pinRef, err := p.client.CreatePin(ctx, p.boardID,
		candidate.Product.Name, candidate.Description, candidate.Product.DeepLink, imageURL)
	if err != nil {
		return "", err
	}

	if p.logger != nil {
		p.logger.Info("pin created", "board", p.boardID, "product", candidate.Product.ID, "pin", pinRef)
	}
	return pinRef, nil
}

func validateDestination(boardID, accessToken string) error {
	if isPlaceholder(accessToken) {
		return fmt.Errorf("%w: access token is missing", domain.ErrConfig)
	}
	if isPlaceholder(boardID) {
		return fmt.Errorf("%w: board id is missing", domain.ErrConfig)
	}
	return nil
}

// isPlaceholder treats empty values and the "..." stubs shipped in sample
// configs as unconfigured.
func isPlaceholder(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.Contains(value, "...")
}
