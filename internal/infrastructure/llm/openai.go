package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"PinCurator/internal/config"
	"PinCurator/internal/domain"
	"PinCurator/internal/ports"
)

// OpenAIGenerator implements DescriptionGenerator backed by OpenAI-compatible
// chat-completion APIs. Every failure wraps domain.ErrGeneration so callers
// can fall back to the template path.
type OpenAIGenerator struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.DescriptionGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a client from configuration.
func NewOpenAIGenerator(cfg config.OpenAIConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Generate asks the model for a short lifestyle-framed product description.
func (g *OpenAIGenerator) Generate(ctx context.Context, product domain.Product) (string, error) {
	if g.apiKey == "" || g.endpoint == "" || g.model == "" {
		return "", fmt.Errorf("%w: openai client misconfigured", domain.ErrGeneration)
	}

	prompt := fmt.Sprintf(
		"Write a catchy, 2-sentence Pinterest description for a product called '%s', described as '%s...'. It costs %s. Frame it in a lifestyle context.",
		product.Name, truncate(product.Description, 100), product.Price)

	body, err := json.Marshal(map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal payload: %v", domain.ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: new request: %v", domain.ErrGeneration, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: api error %s: %s", domain.ErrGeneration, resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrGeneration, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGeneration)
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGeneration)
	}
	return text, nil
}

// truncate caps s at max runes, never splitting a multi-byte character.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
