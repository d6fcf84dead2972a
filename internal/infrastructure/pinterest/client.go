package pinterest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Pinterest v5 REST API.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
}

// NewClient builds a client for the given API endpoint and credential.
func NewClient(endpoint, accessToken string) *Client {
	return &Client{
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// CreatePin posts a pin with a publicly hosted image and returns the
// platform-assigned pin id.
func (c *Client) CreatePin(ctx context.Context, boardID, title, description, link, imageURL string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"board_id":    boardID,
		"title":       title,
		"description": description,
		"link":        link,
		"media_source": map[string]string{
			"source_type": "image_url",
			"url":         imageURL,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal pin payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/pins", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create pin: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("pinterest error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("pinterest returned no pin id")
	}
	return created.ID, nil
}
