package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prompt2figma/designd/pkg/types"
)

// HTTPGenerator calls a remote wireframe generator service: POST {prompt}
// to the configured endpoint, expecting a JSON mapping back.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

// NewHTTP creates a generator client for the given endpoint.
func NewHTTP(url string) *HTTPGenerator {
	return &HTTPGenerator{
		url: url,
		// Per-call deadlines come from the caller's context.
		client: &http.Client{},
	}
}

// Generate implements Generator.
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (types.Wireframe, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var wireframe types.Wireframe
	if err := json.NewDecoder(resp.Body).Decode(&wireframe); err != nil {
		return nil, fmt.Errorf("generator returned invalid output: %w", err)
	}
	return wireframe, nil
}

// Static is a local development generator that produces a minimal container
// wireframe naming the prompt. It never fails.
type Static struct{}

// Generate implements Generator.
func (Static) Generate(_ context.Context, prompt string) (types.Wireframe, error) {
	return Placeholder(prompt, time.Now()), nil
}
