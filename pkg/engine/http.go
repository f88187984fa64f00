package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient implements Client against an analysis service that wraps a
// UCI engine behind an HTTP API.
type HTTPClient struct {
	baseURL string
	depth   int
	client  *http.Client
}

// NewHTTPClient creates an engine client for the given analysis service.
// baseURL is typically "http://localhost:9010".
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		depth:   20,
		client: &http.Client{
			Timeout: 300 * time.Second, // full-game analysis is slow
		},
	}
}

// SetDepth overrides the engine search depth (default 20).
func (c *HTTPClient) SetDepth(depth int) {
	c.depth = depth
}

type analyzeRequest struct {
	GameID string `json:"game_id"`
	PGN    string `json:"pgn"`
	Depth  int    `json:"depth"`
}

type analyzeResponse struct {
	Evaluations []Evaluation `json:"evaluations"`
	Complete    bool         `json:"complete"`
	Error       string       `json:"error,omitempty"`
}

// Evaluate submits the game for analysis and returns the evaluation stream.
// If the service reports a mid-game engine failure, the evaluations it did
// produce are returned together with an error wrapping ErrUnavailable.
func (c *HTTPClient) Evaluate(ctx context.Context, game Game) ([]Evaluation, error) {
	reqBody := analyzeRequest{
		GameID: game.ID,
		PGN:    game.PGN,
		Depth:  c.depth,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/analyze", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var apiResp analyzeResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analyze response: %w", err)
	}

	if err := ValidateSequence(apiResp.Evaluations); err != nil {
		return nil, err
	}

	if !apiResp.Complete {
		// Engine died mid-game. Whatever it evaluated is still usable.
		return apiResp.Evaluations, fmt.Errorf("%w: %s", ErrUnavailable, apiResp.Error)
	}

	return apiResp.Evaluations, nil
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)
