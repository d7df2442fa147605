// Package reranker provides pairwise relevance scorers for the rerank stage.
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// CohereReranker scores (query, text) pairs with Cohere's rerank API.
type CohereReranker struct {
	apiKey string
	model  string
	client *http.Client
}

type cohereRerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

type cohereRerankResponse struct {
	Results []cohereRerankResult `json:"results"`
}

type cohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// NewCohereReranker creates a new Cohere reranker. The API key is read from
// the given environment variable.
func NewCohereReranker(apiKeyEnv, model string) (*CohereReranker, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if model == "" {
		model = "rerank-v3.5"
	}
	return &CohereReranker{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Score returns the relevance of text to query in [0,1].
func (r *CohereReranker) Score(ctx context.Context, query, text string) (float64, error) {
	reqBody := cohereRerankRequest{
		Query:     query,
		Documents: []string{text},
		Model:     r.model,
		TopN:      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.cohere.com/v2/rerank", bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rerank API returned status %d: %s", resp.StatusCode, string(body))
	}

	var rerankResp cohereRerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(rerankResp.Results) == 0 {
		return 0, fmt.Errorf("rerank API returned no results")
	}

	score := rerankResp.Results[0].RelevanceScore
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}

	return score, nil
}

// ModelName returns the reranking model name.
func (r *CohereReranker) ModelName() string {
	return r.model
}
