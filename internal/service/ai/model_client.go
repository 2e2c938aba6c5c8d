package ai

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

const modelType = "educational_lora"

// ModelClientConfig points the client at a hosted completion endpoint.
type ModelClientConfig struct {
	Endpoint    string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ModelClient calls the tutoring model over HTTP.
type ModelClient struct {
	cfg  ModelClientConfig
	http *http.Client
}

type modelRequest struct {
	Prompt      string       `json:"prompt"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
	ModelType   string       `json:"model_type"`
	Context     modelContext `json:"context"`
}

type modelContext struct {
	Subject    string `json:"subject"`
	Difficulty string `json:"difficulty"`
	AgeGroup   string `json:"ageGroup"`
	Language   string `json:"language"`
}

type modelResponse struct {
	GeneratedText string   `json:"generated_text"`
	Confidence    *float64 `json:"confidence"`
}

// NewModelClient builds a client. A nil httpClient gets one with cfg.Timeout.
func NewModelClient(cfg ModelClientConfig, httpClient *http.Client) *ModelClient {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &ModelClient{cfg: cfg, http: httpClient}
}

// Respond posts the educational prompt and decodes the generated text.
// Transport errors and non-2xx statuses wrap ErrNetworkFailure.
func (c *ModelClient) Respond(ctx context.Context, q Query) (*Reply, error) {
	q = q.withDefaults()

	body, err := json.Marshal(modelRequest{
		Prompt:      BuildPrompt(q),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		ModelType:   modelType,
		Context: modelContext{
			Subject:    string(q.Subject),
			Difficulty: string(q.Difficulty),
			AgeGroup:   string(q.AgeGroup),
			Language:   string(q.Language),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode model request: %w", err)
	}

	var decoded modelResponse
	if err := postJSON(ctx, c.http, c.cfg.Endpoint, c.cfg.APIKey, body, &decoded); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(decoded.GeneratedText)
	if text == "" {
		return nil, fmt.Errorf("%w: empty generated_text", ErrNetworkFailure)
	}

	confidence := defaultModelConfidence
	if decoded.Confidence != nil && *decoded.Confidence > 0 {
		confidence = *decoded.Confidence
	}
	return newReply(q, text, confidence, SourceModel), nil
}

// postJSON sends body with bearer auth and decodes a 2xx JSON response into
// out.
func postJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrNetworkFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrNetworkFailure, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrNetworkFailure, err)
	}
	return nil
}
