// internal/trip/genai/client.go
//
// Package genai wraps the generative model REST API behind a small interface.
// Every call is schema-constrained: the response schema is sent with the
// request and the returned JSON is validated against the same document, so
// model shape drift is caught here and nowhere else.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/EGDongAn/trip-planner-ai/internal/common/config"
	"github.com/EGDongAn/trip-planner-ai/internal/common/logger"
	"github.com/EGDongAn/trip-planner-ai/internal/common/metrics"
)

var (
	ErrEmptyResponse     = errors.New("model returned empty response")
	ErrMalformedResponse = errors.New("model returned malformed JSON")
	ErrTimeout           = errors.New("model request timed out")
)

// Client generates a JSON document matching the given response schema.
type Client interface {
	Generate(ctx context.Context, prompt string, responseSchema map[string]interface{}) (map[string]interface{}, error)
}

// HTTPClient talks to a Gemini-style generateContent endpoint.
type HTTPClient struct {
	cfg        config.GenAIConfig
	httpClient *http.Client
	logger     logger.Logger
}

func NewHTTPClient(cfg config.GenAIConfig, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
		logger: log,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string                 `json:"responseMimeType"`
	ResponseSchema   map[string]interface{} `json:"responseSchema"`
	Temperature      float64                `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends one schema-constrained prompt to the model and returns the
// parsed JSON document. There are no retries here; callers decide whether a
// failed stage is worth repeating.
func (c *HTTPClient) Generate(ctx context.Context, prompt string, responseSchema map[string]interface{}) (map[string]interface{}, error) {
	start := time.Now()

	result, err := c.generate(ctx, prompt, responseSchema)
	metrics.RecordGenAICall(time.Since(start).Seconds(), err == nil)
	if err != nil {
		c.logger.WithError(err).Error("model generation failed", map[string]interface{}{
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil, err
	}

	c.logger.Debug("model generation completed", map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result, nil
}

func (c *HTTPClient) generate(ctx context.Context, prompt string, responseSchema map[string]interface{}) (map[string]interface{}, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
			Temperature:      0.7,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GenAIEndpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout exceeded") {
			return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, config.GetDuration(c.cfg.Timeout), err)
		}
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	text := extractText(genResp)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := validateShape(result, responseSchema); err != nil {
		return nil, err
	}

	return result, nil
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// validateShape checks the parsed model output against the response schema.
func validateShape(doc map[string]interface{}, responseSchema map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(responseSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(details, "; "))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
