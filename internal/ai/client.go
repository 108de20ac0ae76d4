// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/breaker"
	"github.com/tomtom215/lineup/internal/crawl"
	"github.com/tomtom215/lineup/internal/extract"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/recommend"
)

// Capability is everything the system asks of the generative AI service.
type Capability interface {
	extract.Planner
	crawl.FestivalGenerator
	recommend.Recommender
}

// Defaults for Config.
const (
	DefaultBaseURL    = "https://api.anthropic.com"
	DefaultAPIVersion = "2023-06-01"
	DefaultMaxTokens  = 8192
	DefaultTimeout    = 120 * time.Second

	serviceName = "ai"
)

// Config configures the Messages API client.
type Config struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
}

// Client calls the Anthropic Messages API. It implements Capability.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *breaker.Breaker
	logger     zerolog.Logger
}

var _ Capability = (*Client)(nil)

// NewClient creates a Client. A missing API key or model is a Configuration
// error. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, models.NewOpError(models.KindConfiguration, "ai", "", errors.New("api key is required"))
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, models.NewOpError(models.KindConfiguration, "ai", "", errors.New("model is required"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		breaker: breaker.New("ai-messages", breaker.Settings{
			// Only outages trip the breaker; bad model output does not.
			IsSuccessful: func(err error) bool {
				return err == nil || models.KindOf(err) != models.KindTransientFetch
			},
		}),
		logger: logger.With().Str("component", "ai").Str("model", cfg.Model).Logger(),
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one system+user exchange and returns the text reply.
func (c *Client) complete(ctx context.Context, op, source, system, user string) (string, error) {
	start := time.Now()
	logger := logging.Annotate(ctx, c.logger).With().Str("op", op).Logger()

	text, err := breaker.Do(c.breaker, func() (string, error) {
		return c.send(ctx, op, source, system, user, &logger)
	})
	metrics.RecordExternalRequest(serviceName, time.Since(start), err)

	if err != nil {
		if breaker.Rejected(err) {
			err = models.NewOpError(models.KindTransientFetch, op, source, fmt.Errorf("ai service unavailable: %w", err))
		}
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("AI request failed")
		return "", err
	}
	return text, nil
}

func (c *Client) send(ctx context.Context, op, source, system, user string, logger *zerolog.Logger) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", models.NewOpError(models.KindExtraction, op, source, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", models.NewOpError(models.KindConfiguration, op, source, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", c.cfg.APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewOpError(models.KindTransientFetch, op, source, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewOpError(models.KindTransientFetch, op, source, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", models.NewOpError(statusKind(resp.StatusCode), op, source, describeAPIError(resp.StatusCode, raw))
	}

	var out messagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", models.NewOpError(models.KindExtraction, op, source, fmt.Errorf("decode response: %w", err))
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	logger.Debug().
		Str("message_id", out.ID).
		Str("stop_reason", out.StopReason).
		Int("input_tokens", out.Usage.InputTokens).
		Int("output_tokens", out.Usage.OutputTokens).
		Msg("AI request completed")

	if sb.Len() == 0 {
		return "", models.NewOpError(models.KindExtraction, op, source, errors.New("empty model reply"))
	}
	if out.StopReason == "max_tokens" {
		logger.Warn().Msg("Model reply truncated at max_tokens")
	}
	return sb.String(), nil
}

// statusKind maps an API status to the error taxonomy.
func statusKind(status int) models.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		return models.KindTransientFetch
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return models.KindConfiguration
	default:
		return models.KindExtraction
	}
}

func describeAPIError(status int, raw []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("status %d: %s: %s", status, apiErr.Error.Type, apiErr.Error.Message)
	}
	snippet := strings.TrimSpace(string(raw))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Errorf("status %d: %s", status, snippet)
}

// decodeJSON decodes the first JSON value in a model reply, tolerating
// surrounding prose and Markdown code fences.
func decodeJSON(reply string, v any) error {
	start := strings.IndexAny(reply, "{[")
	if start < 0 {
		return errors.New("reply contains no JSON")
	}
	dec := json.NewDecoder(strings.NewReader(reply[start:]))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
