package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bot-listas/internal/metrics"
)

// ErrUnavailable covers every way the classifier can be unreachable:
// missing credential, transport failure, timeout, non-success status or an
// empty completion. Callers never need to tell those apart; they all mean
// "use the heuristic path".
var ErrUnavailable = errors.New("classifier unavailable")

// ErrInvalid means the classifier answered but the payload failed
// validation. Recovered the same way as ErrUnavailable, counted separately.
var ErrInvalid = errors.New("classifier payload invalid")

// Client talks to the DeepSeek chat-completions API.
type Client struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
}

// Config holds DeepSeek client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient creates a DeepSeek client. No retries happen here; the
// fallback policy lives in the extraction callers.
func NewClient(cfg Config, logger *slog.Logger, metrics *metrics.Metrics) *Client {
	return &Client{
		logger:     logger.With("component", "nlu"),
		metrics:    metrics,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user exchange and returns the completion text.
// The call is bounded by the configured timeout; a request without an API
// key fails closed instead of silently returning an empty string.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		c.metrics.DeepSeekRequests.WithLabelValues("no_credential").Inc()
		return "", fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.DeepSeekRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.metrics.DeepSeekLatency.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.DeepSeekRequests.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.metrics.DeepSeekRequests.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	for _, choice := range parsed.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			c.metrics.DeepSeekRequests.WithLabelValues("success").Inc()
			return text, nil
		}
	}
	c.metrics.DeepSeekRequests.WithLabelValues("failed").Inc()
	return "", fmt.Errorf("%w: no completion text", ErrUnavailable)
}
