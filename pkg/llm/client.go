// Package llm talks to an Azure OpenAI deployment over REST.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultAPIVersion = "2024-02-01"
	DefaultAttempts   = 6
	DefaultMinBackoff = time.Second
	DefaultMaxBackoff = 20 * time.Second
	// DefaultRate is the steady request rate per client.
	DefaultRate = 2.0
)

// Config describes one Azure OpenAI resource.
type Config struct {
	Endpoint            string
	Key                 string
	ChatDeployment      string
	EmbeddingDeployment string
	APIVersion          string

	// PromptTokenBudget caps prompt size for Navigate and Title.
	PromptTokenBudget int
	// RequestsPerSecond paces outgoing requests; zero uses DefaultRate.
	RequestsPerSecond float64
	// Counter counts prompt tokens; nil loads cl100k_base.
	Counter *TokenCounter
}

// Client is safe for concurrent use.
type Client struct {
	endpoint   string
	key        string
	chat       string
	embedding  string
	apiVersion string
	budget     int

	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     *TokenCounter
	logger     *slog.Logger

	attempts   int
	minBackoff time.Duration
	maxBackoff time.Duration
}

// New creates a client. A nil logger discards retry logs.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRate
	}
	if cfg.Counter == nil {
		cfg.Counter = NewTokenCounter()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		key:        cfg.Key,
		chat:       cfg.ChatDeployment,
		embedding:  cfg.EmbeddingDeployment,
		apiVersion: cfg.APIVersion,
		budget:     cfg.PromptTokenBudget,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		tokens:     cfg.Counter,
		logger:     logger,
		attempts:   DefaultAttempts,
		minBackoff: DefaultMinBackoff,
		maxBackoff: DefaultMaxBackoff,
	}
}

// SetBackoff overrides the retry schedule.
func (c *Client) SetBackoff(attempts int, minWait, maxWait time.Duration) {
	if attempts > 0 {
		c.attempts = attempts
	}
	c.minBackoff, c.maxBackoff = minWait, maxWait
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("azure openai error: %s (status: %d)", e.Message, e.Status)
}

func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	N           int           `json:"n"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends a single user message and returns the first choice.
func (c *Client) Chat(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	req := chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		N:           1,
	}
	var resp chatResponse
	if err := c.call(ctx, c.deploymentURL(c.chat, "chat/completions"), req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from chat deployment")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector of text, truncated to MaxEmbeddingInput
// runes.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	req := embeddingRequest{Input: []string{truncateRunes(text, MaxEmbeddingInput)}}
	if err := c.call(ctx, c.deploymentURL(c.embedding, "embeddings"), req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty response from embedding deployment")
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) deploymentURL(deployment, op string) string {
	return fmt.Sprintf("%s/openai/deployments/%s/%s?api-version=%s", c.endpoint, deployment, op, c.apiVersion)
}

// call posts body to url and decodes the answer into out, retrying
// transport failures, 429 and 5xx with randomized exponential backoff.
func (c *Client) call(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt)
			c.logger.Warn("Retrying azure openai request", "attempt", attempt+1, "wait", wait, "error", lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var retry bool
		retry, lastErr = c.do(ctx, url, payload, out)
		if lastErr == nil || !retry {
			return lastErr
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) do(ctx context.Context, url string, payload []byte, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != nil && er.Error.Message != "" {
			apiErr.Message = er.Error.Message
		}
		return apiErr.retryable(), apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return false, nil
}

// backoff picks a random wait between minBackoff and an exponentially
// growing ceiling capped at maxBackoff.
func (c *Client) backoff(attempt int) time.Duration {
	ceiling := c.minBackoff << (attempt - 1)
	if ceiling > c.maxBackoff || ceiling <= 0 {
		ceiling = c.maxBackoff
	}
	if ceiling <= c.minBackoff {
		return c.minBackoff
	}
	return c.minBackoff + rand.N(ceiling-c.minBackoff)
}
