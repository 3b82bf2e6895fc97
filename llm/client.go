package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"replydesk/logging"
)

// Message roles accepted by the provider.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one entry of the ordered prompt sequence.
type Message struct {
	Role    string
	Content string
}

// Request describes a single completion call. The API key travels with the
// request because it is user-supplied and may differ between calls.
type Request struct {
	Messages  []Message
	Model     string
	MaxTokens int
	APIKey    string
}

// Completer is the transport interface the orchestrator depends on.
// Tests substitute a fake; production uses *Client.
type Completer interface {
	Complete(ctx context.Context, req Request, failKind Kind) (string, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the OpenAI-compatible endpoint. Required.
	BaseURL string

	// HTTPClient carries TLS settings and the request timeout.
	// Defaults to a client with a 60s timeout.
	HTTPClient *http.Client

	// MaxRetries is the number of retries after a rate-limited attempt
	// (default 3). The total attempt count is MaxRetries+1. Pass -1 to
	// disable retries entirely.
	MaxRetries int

	// RetryDelay is the base delay; attempt n waits RetryDelay*n (default 1s).
	RetryDelay time.Duration

	// Sleep is injectable for tests. Defaults to a context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	// Logger for retry and failure events. Defaults to a nop logger.
	Logger *logging.Logger
}

// Client wraps exactly one outbound call per Complete invocation, retrying
// only on rate-limit statuses with linearly increasing delay. All other
// failures are translated immediately into the uniform APIError shape.
//
// The retry is an explicit bounded loop: no recursion, context-aware sleeps.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *logging.Logger
}

// NewClient creates a Client from config, applying defaults for zero values.
func NewClient(config ClientConfig) *Client {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	} else if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}
	return &Client{
		baseURL:    config.BaseURL,
		httpClient: config.HTTPClient,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		sleep:      config.Sleep,
		logger:     config.Logger,
	}
}

// Complete performs the chat completion described by req.
//
// failKind is the error kind used for non-rate-limit failures, so each
// operation surfaces its own category (generation / sentiment-analysis /
// length-adjustment) without inspecting transport details.
func (c *Client) Complete(ctx context.Context, req Request, failKind Kind) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", NewError(KindMissingAPIKey, 401, "no API key available", nil)
	}

	client := c.newProviderClient(req.APIKey)
	chatReq := buildChatRequest(req)

	for attempt := 1; ; attempt++ {
		resp, err := client.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			content := extractContent(resp)
			if content == "" {
				c.logger.Warn("provider returned no content",
					zap.String("model", req.Model),
				)
				return "", NewError(KindEmptyResponse, 500, "no content in provider response", nil)
			}
			return content, nil
		}

		status := statusOf(err)
		if status != http.StatusTooManyRequests {
			c.logger.Error("completion failed",
				zap.String("model", req.Model),
				zap.Int("status", status),
				zap.Error(err),
			)
			return "", NewError(failKind, status, "provider request failed", err)
		}

		if attempt > c.maxRetries {
			c.logger.Warn("rate limit retries exhausted",
				zap.Int("attempts", attempt),
			)
			return "", NewRateLimitError("provider rate limit exceeded", 0, err)
		}

		delay := c.retryDelay * time.Duration(attempt)
		c.logger.Warn("provider rate limited, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return "", NewRateLimitError("cancelled while waiting on rate limit", 0, sleepErr)
		}
	}
}

// newProviderClient builds a go-openai client bound to one API key.
// Construction is cheap; a fresh client per key keeps credentials from
// leaking between requests.
func (c *Client) newProviderClient(apiKey string) *openai.Client {
	clientConfig := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		clientConfig.BaseURL = c.baseURL
	}
	clientConfig.HTTPClient = c.httpClient
	return openai.NewClientWithConfig(clientConfig)
}

func buildChatRequest(req Request) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
}

// extractContent pulls the first choice's content, trimmed.
func extractContent(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// statusOf maps a go-openai error to its HTTP status code, defaulting to 500
// for transport-level failures that never got a response.
func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 500
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
