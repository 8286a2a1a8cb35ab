// Package llm wraps the OpenAI chat-completions API as the generative-text
// capability of the assistant. The pipeline treats it as an opaque
// text-in/text-out function that may fail or time out; retries with backoff
// happen here so the caller sees at most one error per invocation.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-4o-mini"

	systemPrompt = "You are a helpful real-estate leasing assistant. Answer concisely " +
		"using only the context provided. If the context is insufficient, ask a " +
		"clarifying question instead of inventing listings."
)

// ErrNoChoices indicates the API returned an empty completion.
var ErrNoChoices = errors.New("llm: completion returned no choices")

// Client calls the OpenAI API with bounded retries. It is safe for
// concurrent use.
type Client struct {
	api        *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	maxTokens  int
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(c *Client) {
		if strings.TrimSpace(model) != "" {
			c.model = model
		}
	}
}

// WithMaxRetries bounds the number of retry attempts after the first call.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithBaseURL points the client at an alternate API endpoint (proxies,
// compatible local servers, tests).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if strings.TrimSpace(url) != "" {
			c.baseURL = url
		}
	}
}

// New constructs a Client for the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		model:      DefaultModel,
		maxRetries: 2,
		retryDelay: time.Second,
		maxTokens:  400,
	}
	for _, o := range opts {
		o(c)
	}
	cfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

// Generate produces a reply for the given prompt context. The context's
// deadline bounds the whole call including retries.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = ErrNoChoices
			continue
		}
		out := strings.TrimSpace(resp.Choices[0].Message.Content)
		if out == "" {
			lastErr = ErrNoChoices
			continue
		}
		return out, nil
	}
	return "", lastErr
}
