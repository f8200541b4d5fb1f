package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/edachat/backend/internal/domain/agent"
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("llm api key is not configured")

// Client is the text generation capability over an OpenAI-compatible chat endpoint.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	configured  bool
	logger      *slog.Logger
}

var _ agent.Generator = (*Client)(nil)

// NewClient creates a client from cfg.
func NewClient(cfg *config.LLMConfig) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		configured:  cfg.APIKey != "",
		logger:      log.NewModuleLogger("llm", "client"),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate renders prompt and sends it as a single user message.
func (c *Client) Generate(ctx context.Context, prompt agent.Prompt) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}
	text, err := prompt.Render()
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Debug("Sending LLM request",
		"prompt", prompt.Name,
		"model", c.model,
		"chars", len(text),
	)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.requestTemperature(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm request %s failed: %w", prompt.Name, normalizeError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm request %s returned no choices", prompt.Name)
	}

	c.logger.Info("LLM request completed",
		"prompt", prompt.Name,
		"model", c.model,
		"tokens", resp.Usage.TotalTokens,
		"duration", time.Since(start),
	)
	return resp.Choices[0].Message.Content, nil
}

// TestConnection sends a minimal request to verify the endpoint and key.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Generate(ctx, agent.Prompt{Name: "ping", Template: pingPrompt})
	return err
}

var pingPrompt = agent.NewPrompt("ping", `Respond with OK.`)

// requestTemperature maps zero to the smallest float so the field is not dropped by
// omitempty and the endpoint default is not used.
func (c *Client) requestTemperature() float32 {
	if c.temperature == 0 {
		return math.SmallestNonzeroFloat32
	}
	return c.temperature
}

func normalizeError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("status %d: %w", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return err
}
