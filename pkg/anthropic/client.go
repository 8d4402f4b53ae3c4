// Package anthropic wraps the official anthropic-sdk-go behind the
// text-generation interface the orchestrator needs, one SDK client per API
// key so credential rotation works per request.
package anthropic

import (
	"context"
	"strings"
	"sync"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// KeyPrefix is the expected Anthropic API key prefix, checked at load time.
const KeyPrefix = "sk-ant-"

// Fixed sampling parameters. These are not tunable per request.
const (
	temperature = 0.4
	maxTokens   = 8000
	topP        = 0.9
	topK        = 40
)

// Client generates text via the Anthropic Messages API.
type Client struct {
	mu      sync.Mutex
	clients map[string]sdk.Client
	model   string
	limiter *rate.Limiter
}

// NewClient creates an Anthropic client for the given model. A positive rps
// enables client-side request pacing shared across all keys.
func NewClient(model string, rps float64) *Client {
	c := &Client{
		clients: make(map[string]sdk.Client),
		model:   model,
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// GenerateText issues one generation request with the given credential and
// returns the concatenated text blocks of the response.
func (c *Client) GenerateText(ctx context.Context, apiKey, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "anthropic: rate limit wait")
		}
	}

	client := c.clientFor(apiKey)

	msg, err := client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: sdk.Float(temperature),
		TopP:        sdk.Float(topP),
		TopK:        sdk.Int(topK),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", eris.New("anthropic: empty response")
	}
	return text, nil
}

func (c *Client) clientFor(apiKey string) sdk.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[apiKey]; ok {
		return client
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	c.clients[apiKey] = client
	return client
}
