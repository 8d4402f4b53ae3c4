// Package gemini wraps the Google genai SDK behind the small text-generation
// interface the orchestrator needs. One SDK client is constructed (and
// cached) per API key so credential rotation works per request.
package gemini

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// KeyPrefix is the expected Gemini API key prefix, checked at load time.
const KeyPrefix = "AIzaSy"

// Fixed sampling parameters. These are not tunable per request.
const (
	temperature     = 0.4
	maxOutputTokens = 8000
	topP            = 0.9
	topK            = 40
)

// Client generates text via the Gemini API.
type Client struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
	model   string
	limiter *rate.Limiter
}

// NewClient creates a Gemini client for the given model. A positive rps
// enables client-side request pacing shared across all keys.
func NewClient(model string, rps float64) *Client {
	c := &Client{
		clients: make(map[string]*genai.Client),
		model:   model,
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// GenerateText issues one generation request with the given credential and
// returns the response text.
func (c *Client) GenerateText(ctx context.Context, apiKey, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "gemini: rate limit wait")
		}
	}

	client, err := c.clientFor(ctx, apiKey)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](temperature),
			MaxOutputTokens: maxOutputTokens,
			TopP:            genai.Ptr[float32](topP),
			TopK:            genai.Ptr[float32](topK),
			CandidateCount:  1,
		},
	)
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate content")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("gemini: empty response")
	}
	return text, nil
}

// clientFor returns the cached SDK client for a key, constructing it on
// first use.
func (c *Client) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[apiKey]; ok {
		return client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: new client")
	}
	c.clients[apiKey] = client
	return client, nil
}

// IsTransient reports whether err looks like a retryable API condition
// (rate limit, server error, network timeout). The orchestrator does not
// retry batches; this only informs log severity and key-error accounting.
func IsTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code/100 == 5
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
