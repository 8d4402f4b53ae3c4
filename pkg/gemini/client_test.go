package gemini

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(genai.APIError{Code: 429}))
	assert.True(t, IsTransient(genai.APIError{Code: 500}))
	assert.True(t, IsTransient(genai.APIError{Code: 503}))

	assert.False(t, IsTransient(genai.APIError{Code: 400}))
	assert.False(t, IsTransient(genai.APIError{Code: 401}))
	assert.False(t, IsTransient(eris.New("something else")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransient_Wrapped(t *testing.T) {
	err := eris.Wrap(genai.APIError{Code: 429}, "gemini: generate content")
	assert.True(t, IsTransient(err))
}

func TestNewClient_LimiterOnlyWhenPositive(t *testing.T) {
	assert.Nil(t, NewClient("gemini-1.5-pro", 0).limiter)
	assert.Nil(t, NewClient("gemini-1.5-pro", -1).limiter)
	assert.NotNil(t, NewClient("gemini-1.5-pro", 2).limiter)
}
