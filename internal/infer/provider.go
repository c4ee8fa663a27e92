// Package infer defines the live-inference boundary: a single fallible
// call shape the engine uses for decisions, taunts, and dialogue. The
// engine only requires that decide responses parse into the Decision
// schema; everything else about the provider is a transport detail.
package infer

import (
	"context"
	"errors"
	"time"
)

// Purpose labels what an inference call is for.
type Purpose string

const (
	PurposeDecide   Purpose = "decide"
	PurposeTaunt    Purpose = "generate-taunt"
	PurposeDialogue Purpose = "generate-dialogue"
)

// ErrMalformedDecision marks a decide response that did not parse into a
// complete Decision. The engine treats it like any other inference
// failure and falls back to local synthesis.
var ErrMalformedDecision = errors.New("response does not parse into a decision")

// Prompt is a structured inference request.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Result is the raw inference response.
type Result struct {
	Text     string        `json:"text"`
	Model    string        `json:"model,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Provider is the inference boundary. Implementations must honor ctx and
// enforce their own call timeout; the engine treats expiry identically to
// any other failure.
type Provider interface {
	Infer(ctx context.Context, purpose Purpose, prompt *Prompt) (*Result, error)
	Name() string
	Available() bool
}

// Config configures an HTTP-backed provider.
type Config struct {
	// Endpoint is the API base URL.
	Endpoint string

	// APIKey for authentication; empty means the provider reports
	// unavailable.
	APIKey string

	// Model is the model identifier to request.
	Model string

	// MaxTokens limits response length.
	MaxTokens int

	// Temperature controls randomness.
	Temperature float64

	// Timeout bounds every call. Mandatory; a zero value gets the
	// default.
	Timeout time.Duration
}

// DefaultConfig returns sensible provider defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:    "http://127.0.0.1:11434/v1",
		Model:       "llama3",
		MaxTokens:   512,
		Temperature: 0.8,
		Timeout:     10 * time.Second,
	}
}
