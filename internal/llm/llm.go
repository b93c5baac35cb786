// Package llm benchmarks hosted language models on standard
// identification. Each provider receives the problem text plus the
// grade-scoped taxonomy rendered as indented text, and must answer
// with a JSON array of standard codes.
package llm

import (
	"context"
)

// systemPrompt steers chat providers toward bare JSON answers. Gemini
// has no system slot in the generateContent payload and ignores it.
const systemPrompt = "Return only JSON arrays of CCSS codes."

// Request is one completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Provider is a hosted model that can answer completion requests.
type Provider interface {
	// Name returns the provider key used in prediction filenames and
	// result keys, e.g. "openai".
	Name() string

	// Model returns the configured model identifier.
	Model() string

	// Complete sends one request and returns the raw response text.
	Complete(ctx context.Context, req Request) (string, error)
}
