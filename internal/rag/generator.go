package rag

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lecture-qa/internal/ai"
)

// Generation policy; not tunable per call.
const (
	MaxOutputTokens = 500
	Temperature     = 0.7
)

type GenerationKind string

const (
	GenerationAnswered     GenerationKind = "answered"
	GenerationRateLimited  GenerationKind = "rate_limited"
	GenerationUnauthorized GenerationKind = "unauthorized"
	GenerationFailed       GenerationKind = "failed"
)

const (
	rateLimitedText  = "⚠️ Rate limit reached. Please wait and try again."
	unauthorizedText = "❌ Invalid API token. Please check your token."
	failedTextPrefix = "❌ Error: "
)

// Generation is the tagged outcome of one completion request.
type Generation struct {
	Kind GenerationKind `json:"kind"`
	// Text is the model answer when Kind is GenerationAnswered.
	Text string `json:"text,omitempty"`
	// Message is the provider error for the failure kinds.
	Message string `json:"message,omitempty"`
}

func (g Generation) Failed() bool {
	return g.Kind != GenerationAnswered
}

// Display renders the generation as user-facing text.
func (g Generation) Display() string {
	switch g.Kind {
	case GenerationAnswered:
		return g.Text
	case GenerationRateLimited:
		return rateLimitedText
	case GenerationUnauthorized:
		return unauthorizedText
	default:
		return failedTextPrefix + g.Message
	}
}

// Completer is the chat-completion call used by Generator.
type Completer interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, opts ai.CompletionOptions) (string, error)
}

type Generator struct {
	client  Completer
	baseURL string
}

func NewGenerator(client Completer, baseURL string) *Generator {
	return &Generator{client: client, baseURL: baseURL}
}

// Generate sends prompt as a single user turn. Failures are classified, never returned.
func (g *Generator) Generate(ctx context.Context, credential, prompt, modelID string) Generation {
	answer, err := g.client.Complete(ctx,
		ai.ChatConfig{BaseURL: g.baseURL, APIKey: credential, Model: modelID},
		[]ai.ChatMessage{{Role: "user", Content: prompt}},
		ai.CompletionOptions{MaxTokens: MaxOutputTokens, Temperature: Temperature},
	)
	if err != nil {
		return classifyFailure(err)
	}
	return Generation{Kind: GenerationAnswered, Text: strings.TrimSpace(answer)}
}

func classifyFailure(err error) Generation {
	msg := err.Error()
	lower := strings.ToLower(msg)

	var statusErr *ai.StatusError
	status := 0
	if errors.As(err, &statusErr) {
		status = statusErr.StatusCode
	}

	switch {
	case status == http.StatusTooManyRequests || strings.Contains(lower, "rate limit") || strings.Contains(msg, "429"):
		return Generation{Kind: GenerationRateLimited, Message: msg}
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(lower, "authorization") || strings.Contains(msg, "401"):
		return Generation{Kind: GenerationUnauthorized, Message: msg}
	default:
		return Generation{Kind: GenerationFailed, Message: msg}
	}
}
