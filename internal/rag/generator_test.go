package rag

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"lecture-qa/internal/ai"
)

type fakeCompleter struct {
	answer   string
	err      error
	calls    int
	cfg      ai.ChatConfig
	messages []ai.ChatMessage
	opts     ai.CompletionOptions
}

func (f *fakeCompleter) Complete(_ context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, opts ai.CompletionOptions) (string, error) {
	f.calls++
	f.cfg, f.messages, f.opts = cfg, messages, opts
	return f.answer, f.err
}

func TestGenerate_Answered(t *testing.T) {
	client := &fakeCompleter{answer: "  Gradient descent minimises loss.\n"}
	gen := NewGenerator(client, "http://llm")

	out := gen.Generate(context.Background(), "hf_token", "PROMPT", "llama")

	assert.Equal(t, Generation{Kind: GenerationAnswered, Text: "Gradient descent minimises loss."}, out)
	assert.False(t, out.Failed())
	assert.Equal(t, "Gradient descent minimises loss.", out.Display())
	assert.Equal(t, ai.ChatConfig{BaseURL: "http://llm", APIKey: "hf_token", Model: "llama"}, client.cfg)
	assert.Equal(t, []ai.ChatMessage{{Role: "user", Content: "PROMPT"}}, client.messages)
	assert.Equal(t, ai.CompletionOptions{MaxTokens: 500, Temperature: 0.7}, client.opts)
}

func TestGenerate_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    GenerationKind
		display string
	}{
		{"status 429", &ai.StatusError{Op: "llm", StatusCode: http.StatusTooManyRequests}, GenerationRateLimited, "⚠️ Rate limit reached. Please wait and try again."},
		{"rate limit text", errors.New("Rate Limit exceeded for model"), GenerationRateLimited, "⚠️ Rate limit reached. Please wait and try again."},
		{"status 401", &ai.StatusError{Op: "llm", StatusCode: http.StatusUnauthorized}, GenerationUnauthorized, "❌ Invalid API token. Please check your token."},
		{"status 403", &ai.StatusError{Op: "llm", StatusCode: http.StatusForbidden}, GenerationUnauthorized, "❌ Invalid API token. Please check your token."},
		{"authorization text", errors.New("missing Authorization header"), GenerationUnauthorized, "❌ Invalid API token. Please check your token."},
		{"generic", errors.New("connection refused"), GenerationFailed, "❌ Error: connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewGenerator(&fakeCompleter{err: tt.err}, "").Generate(context.Background(), "", "p", "m")

			assert.Equal(t, tt.kind, out.Kind)
			assert.True(t, out.Failed())
			assert.Equal(t, tt.err.Error(), out.Message)
			assert.Equal(t, tt.display, out.Display())
		})
	}
}
