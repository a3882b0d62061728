package rag

import (
	"context"
	"strings"

	"lecture-qa/internal/model"
)

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	OutcomeAnswered         Outcome = "answered"
	OutcomeGenerationFailed Outcome = "generation_failed"
	OutcomeNoContext        Outcome = "no_context"
	OutcomeNoPrompt         Outcome = "no_prompt"
)

const (
	NoContextAnswer = "❌ No relevant information found in the lectures."
	NoPromptAnswer  = "❌ Could not build prompt from retrieved documents."
	sourcesHeader   = "\n\n📚 **Sources:** "
)

// Result is what a caller renders for one question.
type Result struct {
	Answer        string               `json:"answer"`
	Sources       []model.SourceMeta   `json:"sources"`
	RetrievedDocs []model.RetrievedDoc `json:"retrieved_docs"`
	Outcome       Outcome              `json:"outcome"`
	Generation    *Generation          `json:"generation,omitempty"`
}

// AnswerGenerator produces a classified answer for a prompt.
type AnswerGenerator interface {
	Generate(ctx context.Context, credential, prompt, modelID string) Generation
}

// Pipeline runs retrieve → prompt → generate for one question. It keeps no
// per-query state; the corpus is passed in on every call.
type Pipeline struct {
	retriever *Retriever
	generator AnswerGenerator
	modelID   string
	topK      int
}

func NewPipeline(retriever *Retriever, generator AnswerGenerator, modelID string, topK int) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{
		retriever: retriever,
		generator: generator,
		modelID:   modelID,
		topK:      topK,
	}
}

// Run answers question from corpus. Retrieval faults are returned as errors;
// every other terminal state resolves to a displayable Result.
func (p *Pipeline) Run(ctx context.Context, question string, corpus *Corpus, credential string) (*Result, error) {
	docs, err := p.retriever.Retrieve(ctx, question, corpus, p.topK)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return emptyResult(NoContextAnswer, OutcomeNoContext), nil
	}

	prompt, ok := BuildPrompt(question, docs)
	if !ok {
		return emptyResult(NoPromptAnswer, OutcomeNoPrompt), nil
	}

	generation := p.generator.Generate(ctx, credential, prompt, p.modelID)
	outcome := OutcomeAnswered
	if generation.Failed() {
		outcome = OutcomeGenerationFailed
	}

	sources := make([]model.SourceMeta, len(docs))
	citations := make([]string, len(docs))
	for i, doc := range docs {
		sources[i] = doc.Metadata
		citations[i] = doc.Metadata.Citation()
	}

	return &Result{
		Answer:        generation.Display() + sourcesHeader + strings.Join(citations, ", "),
		Sources:       sources,
		RetrievedDocs: docs,
		Outcome:       outcome,
		Generation:    &generation,
	}, nil
}

func emptyResult(answer string, outcome Outcome) *Result {
	return &Result{
		Answer:        answer,
		Sources:       []model.SourceMeta{},
		RetrievedDocs: []model.RetrievedDoc{},
		Outcome:       outcome,
	}
}
