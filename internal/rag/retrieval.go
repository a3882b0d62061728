package rag

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lecture-qa/internal/model"
)

const (
	DefaultTopK = 3
	// OverrideScore is the score of a result selected by an explicit slide/page reference.
	OverrideScore = 1.0
)

var literalReferencePattern = regexp.MustCompile(`\b(?:slide|page)\s*(\d+)\b`)

// ParseLiteralReference finds the first "slide N" / "page N" in the query.
func ParseLiteralReference(query string) (int, bool) {
	m := literalReferencePattern.FindStringSubmatch(strings.ToLower(query))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// QueryEmbedder encodes a single query string.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Retriever struct {
	embedder QueryEmbedder
}

func NewRetriever(embedder QueryEmbedder) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve ranks corpus pages against the query.
//
// An explicit slide/page reference that matches a record wins outright with
// score 1.0. Otherwise every page is scored by cosine similarity and exactly
// min(topK, corpus size) results are returned, best first; there is no minimum
// score. Equal scores keep index order.
func (r *Retriever) Retrieve(ctx context.Context, query string, corpus *Corpus, topK int) ([]model.RetrievedDoc, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if corpus.Len() == 0 {
		return []model.RetrievedDoc{}, nil
	}

	if page, ok := ParseLiteralReference(query); ok {
		for _, rec := range corpus.Records {
			if rec.PageNumber == page {
				return []model.RetrievedDoc{toRetrieved(rec, OverrideScore)}, nil
			}
		}
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	order := make([]int, len(corpus.Records))
	scores := make([]float64, len(corpus.Records))
	for i := range corpus.Records {
		order[i] = i
		scores[i] = cosineSimilarity(queryVec, corpus.Embeddings[i])
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	docs := make([]model.RetrievedDoc, topK)
	for i := 0; i < topK; i++ {
		idx := order[i]
		docs[i] = toRetrieved(corpus.Records[idx], scores[idx])
	}
	return docs, nil
}

func toRetrieved(rec model.PageRecord, score float64) model.RetrievedDoc {
	return model.RetrievedDoc{
		Text:     rec.Text,
		Metadata: rec.Meta(),
		Score:    score,
	}
}

// cosineSimilarity returns 0 for mismatched or zero-length vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push parallel vectors just past the bounds.
	return math.Max(-1, math.Min(1, sim))
}
