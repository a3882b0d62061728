package rag

import (
	"context"
	"errors"
	"strings"
	"sync"

	"lecture-qa/internal/pkg/pdfextract"
)

// fakeExtractor treats upload bytes as pages separated by form feeds.
// Bytes starting with "BROKEN" fail to open.
type fakeExtractor struct{}

func (fakeExtractor) ExtractPages(data []byte) ([]pdfextract.Page, error) {
	s := string(data)
	if strings.HasPrefix(s, "BROKEN") {
		return nil, errors.New("not a pdf")
	}
	parts := strings.Split(s, "\f")
	pages := make([]pdfextract.Page, len(parts))
	for i, p := range parts {
		pages[i] = pdfextract.Page{Number: i + 1, Text: p}
	}
	return pages, nil
}

func pdfOf(pages ...string) []byte {
	return []byte(strings.Join(pages, "\f"))
}

var vocabulary = []string{"gradient", "descent", "neural", "network", "loss", "course"}

// keywordEmbedder encodes text as vocabulary counts plus a constant bias
// dimension so no vector is ever zero.
type keywordEmbedder struct {
	mu          sync.Mutex
	batchCalls  int
	queryCalls  int
	batchErr    error
	queryErr    error
	lastBatchSz int
}

func (e *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(vocabulary)+1)
	for i, w := range vocabulary {
		vec[i] = float32(strings.Count(lower, w))
	}
	vec[len(vocabulary)] = 1
	return vec
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queryCalls++
	e.mu.Unlock()
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.lastBatchSz = len(texts)
	e.mu.Unlock()
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// lectureOne is the three-page lecture used across tests.
func lectureOne() Upload {
	return Upload{Name: "lec1.pdf", Data: pdfOf(
		"Welcome to the course",
		"gradient descent explained here",
		"neural network basics",
	)}
}

func buildIndex(uploads ...Upload) (*Index, *keywordEmbedder) {
	emb := &keywordEmbedder{}
	idx := NewIndex(fakeExtractor{}, emb)
	if _, err := idx.Ingest(context.Background(), uploads); err != nil {
		panic(err)
	}
	return idx, emb
}
