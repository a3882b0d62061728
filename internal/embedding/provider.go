package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lecture-qa/internal/ai"
)

const (
	defaultBatchSize   = 10 // hosted embedding APIs commonly cap the input array
	defaultConcurrency = 4
)

// Client is the subset of ai.OpenAICompatibleClient used for embeddings.
type Client interface {
	Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error)
}

// Provider maps text to vectors with one configured model.
// It is safe for concurrent use and holds no mutable state.
type Provider struct {
	client      Client
	cfg         ai.EmbeddingConfig
	batchSize   int
	concurrency int
}

func NewProvider(client Client, cfg ai.EmbeddingConfig, batchSize, concurrency int) *Provider {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Provider{
		client:      client,
		cfg:         cfg,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

func (p *Provider) Model() string {
	return p.cfg.Model
}

// Embed encodes a single query.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.client.Embed(ctx, p.cfg, text)
}

// EmbedBatch encodes texts as provider-sized batches sent concurrently.
// The result has one vector per input, in input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vecs, err := p.client.EmbedBatch(gctx, p.cfg, texts[start:end])
			if err != nil {
				return fmt.Errorf("embed batch [%d:%d] failed: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embed batch [%d:%d] returned %d vectors", start, end, len(vecs))
			}
			copy(result[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
