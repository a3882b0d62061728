package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
)

// Encoder is what CachedProvider wraps.
type Encoder interface {
	Model() string
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorCache stores query vectors by key.
type VectorCache interface {
	GetVector(ctx context.Context, key string) ([]float32, bool, error)
	SetVector(ctx context.Context, key string, vec []float32) error
}

// CachedProvider memoises query embeddings. Vectors are deterministic for a
// given model and text, so the model name is part of the key.
type CachedProvider struct {
	next  Encoder
	cache VectorCache
}

func NewCachedProvider(next Encoder, cache VectorCache) *CachedProvider {
	return &CachedProvider{next: next, cache: cache}
}

func (p *CachedProvider) Model() string {
	return p.next.Model()
}

func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(p.next.Model(), text)
	if vec, hit, err := p.cache.GetVector(ctx, key); err != nil {
		log.Printf("embedding cache get failed: %v", err)
	} else if hit {
		return vec, nil
	}

	vec, err := p.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := p.cache.SetVector(ctx, key, vec); err != nil {
		log.Printf("embedding cache set failed: %v", err)
	}
	return vec, nil
}

// EmbedBatch is not cached: ingestion rebuilds the whole corpus at once.
func (p *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return p.next.EmbedBatch(ctx, texts)
}

func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + model + ":" + hex.EncodeToString(sum[:])
}
