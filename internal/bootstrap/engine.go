package bootstrap

import (
	"lecture-qa/internal/ai"
	"lecture-qa/internal/config"
	"lecture-qa/internal/embedding"
	"lecture-qa/internal/pkg/pdfextract"
	"lecture-qa/internal/rag"
)

// Engine is the in-memory question answering core, usable without any database.
type Engine struct {
	Extractor rag.PageExtractor
	Index     *rag.Index
	Pipeline  *rag.Pipeline
	Embedder  embedding.Encoder
	// DefaultCredential is used when a caller brings no LLM token of its own.
	DefaultCredential string
}

// NewEngine wires extraction, embedding and generation from cfg. A nil cache
// sends every query straight to the embedding provider.
func NewEngine(cfg *config.Config, cache embedding.VectorCache) *Engine {
	client := ai.NewOpenAICompatibleClient()

	baseURL, apiKey := cfg.EmbeddingEndpoint()
	var embedder embedding.Encoder = embedding.NewProvider(client, ai.EmbeddingConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   cfg.LLM.EmbeddingModel,
	}, cfg.LLM.EmbeddingBatchSize, cfg.LLM.EmbeddingConcurrency)
	if cache != nil {
		embedder = embedding.NewCachedProvider(embedder, cache)
	}

	extractor := pdfextract.NewExtractor()
	index := rag.NewIndex(extractor, embedder)
	generator := rag.NewGenerator(client, cfg.LLM.BaseURL)
	pipeline := rag.NewPipeline(rag.NewRetriever(embedder), generator, cfg.LLM.Model, cfg.Retrieval.TopK)

	return &Engine{
		Extractor:         extractor,
		Index:             index,
		Pipeline:          pipeline,
		Embedder:          embedder,
		DefaultCredential: cfg.LLM.APIKey,
	}
}
