package rag

import "errors"

var (
	// ErrIngestion means no upload produced any non-empty page.
	ErrIngestion = errors.New("no content extracted")
	// ErrEmbedding wraps any embedding provider failure during ingest or query.
	ErrEmbedding = errors.New("embedding provider failed")
)
