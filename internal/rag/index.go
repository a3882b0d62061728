package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"lecture-qa/internal/model"
	"lecture-qa/internal/pkg/pdfextract"
)

// Upload is one raw document handed to ingestion.
type Upload struct {
	Name string
	Data []byte
}

// PageExtractor decodes one document into ordered pages.
type PageExtractor interface {
	ExtractPages(data []byte) ([]pdfextract.Page, error)
}

// Embedder maps text to vectors. The same model must serve ingestion and queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Corpus is one immutable generation of the index. Records[i] is described by Embeddings[i].
type Corpus struct {
	Records    []model.PageRecord
	Embeddings [][]float32
	BuiltAt    time.Time
}

var emptyCorpus = &Corpus{}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

func (c *Corpus) Ready() bool {
	return c.Len() > 0 && len(c.Records) == len(c.Embeddings)
}

// Documents lists distinct file names in upload order.
func (c *Corpus) Documents() []string {
	if c == nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, r := range c.Records {
		if !seen[r.FileName] {
			seen[r.FileName] = true
			names = append(names, r.FileName)
		}
	}
	return names
}

// SkippedUpload is an upload that could not be opened at all.
type SkippedUpload struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Uploads   int             `json:"uploads"`
	Documents int             `json:"documents"`
	Pages     int             `json:"pages"`
	Skipped   []SkippedUpload `json:"skipped,omitempty"`
}

// BuildCorpus extracts, filters and embeds uploads into a new corpus.
// It fails with ErrIngestion when nothing usable was extracted and with
// ErrEmbedding when the provider fails; no partial corpus is ever returned.
func BuildCorpus(ctx context.Context, extractor PageExtractor, embedder Embedder, uploads []Upload) (*Corpus, *IngestReport, error) {
	report := &IngestReport{Uploads: len(uploads)}

	extracted := make([][]pdfextract.Page, len(uploads))
	failures := make([]error, len(uploads))
	var g errgroup.Group
	for i := range uploads {
		g.Go(func() error {
			extracted[i], failures[i] = extractor.ExtractPages(uploads[i].Data)
			return nil
		})
	}
	_ = g.Wait()

	var records []model.PageRecord
	occurrences := make(map[string]int)
	for i, upload := range uploads {
		if failures[i] != nil {
			log.Printf("skip upload %q: %v", upload.Name, failures[i])
			report.Skipped = append(report.Skipped, SkippedUpload{Name: upload.Name, Reason: failures[i].Error()})
			continue
		}
		occurrences[upload.Name]++
		kept := 0
		for _, page := range extracted[i] {
			text := strings.TrimSpace(page.Text)
			if text == "" {
				continue
			}
			rec := model.NewPageRecord(upload.Name, page.Number, text).WithOccurrence(occurrences[upload.Name])
			records = append(records, rec)
			kept++
		}
		if kept > 0 {
			report.Documents++
		}
	}
	if len(records) == 0 {
		return nil, report, ErrIngestion
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].Text
	}
	embeddings, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, report, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(embeddings) != len(records) {
		return nil, report, fmt.Errorf("%w: got %d vectors for %d pages", ErrEmbedding, len(embeddings), len(records))
	}

	report.Pages = len(records)
	return &Corpus{
		Records:    records,
		Embeddings: embeddings,
		BuiltAt:    time.Now(),
	}, report, nil
}

// Index owns the current corpus. Readers take a snapshot; ingestion swaps in a
// fully built corpus, so a query never observes a partially indexed state.
type Index struct {
	extractor PageExtractor
	embedder  Embedder

	ingestMu sync.Mutex
	current  atomic.Pointer[Corpus]
}

func NewIndex(extractor PageExtractor, embedder Embedder) *Index {
	idx := &Index{extractor: extractor, embedder: embedder}
	idx.current.Store(emptyCorpus)
	return idx
}

// Ingest rebuilds the index from uploads. On error the previous corpus stays in place.
func (x *Index) Ingest(ctx context.Context, uploads []Upload) (*IngestReport, error) {
	x.ingestMu.Lock()
	defer x.ingestMu.Unlock()

	corpus, report, err := BuildCorpus(ctx, x.extractor, x.embedder, uploads)
	if err != nil {
		return report, err
	}
	x.current.Store(corpus)
	return report, nil
}

// Snapshot returns the current corpus; never nil.
func (x *Index) Snapshot() *Corpus {
	return x.current.Load()
}

func (x *Index) IsReady() bool {
	return x.Snapshot().Ready()
}

func (x *Index) Size() int {
	return x.Snapshot().Len()
}

// Reset drops the corpus and returns the index to the not-ready state.
func (x *Index) Reset() {
	x.ingestMu.Lock()
	defer x.ingestMu.Unlock()
	x.current.Store(emptyCorpus)
}
