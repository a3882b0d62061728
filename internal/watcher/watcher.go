// Package watcher keeps the lecture index in sync with a directory of PDFs.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"lecture-qa/internal/rag"
)

// Ingester rebuilds the index from a full set of uploads.
type Ingester interface {
	IngestLectures(ctx context.Context, uploads []rag.Upload) (*rag.IngestReport, error)
	ResetLectures()
}

type LectureWatcher struct {
	dir      string
	debounce time.Duration
	ingester Ingester
	watcher  *fsnotify.Watcher
}

func New(dir string, debounce time.Duration, ingester Ingester) (*LectureWatcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch dir failed: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", dir)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher failed: %w", err)
	}
	return &LectureWatcher{
		dir:      dir,
		debounce: debounce,
		ingester: ingester,
		watcher:  w,
	}, nil
}

// Run ingests the directory once and again after every settled burst of PDF
// changes. It returns when ctx is done.
func (w *LectureWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s failed: %w", w.dir, err)
	}
	w.reload(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isPDF(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("lecture watcher error: %v", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *LectureWatcher) reload(ctx context.Context) {
	uploads, err := LoadDir(w.dir)
	if err != nil {
		log.Printf("read lecture dir %s failed: %v", w.dir, err)
		return
	}
	if len(uploads) == 0 {
		log.Printf("no lecture PDFs in %s, index cleared", w.dir)
		w.ingester.ResetLectures()
		return
	}
	if _, err := w.ingester.IngestLectures(ctx, uploads); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("re-ingest %s failed, keeping previous index: %v", w.dir, err)
	}
}

// LoadDir reads every PDF directly under dir, ordered by file name.
func LoadDir(dir string) ([]rag.Upload, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isPDF(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	uploads := make([]rag.Upload, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s failed: %w", name, err)
		}
		uploads = append(uploads, rag.Upload{Name: name, Data: data})
	}
	return uploads, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
