package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lecture-qa/internal/rag"
)

type recordingIngester struct {
	mu     sync.Mutex
	calls  [][]string
	resets int
}

func (r *recordingIngester) IngestLectures(_ context.Context, uploads []rag.Upload) (*rag.IngestReport, error) {
	names := make([]string, len(uploads))
	for i, u := range uploads {
		names[i] = u.Name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, names)
	return &rag.IngestReport{Uploads: len(uploads)}, nil
}

func (r *recordingIngester) ResetLectures() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func (r *recordingIngester) snapshot() ([][]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...), r.resets
}

func TestLoadDir_OnlyPDFsSorted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.PDF"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("n"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o700))

	uploads, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "a.PDF", uploads[0].Name)
	assert.Equal(t, "b.pdf", uploads[1].Name)
	assert.Equal(t, []byte("b"), uploads[1].Data)
}

func TestNew_RejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := New(path, 0, &recordingIngester{})
	assert.Error(t, err)
}

func TestRun_IngestsOnStartAndOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lec1.pdf"), []byte("one"), 0o600))

	ing := &recordingIngester{}
	w, err := New(dir, 50*time.Millisecond, ing)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		calls, _ := ing.snapshot()
		return len(calls) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lec2.pdf"), []byte("two"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600))

	require.Eventually(t, func() bool {
		calls, _ := ing.snapshot()
		return len(calls) >= 2 && len(calls[len(calls)-1]) == 2
	}, 3*time.Second, 20*time.Millisecond)

	calls, _ := ing.snapshot()
	assert.Equal(t, []string{"lec1.pdf"}, calls[0])
	assert.Equal(t, []string{"lec1.pdf", "lec2.pdf"}, calls[len(calls)-1])
}

func TestRun_EmptyDirResets(t *testing.T) {
	ing := &recordingIngester{}
	w, err := New(t.TempDir(), 20*time.Millisecond, ing)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, resets := ing.snapshot()
		return resets == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	calls, _ := ing.snapshot()
	assert.Empty(t, calls)
}
