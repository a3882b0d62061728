package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lecture-qa/internal/model"
	"lecture-qa/internal/pkg/jwtutil"
	"lecture-qa/internal/rag"
)

type fakeIndex struct {
	corpus  *rag.Corpus
	uploads []rag.Upload
	err     error
}

func (f *fakeIndex) Ingest(_ context.Context, uploads []rag.Upload) (*rag.IngestReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploads = uploads
	return &rag.IngestReport{Uploads: len(uploads), Documents: 1, Pages: 2}, nil
}

func (f *fakeIndex) Snapshot() *rag.Corpus {
	return f.corpus
}

func (f *fakeIndex) Reset() {
	f.corpus = &rag.Corpus{}
}

type fakeAnswerer struct {
	credential string
	question   string
	err        error
}

func (f *fakeAnswerer) Run(_ context.Context, question string, _ *rag.Corpus, credential string) (*rag.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.question, f.credential = question, credential
	meta := model.SourceMeta{FileName: "lec1.pdf", PageNumber: 2, SourceName: "lec1"}
	return &rag.Result{
		Answer:        "gradient descent\n\n📚 **Sources:** lec1.pdf (Slide 2)",
		Sources:       []model.SourceMeta{meta},
		RetrievedDocs: []model.RetrievedDoc{{Text: "page two", Metadata: meta, Score: 1}},
		Outcome:       rag.OutcomeAnswered,
	}, nil
}

type memorySessions struct {
	sessions map[string]*model.Session
}

func (m *memorySessions) Create(session *model.Session) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *memorySessions) GetByID(id string) (*model.Session, error) {
	return m.sessions[id], nil
}

type memoryEntries struct {
	entries []model.ChatEntry
	lists   int
}

func (m *memoryEntries) ListBySessionID(sessionID string, limit int) ([]model.ChatEntry, error) {
	m.lists++
	var out []model.ChatEntry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return trimEntries(out, limit), nil
}

func (m *memoryEntries) CountBySessionID(sessionID string) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (m *memoryEntries) DeleteBySessionID(sessionID string) error {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// syncPublisher stores entries immediately, standing in for the queue and worker.
type syncPublisher struct {
	store *memoryEntries
	err   error
}

func (p *syncPublisher) Publish(_ context.Context, entry model.ChatEntry) error {
	if p.err != nil {
		return p.err
	}
	p.store.entries = append(p.store.entries, entry)
	return nil
}

type memoryHistory struct {
	cached map[string][]model.ChatEntry
	dirty  map[string]bool
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{cached: map[string][]model.ChatEntry{}, dirty: map[string]bool{}}
}

func (h *memoryHistory) GetHistory(_ context.Context, id string) ([]model.ChatEntry, bool, error) {
	entries, ok := h.cached[id]
	return entries, ok, nil
}

func (h *memoryHistory) SetHistory(_ context.Context, id string, entries []model.ChatEntry) error {
	h.cached[id] = entries
	return nil
}

func (h *memoryHistory) DeleteHistory(_ context.Context, id string) error {
	delete(h.cached, id)
	return nil
}

func (h *memoryHistory) MarkDirty(_ context.Context, id string) error {
	h.dirty[id] = true
	return nil
}

func (h *memoryHistory) IsDirty(_ context.Context, id string) (bool, error) {
	return h.dirty[id], nil
}

type fixture struct {
	svc       *LectureService
	index     *fakeIndex
	answerer  *fakeAnswerer
	entries   *memoryEntries
	publisher *syncPublisher
	history   *memoryHistory
}

func newFixture() *fixture {
	f := &fixture{
		index:    &fakeIndex{corpus: &rag.Corpus{}},
		answerer: &fakeAnswerer{},
		entries:  &memoryEntries{},
		history:  newMemoryHistory(),
	}
	f.publisher = &syncPublisher{store: f.entries}
	f.svc = NewLectureService(
		f.index,
		f.answerer,
		&memorySessions{sessions: map[string]*model.Session{}},
		f.entries,
		f.publisher,
		f.history,
		LectureServiceConfig{TokenSecret: "secret", TokenTTL: time.Hour, DefaultCredential: "hf_default"},
	)
	return f
}

func (f *fixture) session(t *testing.T) string {
	t.Helper()
	grant, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)
	return grant.Session.ID
}

func TestCreateSession_IssuesToken(t *testing.T) {
	f := newFixture()

	grant, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, grant.Session.ID)

	claims, err := jwtutil.ParseToken("secret", grant.Token)
	require.NoError(t, err)
	assert.Equal(t, grant.Session.ID, claims.SessionID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), grant.ExpiresAt, 5*time.Second)
}

func TestIngestLectures(t *testing.T) {
	f := newFixture()

	_, err := f.svc.IngestLectures(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoUploads)

	report, err := f.svc.IngestLectures(context.Background(), []rag.Upload{{Name: "lec1.pdf", Data: []byte("x")}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Uploads)
	assert.Len(t, f.index.uploads, 1)
}

func TestResetLectures(t *testing.T) {
	f := newFixture()
	f.index.corpus = &rag.Corpus{
		Records:    []model.PageRecord{model.NewPageRecord("lec1.pdf", 1, "a")},
		Embeddings: [][]float32{{1}},
	}

	f.svc.ResetLectures()

	report, err := f.svc.Status(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, report.Ready)
	assert.Equal(t, 0, report.Pages)
}

func TestIngestLectures_PropagatesError(t *testing.T) {
	f := newFixture()
	f.index.err = rag.ErrIngestion

	_, err := f.svc.IngestLectures(context.Background(), []rag.Upload{{Name: "a.pdf"}})
	assert.ErrorIs(t, err, rag.ErrIngestion)
}

func TestAsk_RejectsEmptyQuestion(t *testing.T) {
	f := newFixture()
	id := f.session(t)

	_, err := f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAsk_UnknownSession(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Ask(context.Background(), AskInput{SessionID: "nope", Question: "q"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAsk_CredentialFallback(t *testing.T) {
	f := newFixture()
	id := f.session(t)

	_, err := f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: " what is slide 2 "})
	require.NoError(t, err)
	assert.Equal(t, "hf_default", f.answerer.credential)
	assert.Equal(t, "what is slide 2", f.answerer.question)

	_, err = f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: "q", Credential: "hf_user"})
	require.NoError(t, err)
	assert.Equal(t, "hf_user", f.answerer.credential)
}

func TestAsk_PublishesEntryAndMarksDirty(t *testing.T) {
	f := newFixture()
	id := f.session(t)
	f.history.cached[id] = []model.ChatEntry{}

	res, err := f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: "what is slide 2"})
	require.NoError(t, err)

	assert.True(t, res.Persisted)
	assert.Equal(t, rag.OutcomeAnswered, res.Outcome)
	require.Len(t, f.entries.entries, 1)
	entry := f.entries.entries[0]
	assert.Equal(t, res.EntryID, entry.ID)
	assert.Equal(t, "answered", entry.Outcome)
	assert.Equal(t, res.Answer, entry.Answer)
	require.Len(t, entry.Sources, 1)
	assert.True(t, f.history.dirty[id])
	_, stillCached := f.history.cached[id]
	assert.False(t, stillCached)
}

func TestAsk_PublishFailureStillAnswers(t *testing.T) {
	f := newFixture()
	id := f.session(t)
	f.publisher.err = errors.New("broker down")

	res, err := f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: "q"})
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.NotEmpty(t, res.Answer)
}

func TestAsk_PipelineError(t *testing.T) {
	f := newFixture()
	id := f.session(t)
	f.answerer.err = rag.ErrEmbedding

	_, err := f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: "q"})
	assert.ErrorIs(t, err, rag.ErrEmbedding)
	assert.Empty(t, f.entries.entries)
}

func TestHistory_CacheThenStore(t *testing.T) {
	f := newFixture()
	id := f.session(t)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: "q"})
		require.NoError(t, err)
	}

	// Dirty sessions bypass the cache and are not repopulated.
	entries, err := f.svc.History(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, f.entries.lists)
	_, cached := f.history.cached[id]
	assert.False(t, cached)

	f.history.dirty[id] = false
	_, err = f.svc.History(context.Background(), id, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, f.entries.lists)
	assert.Len(t, f.history.cached[id], 3)

	entries, err = f.svc.History(context.Background(), id, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, f.entries.lists)
	require.Len(t, entries, 1)
	assert.Equal(t, f.entries.entries[2].ID, entries[0].ID)
}

func TestHistory_EmptySessionReturnsEmptySlice(t *testing.T) {
	f := newFixture()
	id := f.session(t)

	entries, err := f.svc.History(context.Background(), id, 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestClearHistory(t *testing.T) {
	f := newFixture()
	id := f.session(t)
	_, err := f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: "q"})
	require.NoError(t, err)
	f.history.cached[id] = f.entries.entries

	require.NoError(t, f.svc.ClearHistory(context.Background(), id))
	assert.Empty(t, f.entries.entries)
	assert.NotContains(t, f.history.cached, id)

	assert.ErrorIs(t, f.svc.ClearHistory(context.Background(), "missing"), ErrSessionNotFound)
}

func TestStatus(t *testing.T) {
	f := newFixture()
	id := f.session(t)

	report, err := f.svc.Status(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, report.Ready)
	assert.Equal(t, []string{}, report.Documents)
	assert.Nil(t, report.BuiltAt)

	built := time.Now()
	f.index.corpus = &rag.Corpus{
		Records: []model.PageRecord{
			model.NewPageRecord("lec1.pdf", 1, "a"),
			model.NewPageRecord("lec2.pdf", 1, "b"),
		},
		Embeddings: [][]float32{{1}, {1}},
		BuiltAt:    built,
	}
	_, err = f.svc.Ask(context.Background(), AskInput{SessionID: id, Question: "q"})
	require.NoError(t, err)

	report, err = f.svc.Status(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, report.Ready)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, []string{"lec1.pdf", "lec2.pdf"}, report.Documents)
	require.NotNil(t, report.BuiltAt)
	assert.True(t, built.Equal(*report.BuiltAt))
	assert.Equal(t, int64(1), report.QuestionsAsked)
}
