package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"lecture-qa/internal/model"
	"lecture-qa/internal/pkg/jwtutil"
	"lecture-qa/internal/rag"
)

type LectureIndex interface {
	Ingest(ctx context.Context, uploads []rag.Upload) (*rag.IngestReport, error)
	Snapshot() *rag.Corpus
	Reset()
}

type QuestionAnswerer interface {
	Run(ctx context.Context, question string, corpus *rag.Corpus, credential string) (*rag.Result, error)
}

type SessionStore interface {
	Create(session *model.Session) error
	GetByID(sessionID string) (*model.Session, error)
}

type ChatEntryStore interface {
	ListBySessionID(sessionID string, limit int) ([]model.ChatEntry, error)
	CountBySessionID(sessionID string) (int64, error)
	DeleteBySessionID(sessionID string) error
}

type ChatEntryPublisher interface {
	Publish(ctx context.Context, entry model.ChatEntry) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatEntry, bool, error)
	SetHistory(ctx context.Context, sessionID string, entries []model.ChatEntry) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

type LectureServiceConfig struct {
	TokenSecret       string
	TokenTTL          time.Duration
	DefaultCredential string
}

type LectureService struct {
	index     LectureIndex
	answerer  QuestionAnswerer
	sessions  SessionStore
	entries   ChatEntryStore
	publisher ChatEntryPublisher
	history   HistoryCache
	cfg       LectureServiceConfig
}

type SessionGrant struct {
	Session   *model.Session `json:"session"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type AskInput struct {
	SessionID  string
	Question   string
	Credential string
}

type AskResult struct {
	EntryID string `json:"entry_id"`
	*rag.Result
	// Persisted is false when the entry could not be queued for storage.
	Persisted bool `json:"persisted"`
}

type StatusReport struct {
	Ready          bool       `json:"ready"`
	Documents      []string   `json:"documents"`
	Pages          int        `json:"pages"`
	BuiltAt        *time.Time `json:"built_at,omitempty"`
	QuestionsAsked int64      `json:"questions_asked"`
}

func NewLectureService(
	index LectureIndex,
	answerer QuestionAnswerer,
	sessions SessionStore,
	entries ChatEntryStore,
	publisher ChatEntryPublisher,
	history HistoryCache,
	cfg LectureServiceConfig,
) *LectureService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &LectureService{
		index:     index,
		answerer:  answerer,
		sessions:  sessions,
		entries:   entries,
		publisher: publisher,
		history:   history,
		cfg:       cfg,
	}
}

func (s *LectureService) CreateSession(ctx context.Context) (*SessionGrant, error) {
	session := &model.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	token, err := jwtutil.GenerateToken(s.cfg.TokenSecret, session.ID, s.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &SessionGrant{
		Session:   session,
		Token:     token,
		ExpiresAt: session.CreatedAt.Add(s.cfg.TokenTTL),
	}, nil
}

// IngestLectures replaces the whole index with the given uploads.
func (s *LectureService) IngestLectures(ctx context.Context, uploads []rag.Upload) (*rag.IngestReport, error) {
	if len(uploads) == 0 {
		return nil, ErrNoUploads
	}
	report, err := s.index.Ingest(ctx, uploads)
	if err != nil {
		return nil, err
	}
	log.Printf("lectures ingested: %d documents, %d pages, %d skipped",
		report.Documents, report.Pages, len(report.Skipped))
	return report, nil
}

// ResetLectures drops the index; questions get the no-context answer until the next ingest.
func (s *LectureService) ResetLectures() {
	s.index.Reset()
	log.Printf("lecture index reset")
}

func (s *LectureService) Status(ctx context.Context, sessionID string) (*StatusReport, error) {
	corpus := s.index.Snapshot()
	report := &StatusReport{
		Ready:     corpus.Ready(),
		Documents: corpus.Documents(),
		Pages:     corpus.Len(),
	}
	if report.Documents == nil {
		report.Documents = []string{}
	}
	if corpus != nil && !corpus.BuiltAt.IsZero() {
		builtAt := corpus.BuiltAt
		report.BuiltAt = &builtAt
	}

	if sessionID != "" {
		count, err := s.entries.CountBySessionID(sessionID)
		if err != nil {
			return nil, err
		}
		report.QuestionsAsked = count
	}
	return report, nil
}

func (s *LectureService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" || input.SessionID == "" {
		return nil, ErrInvalidInput
	}
	if err := s.requireSession(input.SessionID); err != nil {
		return nil, err
	}

	credential := strings.TrimSpace(input.Credential)
	if credential == "" {
		credential = s.cfg.DefaultCredential
	}

	result, err := s.answerer.Run(ctx, question, s.index.Snapshot(), credential)
	if err != nil {
		return nil, err
	}

	entry := model.ChatEntry{
		ID:            uuid.NewString(),
		SessionID:     input.SessionID,
		Question:      question,
		Answer:        result.Answer,
		Outcome:       string(result.Outcome),
		Sources:       result.Sources,
		RetrievedDocs: result.RetrievedDocs,
		CreatedAt:     time.Now(),
	}

	if s.history != nil {
		_ = s.history.MarkDirty(ctx, input.SessionID)
		_ = s.history.DeleteHistory(ctx, input.SessionID)
	}

	persisted := true
	if s.publisher == nil {
		persisted = false
	} else if err := s.publisher.Publish(ctx, entry); err != nil {
		log.Printf("enqueue chat entry %s failed: %v", entry.ID, err)
		persisted = false
	}

	return &AskResult{
		EntryID:   entry.ID,
		Result:    result,
		Persisted: persisted,
	}, nil
}

func (s *LectureService) History(ctx context.Context, sessionID string, limit int) ([]model.ChatEntry, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	if err := s.requireSession(sessionID); err != nil {
		return nil, err
	}

	if s.history != nil {
		dirty, err := s.history.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.history.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimEntries(cached, limit), nil
			}
		}
	}

	entries, err := s.entries.ListBySessionID(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.ChatEntry{}
	}
	if s.history != nil {
		if dirty, dirtyErr := s.history.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.history.SetHistory(ctx, sessionID, entries)
		}
	}
	return entries, nil
}

func (s *LectureService) ClearHistory(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}
	if err := s.requireSession(sessionID); err != nil {
		return err
	}
	if err := s.entries.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if s.history != nil {
		_ = s.history.DeleteHistory(ctx, sessionID)
	}
	return nil
}

func (s *LectureService) requireSession(sessionID string) error {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return nil
}

func trimEntries(entries []model.ChatEntry, limit int) []model.ChatEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[len(entries)-limit:]
}
