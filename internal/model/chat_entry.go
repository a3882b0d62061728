package model

import (
	"encoding/json"
	"time"
)

// ChatEntry is one answered question in a session's history.
// Sources and retrieved docs are stored as JSON text for portability.
type ChatEntry struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID     string    `gorm:"size:36;not null;index" json:"session_id"`
	Question      string    `gorm:"type:text;not null" json:"question"`
	Answer        string    `gorm:"type:text;not null" json:"answer"`
	Outcome       string    `gorm:"size:32;not null" json:"outcome"`
	SourcesJSON   string    `gorm:"column:sources;type:text" json:"-"`
	RetrievedJSON string    `gorm:"column:retrieved_docs;type:mediumtext" json:"-"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`

	Sources       []SourceMeta   `gorm:"-" json:"sources"`
	RetrievedDocs []RetrievedDoc `gorm:"-" json:"retrieved_docs"`
}

// Encode copies Sources and RetrievedDocs into their JSON columns.
func (e *ChatEntry) Encode() {
	e.SourcesJSON = marshalOrEmpty(e.Sources)
	e.RetrievedJSON = marshalOrEmpty(e.RetrievedDocs)
}

// Decode restores Sources and RetrievedDocs from their JSON columns; bad JSON yields empty slices.
func (e *ChatEntry) Decode() {
	e.Sources = nil
	e.RetrievedDocs = nil
	if e.SourcesJSON != "" {
		_ = json.Unmarshal([]byte(e.SourcesJSON), &e.Sources)
	}
	if e.RetrievedJSON != "" {
		_ = json.Unmarshal([]byte(e.RetrievedJSON), &e.RetrievedDocs)
	}
}

func marshalOrEmpty(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}
