package model

import (
	"fmt"
	"strings"
)

// PageRecord is one indexed page of an uploaded lecture document.
// Records are created during ingestion and never mutated afterwards.
type PageRecord struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SourceName string `json:"source_name"`
	FileName   string `json:"file_name"`
	PageNumber int    `json:"page_number"`
}

// SourceMeta identifies where a retrieved passage came from.
type SourceMeta struct {
	FileName   string `json:"file_name"`
	PageNumber int    `json:"page_number"`
	SourceName string `json:"source_name"`
}

// RetrievedDoc is one ranked retrieval result.
type RetrievedDoc struct {
	Text     string     `json:"text"`
	Metadata SourceMeta `json:"metadata"`
	Score    float64    `json:"score"`
}

func NewPageRecord(fileName string, pageNumber int, text string) PageRecord {
	return PageRecord{
		ID:         PageID(fileName, pageNumber),
		Text:       text,
		SourceName: SourceName(fileName),
		FileName:   fileName,
		PageNumber: pageNumber,
	}
}

func PageID(fileName string, pageNumber int) string {
	return fmt.Sprintf("%s_page_%d", fileName, pageNumber)
}

// WithOccurrence disambiguates a record whose file name already appeared earlier in
// the same ingestion batch. occurrence is 1-based; the first occurrence keeps its id.
func (p PageRecord) WithOccurrence(occurrence int) PageRecord {
	if occurrence > 1 {
		p.ID = fmt.Sprintf("%s#%d", p.ID, occurrence)
	}
	return p
}

// SourceName is the display name of a lecture: its file name without the .pdf extension.
func SourceName(fileName string) string {
	return strings.ReplaceAll(fileName, ".pdf", "")
}

func (p PageRecord) Meta() SourceMeta {
	return SourceMeta{
		FileName:   p.FileName,
		PageNumber: p.PageNumber,
		SourceName: p.SourceName,
	}
}

// Citation renders the meta as "lec1.pdf (Slide 2)".
func (m SourceMeta) Citation() string {
	return fmt.Sprintf("%s (Slide %d)", m.FileName, m.PageNumber)
}
