package rag

import (
	"fmt"
	"strings"

	"lecture-qa/internal/model"
)

// MaxPassageRunes caps each passage in the prompt. Cut is a hard cut, not word-aligned.
const MaxPassageRunes = 500

const promptTemplate = `You are a helpful teaching assistant. Answer based ONLY on the lecture content below.

LECTURE CONTENT:
%s

QUESTION: %s

Provide a clear, educational answer based only on the content above.

ANSWER:`

// BuildPrompt renders the retrieved passages, in rank order, into the grounding
// template. It reports false when there is nothing to ground an answer in.
func BuildPrompt(query string, docs []model.RetrievedDoc) (string, bool) {
	if len(docs) == 0 {
		return "", false
	}

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("[%s, Slide %d]:\n%s", doc.Metadata.FileName, doc.Metadata.PageNumber, truncateRunes(doc.Text, MaxPassageRunes))
	}
	return fmt.Sprintf(promptTemplate, strings.Join(blocks, "\n\n"), query), true
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
