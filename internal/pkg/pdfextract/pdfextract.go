package pdfextract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var ErrEmptyDocument = errors.New("pdf document is empty")

// Page is the raw text of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Extractor decodes PDF bytes into ordered pages.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages opens data as a PDF and returns the text of each page in order.
// Pages that fail to decode are omitted; only a document that cannot be opened
// at all is reported as an error.
func (e *Extractor) ExtractPages(data []byte) ([]Page, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	pdfReader, err := openReader(data)
	if err != nil {
		return nil, err
	}

	total := pdfReader.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		text, ok := pageText(pdfReader, i)
		if !ok {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

func openReader(data []byte) (pdfReader *pdf.Reader, err error) {
	// The parser panics on some malformed inputs instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			pdfReader, err = nil, fmt.Errorf("open pdf failed: %v", r)
		}
	}()
	pdfReader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}
	return pdfReader, nil
}

func pageText(pdfReader *pdf.Reader, num int) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()
	page := pdfReader.Page(num)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}
	return text, true
}
