// Package threadimport extracts email thread text from uploaded documents
// so a thread can be imported instead of pasted.
//
// importer.go implements the Importer molecule over the ledongthuc/pdf
// library and composes:
//   - tokens.Estimate for token estimates of the imported text
//   - sanitize.Strip to cap the thread at the configured limit
package threadimport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"replydesk/sanitize"
	"replydesk/tokens"
)

// ErrNoContent is returned when a document contains no extractable text.
var ErrNoContent = errors.New("no text content found in document")

// ErrEmptyInput is returned when no document bytes are provided.
var ErrEmptyInput = errors.New("empty document provided")

// ImportResult contains the imported thread text and extraction metadata.
type ImportResult struct {
	// Thread is the sanitized, capped thread text ready for the responder.
	Thread string

	// TotalPages is the number of pages in the document.
	TotalPages int

	// ExtractedPages is the number of pages that yielded text.
	ExtractedPages int

	// SkippedPages is the number of pages that were empty or failed.
	SkippedPages int

	// EstimatedTokens is the estimated token count of the capped thread.
	EstimatedTokens int

	// Truncated reports whether the extracted text exceeded the thread cap.
	Truncated bool
}

// ImporterConfig holds configuration for document import.
type ImporterConfig struct {
	// MaxThreadChars caps the imported thread. Defaults to the sanitize
	// thread limit when zero.
	MaxThreadChars int

	// PageSeparator is inserted between page texts. Defaults to "\n\n".
	PageSeparator string

	// MaxPages limits extraction to the first N pages (0 for all pages).
	MaxPages int
}

// DefaultImporterConfig returns sensible default configuration.
func DefaultImporterConfig() ImporterConfig {
	return ImporterConfig{
		MaxThreadChars: sanitize.ThreadMaxChars,
		PageSeparator:  "\n\n",
		MaxPages:       0,
	}
}

// Importer extracts thread text from PDF documents.
type Importer struct {
	config ImporterConfig
}

// NewImporter creates an Importer with the given configuration.
func NewImporter(config ImporterConfig) *Importer {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n\n"
	}
	if config.MaxThreadChars <= 0 {
		config.MaxThreadChars = sanitize.ThreadMaxChars
	}
	return &Importer{config: config}
}

// NewDefaultImporter creates an Importer with default configuration.
func NewDefaultImporter() *Importer {
	return NewImporter(DefaultImporterConfig())
}

// FromReader imports a thread from PDF bytes, as delivered by a multipart
// upload. Pages that fail to parse are skipped rather than failing the
// whole import.
func (i *Importer) FromReader(r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return i.extract(reader)
}

// FromFile imports a thread from a PDF file on disk.
func (i *Importer) FromFile(path string) (*ImportResult, error) {
	if path == "" {
		return nil, ErrEmptyInput
	}
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()
	return i.extract(reader)
}

func (i *Importer) extract(r *pdf.Reader) (*ImportResult, error) {
	totalPages := r.NumPage()
	result := &ImportResult{TotalPages: totalPages}

	pagesToProcess := totalPages
	if i.config.MaxPages > 0 && i.config.MaxPages < totalPages {
		pagesToProcess = i.config.MaxPages
	}

	var textBuilder strings.Builder
	// Pages are 1-indexed in ledongthuc/pdf.
	for pageIndex := 1; pageIndex <= pagesToProcess; pageIndex++ {
		text, err := extractPage(r, pageIndex)
		if err != nil || text == "" {
			result.SkippedPages++
			continue
		}
		result.ExtractedPages++
		if textBuilder.Len() > 0 {
			textBuilder.WriteString(i.config.PageSeparator)
		}
		textBuilder.WriteString(text)
	}

	raw := textBuilder.String()
	if raw == "" {
		return result, ErrNoContent
	}

	result.Truncated = len(raw) > i.config.MaxThreadChars
	result.Thread = sanitize.Strip(raw, i.config.MaxThreadChars)
	result.EstimatedTokens = tokens.Estimate(result.Thread)
	return result, nil
}

func extractPage(r *pdf.Reader, pageIndex int) (string, error) {
	p := r.Page(pageIndex)
	if p.V.IsNull() {
		return "", nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
