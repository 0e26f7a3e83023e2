package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	pdf "github.com/ledongthuc/pdf"

	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/types"
)

const (
	// MaxFileSize is the hard input cap checked before any parsing.
	MaxFileSize = 50 * 1024 * 1024
	// minExtractedChars rejects files whose cleaned text is too short to be
	// worth generating from.
	minExtractedChars = 50

	wordsPerMinute = 200
)

// ValidationError is a rejected submission: unsupported format, oversized
// input or insufficient content. It is fatal to the submission and never
// retried.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Extractor turns supported uploads (PDF, DOCX, plain text, Markdown) into
// clean, size-bounded, AI-ready text plus metadata.
type Extractor struct {
	log    *logger.Logger
	tokens *TokenCounter

	maxFileSize int64
}

func New(baseLog *logger.Logger) *Extractor {
	e := &Extractor{
		log:         baseLog.With("component", "ContentExtractor"),
		maxFileSize: MaxFileSize,
	}
	tc, err := NewTokenCounter()
	if err != nil {
		// Token estimates degrade to a character heuristic, extraction
		// itself is unaffected.
		e.log.Warn("Token counter init failed, falling back to heuristic estimates", "error", err)
	} else {
		e.tokens = tc
	}
	return e
}

// ProcessFile validates, extracts and cleans an uploaded file. Unsupported
// extensions and oversized inputs are rejected before any parsing.
func (e *Extractor) ProcessFile(data []byte, originalName string) (string, *types.ContentMetadata, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	fileType, ok := supportedTypes[ext]
	if !ok {
		return "", nil, validationErrorf("unsupported_type",
			"unsupported file type %q (supported: pdf, docx, txt, md)", ext)
	}
	if int64(len(data)) > e.maxFileSize {
		return "", nil, validationErrorf("file_too_large",
			"file exceeds the %dMB limit", e.maxFileSize/(1024*1024))
	}
	if len(data) == 0 {
		return "", nil, validationErrorf("empty_file", "empty file: %s", originalName)
	}

	var (
		raw string
		err error
	)
	switch fileType {
	case "pdf":
		if !isPDF(data) {
			return "", nil, validationErrorf("unsupported_type",
				"file claims pdf but is missing the %%PDF header: %s", originalName)
		}
		raw, err = extractPDF(data)
	case "docx":
		if !isZip(data) {
			return "", nil, validationErrorf("unsupported_type",
				"file claims docx but is not a valid zip container: %s", originalName)
		}
		raw, err = extractDOCX(data)
	default: // text, markdown
		raw = string(data)
	}
	if err != nil {
		return "", nil, fmt.Errorf("extract %s: %w", fileType, err)
	}

	text := CleanText(raw)
	if len(text) < minExtractedChars {
		return "", nil, validationErrorf("insufficient_content",
			"extracted content is too short (%d chars, need at least %d)", len(text), minExtractedChars)
	}

	meta := e.buildMetadata(originalName, int64(len(data)), fileType, text)
	e.log.Debug("File processed",
		"name", originalName, "type", fileType, "chars", meta.CharacterCount, "words", meta.WordCount)
	return text, meta, nil
}

func (e *Extractor) buildMetadata(name string, size int64, fileType, text string) *types.ContentMetadata {
	words := len(strings.Fields(text))
	minutes := words / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return &types.ContentMetadata{
		OriginalName:         name,
		FileSizeBytes:        size,
		FileType:             fileType,
		WordCount:            words,
		CharacterCount:       len(text),
		EstimatedReadMinutes: minutes,
		EstimatedTokens:      e.tokens.Count(text),
		ProcessedAt:          time.Now().UTC(),
	}
}

var supportedTypes = map[string]string{
	".pdf":      "pdf",
	".docx":     "docx",
	".txt":      "text",
	".md":       "markdown",
	".markdown": "markdown",
}

// ------------------------
// Sniff helpers
// ------------------------

func isPDF(b []byte) bool {
	// PDF starts with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	// ZIP local file header: PK\x03\x04
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

// ------------------------
// Format extractors
// ------------------------

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

// extractDOCX pulls every <w:t> run out of word/document.xml.
func extractDOCX(zipBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", fmt.Errorf("docx zip: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx is missing word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("docx open document.xml: %w", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("docx read document.xml: %w", err)
	}

	out := docxRuns(b)
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("no text extracted from docx")
	}
	return out, nil
}

func docxRuns(xmlBytes []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "t":
				var v string
				_ = dec.DecodeElement(&v, &se)
				out.WriteString(v)
			case "br", "cr":
				out.WriteString("\n")
			}
		case xml.EndElement:
			// paragraph boundaries become newlines so section heuristics
			// still see line structure
			if se.Name.Local == "p" {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
