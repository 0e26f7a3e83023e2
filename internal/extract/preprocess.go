package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/dislu/ai-study-circle-sub003/internal/types"
)

const (
	// DefaultMaxContentLength is the character budget for AI-facing content.
	DefaultMaxContentLength = 15000

	// truncationMarker is appended whenever content had to be cut.
	truncationMarker = "\n\n[... content truncated ...]"

	// minPartialSection is the smallest leftover budget worth filling with a
	// partial section.
	minPartialSection = 100
)

type PreprocessOptions struct {
	MaxLength        int
	PreserveSections bool
}

func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{MaxLength: DefaultMaxContentLength, PreserveSections: true}
}

type PreprocessMeta struct {
	OriginalLength   int  `json:"original_length"`
	FinalLength      int  `json:"final_length"`
	Truncated        bool `json:"truncated"`
	SectionsIncluded int  `json:"sections_included,omitempty"`
	SectionsTotal    int  `json:"sections_total,omitempty"`
	EstimatedTokens  int  `json:"estimated_tokens"`
}

// PreprocessForAI bounds text to the character budget. Within budget the
// text passes through byte-identical. Over budget, whole sections are
// accumulated greedily in input order; the first overflowing section is
// included as a marked prefix only when enough budget remains, and every
// later section is dropped. The result is deterministic for a given input
// and budget.
func (e *Extractor) PreprocessForAI(text string, opts PreprocessOptions) (string, PreprocessMeta) {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxContentLength
	}

	meta := PreprocessMeta{OriginalLength: len(text)}
	if len(text) <= opts.MaxLength {
		meta.FinalLength = len(text)
		meta.EstimatedTokens = e.tokens.Count(text)
		return text, meta
	}
	meta.Truncated = true

	var out string
	if opts.PreserveSections {
		out, meta.SectionsIncluded, meta.SectionsTotal = truncateBySections(text, opts.MaxLength)
	} else {
		out = truncateFlat(text, opts.MaxLength)
	}
	meta.FinalLength = len(out)
	meta.EstimatedTokens = e.tokens.Count(out)
	return out, meta
}

func truncateFlat(text string, max int) string {
	budget := max - len(truncationMarker)
	if budget <= 0 {
		return cutAtRune(text, max)
	}
	return cutAtRune(text, budget) + truncationMarker
}

func truncateBySections(text string, max int) (string, int, int) {
	sections := ExtractSections(text)

	var b strings.Builder
	included := 0
	for _, sec := range sections {
		block := renderSection(sec)
		sep := ""
		if b.Len() > 0 {
			sep = "\n\n"
		}
		if b.Len()+len(sep)+len(block) <= max {
			b.WriteString(sep)
			b.WriteString(block)
			included++
			continue
		}

		remaining := max - b.Len() - len(sep) - len(truncationMarker)
		if remaining > minPartialSection {
			b.WriteString(sep)
			b.WriteString(cutAtRune(block, remaining))
			b.WriteString(truncationMarker)
		}
		break
	}
	return b.String(), included, len(sections)
}

func renderSection(sec types.Section) string {
	if sec.Title == defaultSectionTitle {
		return sec.Body
	}
	if sec.Body == "" {
		return sec.Title
	}
	return sec.Title + "\n" + sec.Body
}

// cutAtRune truncates to at most n bytes without splitting a rune.
func cutAtRune(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
