package extract

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	defaultMinLength = 100
	minWordCount     = 20
)

var (
	spaceRuns     = regexp.MustCompile(`[ \t]{2,}`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes line endings, strips non-printable control characters
// (newline and tab survive), collapses repeated spaces and squeezes runs of
// blank lines down to one empty line.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, " ", " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = spaceRuns.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	s = strings.Join(lines, "\n")

	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Validation is the outcome of a raw-text submission check.
type Validation struct {
	Valid          bool   `json:"valid"`
	WordCount      int    `json:"word_count"`
	CharacterCount int    `json:"character_count"`
	Error          string `json:"error,omitempty"`
}

// ValidateContent checks a raw-text submission against a minimum length
// (default 100 when minLength <= 0) and a minimum word count.
func (e *Extractor) ValidateContent(text string, minLength int) Validation {
	if minLength <= 0 {
		minLength = defaultMinLength
	}
	cleaned := CleanText(text)
	v := Validation{
		WordCount:      len(strings.Fields(cleaned)),
		CharacterCount: len(cleaned),
	}
	switch {
	case v.CharacterCount < minLength:
		v.Error = validationErrorf("insufficient_content",
			"content is too short (%d chars, need at least %d)", v.CharacterCount, minLength).Error()
	case v.WordCount < minWordCount:
		v.Error = validationErrorf("insufficient_words",
			"content has too few words (%d, need at least %d)", v.WordCount, minWordCount).Error()
	default:
		v.Valid = true
	}
	return v
}
