package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dislu/ai-study-circle-sub003/internal/types"
)

// defaultSectionTitle names the running section before the first detected
// header.
const defaultSectionTitle = "Introduction"

// headerRule is a pure classification rule. Rules are tagged and ordered so
// alternative heuristics can be swapped in without touching the truncation
// algorithm.
type headerRule struct {
	name  string
	match func(line string) bool
}

var (
	numberedHeader = regexp.MustCompile(`^\d{1,3}[.)]\s+\S`)
	romanHeader    = regexp.MustCompile(`^[IVXLCDM]{1,7}[.)]\s+\S`)
)

var headerRules = []headerRule{
	{name: "markdown", match: func(line string) bool {
		return strings.HasPrefix(line, "#")
	}},
	{name: "numbered", match: func(line string) bool {
		return numberedHeader.MatchString(line)
	}},
	{name: "roman", match: func(line string) bool {
		return romanHeader.MatchString(line)
	}},
	{name: "all_caps", match: func(line string) bool {
		if len(line) < 4 {
			return false
		}
		hasLetter := false
		for _, r := range line {
			if unicode.IsLower(r) {
				return false
			}
			if unicode.IsLetter(r) {
				hasLetter = true
			}
		}
		return hasLetter
	}},
	{name: "short_title", match: func(line string) bool {
		if len(line) >= 80 || strings.HasSuffix(line, ".") {
			return false
		}
		first, _ := firstRune(line)
		return unicode.IsUpper(first)
	}},
}

func isHeaderLine(line string) bool {
	for _, rule := range headerRules {
		if rule.match(line) {
			return true
		}
	}
	return false
}

// ExtractSections splits text into ordered title+body sections in a single
// pass. Header detection is heuristic; reassembling the sections is not
// guaranteed to reproduce the input byte for byte.
func ExtractSections(text string) []types.Section {
	var (
		sections []types.Section
		current  = types.Section{Title: defaultSectionTitle}
		body     strings.Builder
		explicit bool
	)

	flush := func() {
		current.Body = strings.TrimSpace(body.String())
		if explicit || current.Body != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && isHeaderLine(trimmed) {
			flush()
			current = types.Section{Title: headerTitle(trimmed)}
			explicit = true
			continue
		}
		if body.Len() > 0 {
			body.WriteString("\n")
		}
		body.WriteString(line)
	}
	flush()
	return sections
}

func headerTitle(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "# "))
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}
