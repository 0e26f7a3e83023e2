package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionBody(n int) string {
	line := "lorem ipsum dolor sit amet consectetur adipiscing elit\n"
	return strings.Repeat(line, n)
}

func TestPreprocessForAIWithinBudgetIsIdentity(t *testing.T) {
	e := newTestExtractor(t)
	text := "# Title\n" + sectionBody(20)

	out, meta := e.PreprocessForAI(text, DefaultPreprocessOptions())
	assert.Equal(t, text, out)
	assert.False(t, meta.Truncated)
	assert.Equal(t, len(text), meta.FinalLength)
}

func TestPreprocessForAIOutputNeverExceedsBudget(t *testing.T) {
	e := newTestExtractor(t)
	text := "# One\n" + sectionBody(120) + "# Two\n" + sectionBody(120) + "# Three\n" + sectionBody(120)

	for _, max := range []int{500, 1000, 5000, 15000} {
		for _, preserve := range []bool{true, false} {
			out, meta := e.PreprocessForAI(text, PreprocessOptions{MaxLength: max, PreserveSections: preserve})
			assert.LessOrEqual(t, len(out), max, "max=%d preserve=%v", max, preserve)
			assert.True(t, meta.Truncated)
			assert.Equal(t, len(out), meta.FinalLength)
		}
	}
}

func TestPreprocessForAISectionAwareTruncation(t *testing.T) {
	e := newTestExtractor(t)

	// three sections, roughly 7000+7000+6400 characters
	one := sectionBody(127)
	two := sectionBody(127)
	three := sectionBody(116)
	text := "# Alpha\n" + one + "# Bravo\n" + two + "# Charlie\n" + three
	require.Greater(t, len(text), 20000)

	out, meta := e.PreprocessForAI(text, PreprocessOptions{MaxLength: 15000, PreserveSections: true})

	assert.LessOrEqual(t, len(out), 15000)
	assert.True(t, meta.Truncated)
	assert.Equal(t, 2, meta.SectionsIncluded)
	assert.Equal(t, 3, meta.SectionsTotal)

	// first two sections intact
	assert.Contains(t, out, "Alpha\n"+strings.TrimSpace(one))
	assert.Contains(t, out, "Bravo\n"+strings.TrimSpace(two))
	// third is a marked prefix
	assert.Contains(t, out, "Charlie")
	assert.True(t, strings.HasSuffix(out, truncationMarker))
}

func TestPreprocessForAIDeterministic(t *testing.T) {
	e := newTestExtractor(t)
	text := "# One\n" + sectionBody(120) + "# Two\n" + sectionBody(120)

	first, firstMeta := e.PreprocessForAI(text, PreprocessOptions{MaxLength: 9000, PreserveSections: true})
	second, secondMeta := e.PreprocessForAI(text, PreprocessOptions{MaxLength: 9000, PreserveSections: true})
	assert.Equal(t, first, second)
	assert.Equal(t, firstMeta, secondMeta)
}

func TestPreprocessForAIFlatTruncation(t *testing.T) {
	e := newTestExtractor(t)
	text := sectionBody(300)

	out, meta := e.PreprocessForAI(text, PreprocessOptions{MaxLength: 2000, PreserveSections: false})
	assert.LessOrEqual(t, len(out), 2000)
	assert.True(t, meta.Truncated)
	assert.True(t, strings.HasSuffix(out, truncationMarker))
	assert.True(t, strings.HasPrefix(text, strings.TrimSuffix(out, truncationMarker)))
}

func TestPreprocessForAISkipsTinyPartialSection(t *testing.T) {
	e := newTestExtractor(t)
	// one section that fits, one that overflows with almost no budget left
	one := sectionBody(17) // ~950 chars
	text := "# Alpha\n" + one + "# Bravo\n" + sectionBody(40)

	out, meta := e.PreprocessForAI(text, PreprocessOptions{MaxLength: 1000, PreserveSections: true})
	assert.LessOrEqual(t, len(out), 1000)
	assert.Equal(t, 1, meta.SectionsIncluded)
	// no room for a meaningful Bravo prefix, so it is dropped entirely
	assert.NotContains(t, out, "Bravo")
}
