package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSectionsMarkdownHeaders(t *testing.T) {
	text := "intro paragraph before any header\n" +
		"# First\nbody of first\n" +
		"## Second\nbody of second"

	secs := ExtractSections(text)
	require.Len(t, secs, 3)
	assert.Equal(t, "Introduction", secs[0].Title)
	assert.Equal(t, "intro paragraph before any header", secs[0].Body)
	assert.Equal(t, "First", secs[1].Title)
	assert.Equal(t, "body of first", secs[1].Body)
	assert.Equal(t, "Second", secs[2].Title)
	assert.Equal(t, "body of second", secs[2].Body)
}

func TestExtractSectionsHeaderStyles(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"all caps", "METHODOLOGY AND SCOPE"},
		{"numbered", "1. Background"},
		{"numbered paren", "12) Results"},
		{"roman", "IV. Discussion"},
		{"short capitalized", "Closing Remarks"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, isHeaderLine(tc.header), "expected %q to be a header", tc.header)
		})
	}

	notHeaders := []struct {
		name string
		line string
	}{
		{"sentence ending in period", "This line is a normal sentence that simply ends with a period."},
		{"lowercase", "just some lowercase text"},
		{"long capitalized line", "Capitalized but far too long to be a plausible header because it keeps going on and on"},
	}
	for _, tc := range notHeaders {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, isHeaderLine(tc.line), "expected %q not to be a header", tc.line)
		})
	}
}

func TestExtractSectionsNoHeaders(t *testing.T) {
	text := "just a plain paragraph.\nwith a second line."
	secs := ExtractSections(text)
	require.Len(t, secs, 1)
	assert.Equal(t, "Introduction", secs[0].Title)
	assert.Equal(t, text, secs[0].Body)
}

func TestExtractSectionsPreservesOrder(t *testing.T) {
	text := "# A\none\n# B\ntwo\n# C\nthree"
	secs := ExtractSections(text)
	require.Len(t, secs, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{secs[0].Title, secs[1].Title, secs[2].Title})
}
