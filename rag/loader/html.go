package loader

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	blockEnd   = regexp.MustCompile(`(?i)(</(p|div|h[1-6]|li|tr|pre|blockquote|table|section|article|header)>|<br\s*/?>)`)
	blankLines = regexp.MustCompile(`\n{3,}`)
	strict     = bluemonday.StrictPolicy()
)

// htmlToText strips every tag, keeping a line break after block elements.
func htmlToText(s string) string {
	s = blockEnd.ReplaceAllString(s, "$1\n")
	s = html.UnescapeString(strict.Sanitize(s))

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}
