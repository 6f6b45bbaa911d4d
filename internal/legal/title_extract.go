package legal

import (
	"regexp"
	"strings"
)

const titleScanLines = 10

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Headings that end the title block on an act's first page. Misspellings come
// from scanned gazette copies.
var titleStopWords = map[string]struct{}{
	"arrangementofsections":  {},
	"sections":               {},
	"section":                {},
	"arrengementofsections":  {},
	"arrengementofsection":   {},
	"arrangmentofsections":   {},
	"arrangementofsection":   {},
	"arrngementofsections":   {},
	"arrangamentofsections":  {},
	"arrangementsofsections": {},
	"arrengmentofsections":   {},
	"arrangmentofsection":    {},
	"arrangaemntofsections":  {},
	"arrangementsections":    {},
	"arramgememtofsections":  {},
	"arrangementsofsection":  {},
	"contents":               {},
	"1shorttitle":            {},
	"statement":              {},
}

// ExtractTitle derives a document title from the text of its first page: the
// leading non-empty lines up to the first table-of-contents heading.
func ExtractTitle(firstPage string) string {
	lines := make([]string, 0, titleScanLines)
	for _, l := range strings.Split(strings.TrimSpace(firstPage), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
		if len(lines) == titleScanLines {
			break
		}
	}
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		key := strings.ToLower(nonAlnum.ReplaceAllString(l, ""))
		if _, stop := titleStopWords[key]; stop {
			break
		}
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}
