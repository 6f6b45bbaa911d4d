package util

import "strings"

// SanitizeText strips what PDF extractors leave behind and Postgres text
// columns reject: NUL bytes, other C0 controls, U+FFFD and soft hyphens.
// Line breaks are normalised to \n.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch {
		case ch == '\n' || ch == '\t':
			b.WriteRune(ch)
		case ch == '\r':
			b.WriteByte('\n')
		case ch < 0x20, ch == 0x7f, ch == '\uFFFD', ch == '\u00AD':
		default:
			b.WriteRune(ch)
		}
	}
	return strings.TrimSpace(b.String())
}
