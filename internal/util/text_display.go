package util

import (
	"sort"
	"strings"
	"unicode"
)

const defaultSnippetRunes = 420

// PassageSnippet picks the clauses of text that share the most terms with
// query and clips them to maxRunes. Section numbers such as 12A count double.
func PassageSnippet(text, query string, maxRunes int) string {
	text = collapse(text)
	if text == "" {
		return ""
	}
	terms := queryTerms(query)
	clauses := splitClauses(text)
	if len(terms) == 0 || len(clauses) < 2 {
		return clip(text, maxRunes)
	}

	type ranked struct {
		pos   int
		score int
	}
	list := make([]ranked, len(clauses))
	for i, c := range clauses {
		low := strings.ToLower(c)
		for term, weight := range terms {
			if containsWord(low, term) {
				list[i].score += weight
			}
		}
		list[i].pos = i
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })
	if list[0].score == 0 {
		return clip(text, maxRunes)
	}

	// keep the winning clause and the one after it so provisos stay attached
	start := list[0].pos
	out := clauses[start]
	if start+1 < len(clauses) {
		out += " " + clauses[start+1]
	}
	return clip(out, maxRunes)
}

func splitClauses(s string) []string {
	var out []string
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		b.WriteRune(r)
		end := r == ';' || r == '?' || r == '!'
		if r == '.' {
			// "12A." and "s. 4" are numbering, not sentence ends
			next := i+1 < len(runes) && !unicode.IsSpace(runes[i+1])
			short := len(strings.Fields(b.String())) < 3
			end = !next && !short
		}
		if end {
			if x := strings.TrimSpace(b.String()); x != "" {
				out = append(out, x)
			}
			b.Reset()
		}
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

var snippetStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {}, "what": {}, "how": {},
	"why": {}, "which": {}, "that": {}, "this": {}, "with": {}, "from": {}, "under": {},
	"section": {}, "act": {}, "rule": {}, "rules": {}, "provision": {}, "does": {}, "say": {},
	"tell": {}, "about": {}, "please": {}, "explain": {}, "can": {}, "any": {},
}

// queryTerms maps each useful query term to its weight.
func queryTerms(q string) map[string]int {
	out := map[string]int{}
	for _, f := range strings.Fields(strings.ToLower(q)) {
		f = strings.Trim(f, ",.;:!?()[]{}\"'`")
		if f == "" {
			continue
		}
		if isSectionToken(f) {
			out[f] = 2
			continue
		}
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := snippetStopWords[f]; stop {
			continue
		}
		out[f] = 1
	}
	return out
}

func isSectionToken(s string) bool {
	if s == "" || !unicode.IsDigit(rune(s[0])) {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func containsWord(haystack, word string) bool {
	for i := 0; ; {
		j := strings.Index(haystack[i:], word)
		if j < 0 {
			return false
		}
		j += i
		before := j == 0 || !isWordRune(rune(haystack[j-1]))
		k := j + len(word)
		after := k >= len(haystack) || !isWordRune(rune(haystack[k]))
		if before && after {
			return true
		}
		i = j + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func collapse(s string) string {
	s = SanitizeText(s)
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = defaultSnippetRunes
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, ' '); i > maxRunes/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}
