package legal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	sectionPattern = regexp.MustCompile(`(?i)\bsec(?:tion)?(?:\.\s*|\s+)(\d+|[ivxlcdm]+)([a-z]{0,3})\b`)
	ofPattern      = regexp.MustCompile(`(?i)\bof\b`)
	romanPattern   = regexp.MustCompile(`^M{0,3}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)
	suffixPattern  = regexp.MustCompile(`^[A-Z]{0,3}$`)
)

// SectionReference is the structural part of a query such as
// "section 5 of the Motor Vehicles Act".
type SectionReference struct {
	// Token is the raw section number as written, uppercased, e.g. "12A" or "XIV".
	Token string
	// Title is the act title fragment with the word "of" removed.
	Title string
}

// ParseSectionReference finds the first "sec"/"section" reference in query.
// The title is the text after the reference, or the text before it when
// nothing follows.
func ParseSectionReference(query string) (SectionReference, error) {
	loc := sectionPattern.FindStringSubmatchIndex(query)
	if loc == nil {
		return SectionReference{}, fmt.Errorf("%w: no section reference in %q", ErrIncorrectQueryFormat, query)
	}
	token := strings.ToUpper(query[loc[2]:loc[3]] + query[loc[4]:loc[5]])

	title := cleanTitle(query[loc[1]:])
	if title == "" {
		title = cleanTitle(query[:loc[0]])
	}
	return SectionReference{Token: token, Title: title}, nil
}

func cleanTitle(s string) string {
	s = ofPattern.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t\r\n,.;:?!")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeSectionNumber converts a section token to the form used in section
// indexes: decimal numbers lose leading zeros, Roman numerals become decimal,
// and a suffix of up to three letters is kept ("XIVB" becomes "14B"). The
// whole numeral run is tried first; failing that, its last letter is taken
// as the suffix, so "XIVC" is 14C while "XII" is 12.
func NormalizeSectionNumber(token string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(token))
	if t == "" {
		return "", fmt.Errorf("%w: empty section number", ErrIncorrectSectionNumber)
	}

	digits := len(t) - len(strings.TrimLeft(t, "0123456789"))
	if digits > 0 {
		n, err := strconv.Atoi(t[:digits])
		if err == nil && suffixPattern.MatchString(t[digits:]) {
			return strconv.Itoa(n) + t[digits:], nil
		}
		return "", fmt.Errorf("%w: %q", ErrIncorrectSectionNumber, token)
	}

	run := len(t) - len(strings.TrimLeft(t, "IVXLCDM"))
	if run > 0 && suffixPattern.MatchString(t[run:]) {
		if n, ok := FromRoman(t[:run]); ok {
			return strconv.Itoa(n) + t[run:], nil
		}
		// a single numeral letter may still be the suffix, unless it
		// repeats the last numeral letter ("IIII" stays malformed)
		if run > 1 && t[run-1] != t[run-2] && len(t)-run < 3 {
			if n, ok := FromRoman(t[:run-1]); ok {
				return strconv.Itoa(n) + t[run-1:], nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrIncorrectSectionNumber, token)
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// FromRoman decodes a canonical Roman numeral between I and MMMCMXCIX.
func FromRoman(s string) (int, bool) {
	if s == "" || !romanPattern.MatchString(s) {
		return 0, false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v := romanValues[s[i]]
		if i+1 < len(s) && v < romanValues[s[i+1]] {
			total -= v
		} else {
			total += v
		}
	}
	return total, true
}
