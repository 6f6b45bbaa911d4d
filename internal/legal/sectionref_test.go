package legal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSectionReference(t *testing.T) {
	cases := []struct {
		query string
		token string
		title string
	}{
		{"about section 5 of the Motor Vehicles Act", "5", "the Motor Vehicles Act"},
		{"Sec. XIVB of Karnataka Stamp Act", "XIVB", "Karnataka Stamp Act"},
		{"section 12A, Indian Penal Code", "12A", "Indian Penal Code"},
		{"Motor Vehicles Act section 9", "9", "Motor Vehicles Act"},
		{"what does sec iv say in the Stamp Act?", "IV", "say in the Stamp Act"},
	}
	for _, c := range cases {
		ref, err := ParseSectionReference(c.query)
		require.NoError(t, err, c.query)
		require.Equal(t, c.token, ref.Token, c.query)
		require.Equal(t, c.title, ref.Title, c.query)
	}
}

func TestParseSectionReferenceRequiresSection(t *testing.T) {
	for _, q := range []string{"Motor Vehicles Act", "the second chapter", "sections of the act"} {
		_, err := ParseSectionReference(q)
		require.ErrorIs(t, err, ErrIncorrectQueryFormat, q)
		require.ErrorIs(t, err, ErrIncorrectInput, q)
	}
}

func TestNormalizeSectionNumber(t *testing.T) {
	cases := map[string]string{
		"12":    "12",
		"XII":   "12",
		"xii":   "12",
		"007":   "7",
		"12A":   "12A",
		"XIVB":  "14B",
		"IV":    "4",
		"MCMXC": "1990",
		"XIVC":  "14C",
		"VIID":  "7D",
		"XIIM":  "12M",
		"xivcb": "14CB",
	}
	for in, want := range cases {
		got, err := NormalizeSectionNumber(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestNormalizeSectionNumberRoundTrip(t *testing.T) {
	a, err := NormalizeSectionNumber("12")
	require.NoError(t, err)
	b, err := NormalizeSectionNumber("XII")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestNormalizeSectionNumberRejectsMalformed(t *testing.T) {
	for _, in := range []string{"abc", "", "IIII", "XXXX", "12ABCD", "CIVIL", "XIVCBAD"} {
		_, err := NormalizeSectionNumber(in)
		require.ErrorIs(t, err, ErrIncorrectSectionNumber, in)
	}
}

func TestFromRoman(t *testing.T) {
	n, ok := FromRoman("MMMCMXCIX")
	require.True(t, ok)
	require.Equal(t, 3999, n)

	_, ok = FromRoman("MMMM")
	require.False(t, ok)
}
