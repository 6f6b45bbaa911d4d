// Package tfidf implements a term-frequency / inverse-document-frequency
// vectorizer: fit a vocabulary on a corpus, then project texts into it.
package tfidf

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer uses raw term counts, smoothed IDF and L2 normalisation.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
	fitted     bool
}

func NewVectorizer() *Vectorizer {
	return &Vectorizer{vocabulary: make(map[string]int)}
}

// Fit builds the vocabulary and IDF weights from corpus.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for tfidf fit")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.fitted = true
	return nil
}

// Transform returns the L2-normalised tfidf vector of text. Terms outside the
// fitted vocabulary are ignored; a text with no known terms maps to zeros.
func (v *Vectorizer) Transform(text string) ([]float64, error) {
	if !v.fitted {
		return nil, errors.New("tfidf vectorizer not fitted")
	}
	vec := make([]float64, len(v.idf))
	for _, tok := range Tokenize(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			vec[idx]++
		}
	}
	for i := range vec {
		vec[i] *= v.idf[i]
	}
	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// FitTransform fits on corpus and returns the vector of every corpus entry.
func (v *Vectorizer) FitTransform(corpus []string) ([][]float64, error) {
	if err := v.Fit(corpus); err != nil {
		return nil, err
	}
	out := make([][]float64, len(corpus))
	for i, text := range corpus {
		vec, err := v.Transform(text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Tokenize lowercases text and returns word tokens of two or more characters.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Dot returns the inner product; for normalised vectors it is the cosine similarity.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
