package legal

import (
	"fmt"
	"sort"

	"legalqa/internal/tfidf"
)

// TitleMatchLimit is how many candidates title search returns.
const TitleMatchLimit = 3

type RankedTitle struct {
	Index int
	Score float64
}

// TitleRanker orders titles by relevance to query, most relevant first.
// Every title appears in the result; ties keep input order.
type TitleRanker interface {
	Rank(titles []string, query string) ([]RankedTitle, error)
}

// TFIDFRanker fits a tfidf space on the titles and ranks by cosine similarity.
type TFIDFRanker struct{}

func (TFIDFRanker) Rank(titles []string, query string) ([]RankedTitle, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	v := tfidf.NewVectorizer()
	rows, err := v.FitTransform(titles)
	if err != nil {
		return nil, fmt.Errorf("fit title vectorizer: %w", err)
	}
	q, err := v.Transform(query)
	if err != nil {
		return nil, fmt.Errorf("vectorize title query: %w", err)
	}
	ranked := make([]RankedTitle, len(rows))
	for i, row := range rows {
		ranked[i] = RankedTitle{Index: i, Score: tfidf.Dot(row, q)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked, nil
}

// TopTitles ranks the titles of docs against query and returns at most limit
// documents. It never fails for lack of a match.
func TopTitles(r TitleRanker, docs []DocumentMetadata, query string, limit int) ([]DocumentMetadata, error) {
	titles := make([]string, len(docs))
	for i, d := range docs {
		titles[i] = d.Title
	}
	ranked, err := r.Rank(titles, query)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]DocumentMetadata, 0, len(ranked))
	for _, rt := range ranked {
		out = append(out, docs[rt.Index])
	}
	return out, nil
}
