package legal

import (
	"context"
	"regexp"
	"strings"

	"legalqa/internal/metrics"
	"legalqa/internal/providers"

	"github.com/rs/zerolog"
)

const abbreviationSystemPrompt = "You are a helpful assistant who helps with expanding the abbreviations present in the given sentence. Do not change anything else in the given sentence."

var fillerPattern = regexp.MustCompile(`(?i)\b(?:give\s+me|give|find\s+me|find|get\s+me|get|tell\s+me|tell)\b`)

// Preprocessor normalises a free-text query before it is parsed.
type Preprocessor struct {
	llm     providers.LLMProvider
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewPreprocessor returns a preprocessor. A nil llm skips abbreviation expansion.
func NewPreprocessor(llm providers.LLMProvider, m *metrics.Metrics, log zerolog.Logger) *Preprocessor {
	return &Preprocessor{llm: llm, metrics: m, log: log}
}

// Preprocess expands abbreviations, strips filler phrases and trims the query.
func (p *Preprocessor) Preprocess(ctx context.Context, query string) (string, error) {
	expanded, err := p.ExpandAbbreviations(ctx, query)
	if err != nil {
		return "", err
	}
	out := StripFillers(expanded)
	p.log.Debug().Str("query", query).Str("processed", out).Msg("query preprocessed")
	return out, nil
}

func (p *Preprocessor) ExpandAbbreviations(ctx context.Context, query string) (string, error) {
	if p.llm == nil {
		return query, nil
	}
	resp, info, err := p.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "abbreviate",
		System:    abbreviationSystemPrompt,
		Messages:  []providers.Message{{Role: providers.RoleUser, Content: query}},
	})
	p.metrics.ObserveLLMCall("abbreviate", err)
	if err != nil {
		p.log.Warn().Err(err).Str("provider", info.Name).Msg("abbreviation expansion failed")
		return "", wrapProviderError("expand abbreviations", err)
	}
	return resp.Text, nil
}

// StripFillers removes filler phrases such as "Tell me" or "Find" wherever
// they occur as whole words, then collapses whitespace.
func StripFillers(query string) string {
	query = fillerPattern.ReplaceAllString(query, "")
	return strings.Join(strings.Fields(query), " ")
}
