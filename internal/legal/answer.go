package legal

import (
	"context"
	"fmt"
	"strings"

	"legalqa/internal/metrics"
	"legalqa/internal/providers"

	"github.com/rs/zerolog"
)

const answerSystemPrompt = "You are a helpful assistant who helps with answering questions based on the provided text. " +
	"Extract and return the answer from the provided text and do not paraphrase the answer. " +
	"If the answer cannot be found in the provided text, you admit that you do not know."

const passageSeparator = "\n\n-----\n\n"

// Passage is one retrieved chunk of a source file.
type Passage struct {
	FileName string  `json:"file_name"`
	Text     string  `json:"text"`
	TextURL  string  `json:"text_url,omitempty"`
	Score    float64 `json:"score"`
}

// Turn is one earlier question and answer.
type Turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

type AnswerGenerator struct {
	llm     providers.LLMProvider
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewAnswerGenerator(llm providers.LLMProvider, m *metrics.Metrics, log zerolog.Logger) *AnswerGenerator {
	return &AnswerGenerator{llm: llm, metrics: m, log: log}
}

// BuildAnswerRequest lays out history turns as user/assistant pairs followed by
// the passages and query.
func BuildAnswerRequest(query string, passages []Passage, history []Turn) providers.GenerateRequest {
	msgs := make([]providers.Message, 0, 2*len(history)+1)
	for _, t := range history {
		msgs = append(msgs,
			providers.Message{Role: providers.RoleUser, Content: t.Query},
			providers.Message{Role: providers.RoleAssistant, Content: t.Response},
		)
	}
	msgs = append(msgs, providers.Message{Role: providers.RoleUser, Content: AugmentedQuery(query, passages)})
	return providers.GenerateRequest{Operation: "answer", System: answerSystemPrompt, Messages: msgs}
}

// AugmentedQuery joins passage texts ahead of the query.
func AugmentedQuery(query string, passages []Passage) string {
	var b strings.Builder
	b.WriteString("Information to search for answers:\n\n")
	for i, p := range passages {
		if i > 0 {
			b.WriteString(passageSeparator)
		}
		b.WriteString(p.Text)
	}
	b.WriteString(passageSeparator)
	b.WriteString("Query: ")
	b.WriteString(query)
	return b.String()
}

// Generate asks the language model for an answer. Without a model it fails
// with ErrServiceUnavailable.
func (g *AnswerGenerator) Generate(ctx context.Context, query string, passages []Passage, history []Turn) (string, error) {
	if g.llm == nil {
		return "", fmt.Errorf("%w: no language model configured", ErrServiceUnavailable)
	}
	resp, info, err := g.llm.Generate(ctx, BuildAnswerRequest(query, passages, history))
	g.metrics.ObserveLLMCall("answer", err)
	if err != nil {
		g.log.Warn().Err(err).Str("provider", info.Name).Msg("answer generation failed")
		return "", wrapProviderError("generate answer", err)
	}
	g.log.Debug().Str("provider", info.Name).Str("model", info.Model).Int("passages", len(passages)).Int("history", len(history)).Msg("answer generated")
	return resp.Text, nil
}
