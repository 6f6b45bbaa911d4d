package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ChatCompletionsProvider talks to any API shaped like OpenAI's
// /chat/completions and /embeddings endpoints.
type ChatCompletionsProvider struct {
	name       string
	baseURL    string
	keyName    string
	apiKey     string
	chatModel  string
	embedModel string
	client     *http.Client
}

// NewOpenAIProvider reads LEGALQA_OPENAI_KEY_<ALIAS> or OPENAI_API_KEY.
func NewOpenAIProvider(keyName string) *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		name:       "openai",
		baseURL:    strings.TrimRight(envOr("LEGALQA_OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		keyName:    keyName,
		apiKey:     envKey("LEGALQA_OPENAI", keyName, "OPENAI_API_KEY"),
		chatModel:  envOr("LEGALQA_OPENAI_CHAT_MODEL", "gpt-4-1106-preview"),
		embedModel: envOr("LEGALQA_OPENAI_EMBED_MODEL", "text-embedding-ada-002"),
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *ChatCompletionsProvider) info(model string) ProviderInfo {
	return ProviderInfo{Name: p.name, Model: model, Key: p.keyName}
}

func (p *ChatCompletionsProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := p.info(p.embedModel)
	if p.embedModel == "" {
		return nil, info, fmt.Errorf("%s does not serve embeddings", p.name)
	}
	if p.apiKey == "" {
		return nil, info, fmt.Errorf("%s key missing for alias %q", p.name, p.keyName)
	}
	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	payload := map[string]any{"model": p.embedModel, "input": req.Inputs}
	if err := postJSON(ctx, p.client, p.name, p.baseURL+"/embeddings", p.apiKey, payload, &parsed); err != nil {
		return nil, info, err
	}
	if len(parsed.Data) != len(req.Inputs) {
		return nil, info, fmt.Errorf("%s returned %d embeddings for %d inputs", p.name, len(parsed.Data), len(req.Inputs))
	}
	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		out[idx] = matchDimension(d.Embedding, req.Dimension)
	}
	return out, info, nil
}

func (p *ChatCompletionsProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := p.info(p.chatModel)
	if p.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("%s key missing for alias %q", p.name, p.keyName)
	}
	var parsed struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	payload := map[string]any{"model": p.chatModel, "messages": chatMessages(req), "temperature": 0}
	if err := postJSON(ctx, p.client, p.name, p.baseURL+"/chat/completions", p.apiKey, payload, &parsed); err != nil {
		return GenerateResponse{}, info, err
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("%s returned empty choices", p.name)
	}
	return GenerateResponse{Text: strings.TrimSpace(parsed.Choices[0].Message.Content)}, info, nil
}
