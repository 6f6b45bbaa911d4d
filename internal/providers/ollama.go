package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// OllamaEmbeddingProvider embeds with a local Ollama server.
type OllamaEmbeddingProvider struct {
	alias   string
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaEmbeddingProvider(alias string) *OllamaEmbeddingProvider {
	return &OllamaEmbeddingProvider{
		alias:   alias,
		baseURL: strings.TrimRight(envOr("LEGALQA_OLLAMA_BASE_URL", "http://localhost:11434"), "/"),
		model:   resolveOllamaEmbedModel(alias),
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (o *OllamaEmbeddingProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "ollama", Model: o.model, Key: o.alias}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	var parsed struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	payload := map[string]any{"model": o.model, "input": req.Inputs}
	if err := postJSON(ctx, o.client, "ollama", o.baseURL+"/api/embed", "", payload, &parsed); err != nil {
		return nil, info, err
	}
	if len(parsed.Embeddings) != len(req.Inputs) {
		return nil, info, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(parsed.Embeddings), len(req.Inputs))
	}
	out := make([][]float32, len(parsed.Embeddings))
	for i, v := range parsed.Embeddings {
		if len(v) == 0 {
			return nil, info, fmt.Errorf("ollama returned empty embedding for input %d", i)
		}
		out[i] = matchDimension(v, req.Dimension)
	}
	return out, info, nil
}

// resolveOllamaEmbedModel accepts a short alias (nomic, bge), a literal model
// name, or falls back to LEGALQA_OLLAMA_EMBED_MODEL.
func resolveOllamaEmbedModel(alias string) string {
	alias = strings.TrimSpace(alias)
	if alias != "" {
		if v := strings.TrimSpace(os.Getenv("LEGALQA_OLLAMA_EMBED_MODEL_" + sanitizeEnvToken(alias))); v != "" {
			return v
		}
		switch strings.ToLower(alias) {
		case "nomic":
			return "nomic-embed-text"
		case "bge":
			return "bge-small-en-v1.5"
		}
		if strings.ContainsAny(alias, "-/.") {
			return alias
		}
	}
	return envOr("LEGALQA_OLLAMA_EMBED_MODEL", "nomic-embed-text")
}

// matchDimension truncates or zero-pads v to target so vectors fit the
// fixed-width embedding column.
func matchDimension(v []float32, target int) []float32 {
	if target <= 0 || len(v) == target {
		return v
	}
	if len(v) > target {
		return v[:target]
	}
	out := make([]float32, target)
	copy(out, v)
	return out
}
