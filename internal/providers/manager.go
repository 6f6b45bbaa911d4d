package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"legalqa/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
	embedDim       int
	cooldown       time.Duration

	mu            sync.Mutex
	disabledUntil map[string]time.Time
	now           func() time.Time
}

func NewManager(cfg config.Config) (*Manager, error) {
	llmRefs := ParseProviderList(cfg.LLMProviders)
	embedRefs := ParseProviderList(cfg.EmbedProviders)

	m := &Manager{
		embedDim:      cfg.EmbedDim,
		cooldown:      time.Duration(cfg.ProviderCooldownSecs) * time.Second,
		disabledUntil: map[string]time.Time{},
		now:           time.Now,
	}
	if m.cooldown <= 0 {
		m.cooldown = 15 * time.Minute
	}
	for _, ref := range llmRefs {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range embedRefs {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	if len(m.embedProviders) == 0 {
		m.embedProviders = []NamedEmbedProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	return m, nil
}

// EmbedProviderByIndex returns the i-th configured embedding provider; an
// out-of-range index selects the first one.
func (m *Manager) EmbedProviderByIndex(i int) (EmbeddingProvider, ProviderRef) {
	if i < 0 || i >= len(m.embedProviders) {
		i = 0
	}
	return m.embedProviders[i].Provider, m.embedProviders[i].Ref
}

// preferredOrder puts real providers ahead of the mock.
func preferredOrder(refs []ProviderRef) []int {
	out := make([]int, 0, len(refs))
	for pass := 0; pass < 2; pass++ {
		for i, ref := range refs {
			if strings.EqualFold(ref.Name, "mock") == (pass == 1) {
				out = append(out, i)
			}
		}
	}
	return out
}

// Generate calls the LLM providers in preferred order until one succeeds.
// Providers hitting quota or rate limits are skipped for a cooldown period.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	refs := make([]ProviderRef, len(m.llmProviders))
	for i, np := range m.llmProviders {
		refs[i] = np.Ref
	}
	return failover(ctx, m, "llm", refs, func(i int) (GenerateResponse, ProviderInfo, error) {
		return m.llmProviders[i].Provider.Generate(ctx, req)
	})
}

// Embed is the embedding counterpart of Generate.
func (m *Manager) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	if req.Dimension <= 0 {
		req.Dimension = m.embedDim
	}
	refs := make([]ProviderRef, len(m.embedProviders))
	for i, np := range m.embedProviders {
		refs[i] = np.Ref
	}
	return failover(ctx, m, "embed", refs, func(i int) ([][]float32, ProviderInfo, error) {
		return m.embedProviders[i].Provider.Embed(ctx, req)
	})
}

func failover[T any](ctx context.Context, m *Manager, kind string, refs []ProviderRef, call func(i int) (T, ProviderInfo, error)) (T, ProviderInfo, error) {
	var zero T
	var lastErr error
	for _, idx := range preferredOrder(refs) {
		key := kind + ":" + refs[idx].Raw
		if m.isDisabled(key) {
			continue
		}
		out, info, err := call(idx)
		if err == nil {
			return out, info, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, info, err
		}
		if stop := m.penalize(key, err); stop {
			return zero, info, err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all %s providers unavailable", kind)
	}
	return zero, ProviderInfo{}, lastErr
}

func (m *Manager) isDisabled(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.disabledUntil[key]
	return ok && m.now().Before(until)
}

// penalize records a failed call and reports whether failover should stop.
func (m *Manager) penalize(key string, err error) bool {
	var d time.Duration
	switch ClassifyError(err) {
	case ErrorQuota:
		d = m.cooldown
	case ErrorRate:
		d = 2 * time.Minute
	case ErrorTransient:
		return false
	case ErrorContext:
		return true
	default:
		d = time.Minute
	}
	m.mu.Lock()
	m.disabledUntil[key] = m.now().Add(d)
	m.mu.Unlock()
	return false
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
