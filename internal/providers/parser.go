package providers

import "strings"

// ProviderRef is one entry of a provider list such as "openai:team|ollama:nomic".
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits on "|" or ",". An empty list means the mock provider.
func ParseProviderList(raw string) []ProviderRef {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' })
	out := make([]ProviderRef, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		name, alias, _ := strings.Cut(f, ":")
		out = append(out, ProviderRef{Raw: f, Name: strings.TrimSpace(name), KeyAlias: strings.TrimSpace(alias)})
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}
