package providers

import (
	"net/http"
	"time"
)

// NewGroqProvider serves generation only; Groq has no embeddings endpoint.
func NewGroqProvider(keyName string) *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		name:      "groq",
		baseURL:   "https://api.groq.com/openai/v1",
		keyName:   keyName,
		apiKey:    envKey("LEGALQA_GROQ", keyName, "GROQ_API_KEY"),
		chatModel: envOr("LEGALQA_GROQ_MODEL", "llama-3.1-8b-instant"),
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}
