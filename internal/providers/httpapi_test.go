package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testChatProvider(url string) *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		name:       "openai",
		baseURL:    url,
		keyName:    "team",
		apiKey:     "sk-test",
		chatModel:  "gpt-test",
		embedModel: "embed-test",
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func TestChatCompletionsGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gpt-test", body.Model)
		require.Len(t, body.Messages, 2)
		require.Equal(t, "system", body.Messages[0].Role)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Section 3 applies. "}}]}`))
	}))
	defer srv.Close()

	resp, info, err := testChatProvider(srv.URL).Generate(context.Background(), GenerateRequest{
		System:   "answer from the passages",
		Messages: []Message{{Role: RoleUser, Content: "what applies?"}},
	})
	require.NoError(t, err)
	require.Equal(t, "Section 3 applies.", resp.Text)
	require.Equal(t, ProviderInfo{Name: "openai", Model: "gpt-test", Key: "team"}, info)
}

func TestChatCompletionsEmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1,0]},{"index":0,"embedding":[1,0,0]}]}`))
	}))
	defer srv.Close()

	vecs, _, err := testChatProvider(srv.URL).Embed(context.Background(), EmbedRequest{Inputs: []string{"a", "b"}, Dimension: 2})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestChatCompletionsQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	_, _, err := testChatProvider(srv.URL).Generate(context.Background(), GenerateRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	require.Equal(t, ErrorQuota, ClassifyError(err))
}

func TestGroqHasNoEmbeddings(t *testing.T) {
	_, _, err := NewGroqProvider("alias1").Embed(context.Background(), EmbedRequest{Inputs: []string{"x"}})
	require.ErrorContains(t, err, "does not serve embeddings")
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		_, _ = w.Write([]byte(`{"embeddings":[[0.5,0.5,0.5,0.5]]}`))
	}))
	defer srv.Close()

	p := &OllamaEmbeddingProvider{alias: "nomic", baseURL: srv.URL, model: "nomic-embed-text", client: srv.Client()}
	vecs, info, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"stamp duty"}, Dimension: 6})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{0.5, 0.5, 0.5, 0.5, 0, 0}}, vecs)
	require.Equal(t, "ollama", info.Name)
}
