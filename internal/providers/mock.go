package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 1536
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

// Generate echoes the sentence back for abbreviation expansion and returns a
// deterministic grounded answer otherwise.
func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	input := req.LastUserMessage()
	op := strings.ToLower(req.Operation)
	if strings.Contains(op, "abbrev") {
		return GenerateResponse{Text: input}, info, nil
	}
	query := input
	if i := strings.LastIndex(input, "Query: "); i >= 0 {
		query = strings.TrimSpace(input[i+len("Query: "):])
	}
	passages := 0
	if strings.HasPrefix(input, "Information to search for answers:") {
		passages = strings.Count(input, "\n\n-----\n\n")
	}
	text := "Mock answer to \"" + query + "\" from " + strconv.Itoa(passages) + " passages."
	if len(req.Messages) > 1 {
		text += " Prior turns: " + strconv.Itoa((len(req.Messages)-1)/2) + "."
	}
	return GenerateResponse{Text: text}, info, nil
}

// deterministicVector derives a unit vector from input. Each SHA-256 block
// yields eight components.
func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	var block [32]byte
	for i := 0; i < dim; i++ {
		if i%8 == 0 {
			var ctr [4]byte
			binary.BigEndian.PutUint32(ctr[:], uint32(i/8))
			block = sha256.Sum256(append(append([]byte{}, seed...), ctr[:]...))
		}
		u := binary.BigEndian.Uint32(block[(i%8)*4:])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
