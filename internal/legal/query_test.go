package legal

import (
	"context"
	"errors"
	"testing"

	"legalqa/internal/providers"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type erroringLLM struct{ err error }

func (e erroringLLM) Generate(context.Context, providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	return providers.GenerateResponse{}, providers.ProviderInfo{Name: "stub"}, e.err
}

type expandingLLM struct{ out string }

func (e expandingLLM) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	if req.System != abbreviationSystemPrompt {
		return providers.GenerateResponse{}, providers.ProviderInfo{}, errors.New("unexpected system prompt")
	}
	return providers.GenerateResponse{Text: e.out}, providers.ProviderInfo{Name: "stub"}, nil
}

func TestStripFillers(t *testing.T) {
	cases := map[string]string{
		"Tell me about section 5 of the Motor Vehicles Act": "about section 5 of the Motor Vehicles Act",
		"give me section 3 of the stamp act":                "section 3 of the stamp act",
		"Find sec 12A":                                      "sec 12A",
		"Please GET ME section IV and then tell":            "Please section IV and then",
		"Together with the Target":                          "Together with the Target",
		"   section 9   ":                                   "section 9",
	}
	for in, want := range cases {
		require.Equal(t, want, StripFillers(in), in)
	}
}

func TestPreprocessExpandsThenStrips(t *testing.T) {
	p := NewPreprocessor(expandingLLM{out: "Tell me section 5 of the Motor Vehicles Act"}, nil, zerolog.Nop())
	out, err := p.Preprocess(context.Background(), "Tell me sec 5 of MV Act")
	require.NoError(t, err)
	require.Equal(t, "section 5 of the Motor Vehicles Act", out)
}

func TestPreprocessWithoutLLM(t *testing.T) {
	p := NewPreprocessor(nil, nil, zerolog.Nop())
	out, err := p.Preprocess(context.Background(), " Find me sec 3 ")
	require.NoError(t, err)
	require.Equal(t, "sec 3", out)
}

func TestPreprocessRateLimitIsServiceUnavailable(t *testing.T) {
	p := NewPreprocessor(erroringLLM{err: errors.New("openai generate error 429: rate limit")}, nil, zerolog.Nop())
	_, err := p.Preprocess(context.Background(), "sec 3")
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestPreprocessPermanentErrorPropagates(t *testing.T) {
	p := NewPreprocessor(erroringLLM{err: errors.New("bad request")}, nil, zerolog.Nop())
	_, err := p.Preprocess(context.Background(), "sec 3")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrServiceUnavailable)
}
