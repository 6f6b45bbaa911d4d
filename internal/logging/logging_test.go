package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewWritesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(Config{Level: "debug", Output: &buf}), "library")
	l.Debug().Str("act_id", "karnataka-12-2001").Msg("act catalog built")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "legalqa", line["service"])
	require.Equal(t, "library", line["component"])
	require.Equal(t, "karnataka-12-2001", line["act_id"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.WarnLevel, parseLevel("WARN"))
	require.Equal(t, zerolog.InfoLevel, parseLevel("verbose"))
}
