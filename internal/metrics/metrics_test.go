package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveQueryCountsByStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveQuery("search_sections", time.Now(), nil)
	m.ObserveQuery("search_sections", time.Now(), errors.New("boom"))
	m.ObserveQuery("search_sections", time.Now(), errors.New("boom"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("search_sections", "ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("search_sections", "error")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CatalogBuilt()
	m.ObserveLLMCall("answer", nil)
	m.BlobRetried()
}
