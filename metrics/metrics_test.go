package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveCommit()
	m.ObserveCommit()
	m.ObserveRollback()
	m.ObserveAlloc(128)
	m.ObserveRowsScanned(10)
	m.ObserveAdvanceReadLag(3)

	require.Equal(t, float64(2), counterValue(t, m.Commits))
	require.Equal(t, float64(1), counterValue(t, m.Rollbacks))
	require.Equal(t, float64(128), counterValue(t, m.BytesAllocated))
	require.Equal(t, float64(10), counterValue(t, m.RowsScanned))
}

func TestNilMetricsObserveIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveCommit()
		m.ObserveRollback()
		m.ObserveAlloc(1)
		m.ObserveRowsScanned(1)
		m.ObserveAdvanceReadLag(1)
	})
}
