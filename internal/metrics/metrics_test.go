package metrics

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getMetric returns the value of an unlabelled counter by its fully-qualified name.
func getMetric(mfs []*dto.MetricFamily, name string) float64 {
	for _, mf := range mfs {
		if mf.GetName() == name && len(mf.Metric) > 0 {
			return mf.Metric[0].GetCounter().GetValue()
		}
	}
	return 0
}

func gather(t *testing.T, reg *prometheus.Registry) []*dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	return mfs
}

func TestRegisterAndCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))

	// Collectors are globals; assert on deltas.
	before := gather(t, reg)
	baseLines := getMetric(before, "serialmon_lines_total")
	baseBytes := getMetric(before, "serialmon_bytes_total")
	baseEmpty := getMetric(before, "serialmon_empty_reads_total")
	baseAnomalies := getMetric(before, "serialmon_decode_anomalies_total")
	baseErrors := getMetric(before, "serialmon_read_errors_total")

	ObserveLine(6)
	ObserveLine(0)
	IncEmptyReads()
	IncEmptyReads()
	IncDecodeAnomalies()
	IncReadErrors()

	after := gather(t, reg)
	assert.Equal(t, 1.0, getMetric(after, "serialmon_lines_total")-baseLines)
	assert.Equal(t, 6.0, getMetric(after, "serialmon_bytes_total")-baseBytes)
	assert.Equal(t, 2.0, getMetric(after, "serialmon_empty_reads_total")-baseEmpty)
	assert.Equal(t, 1.0, getMetric(after, "serialmon_decode_anomalies_total")-baseAnomalies)
	assert.Equal(t, 1.0, getMetric(after, "serialmon_read_errors_total")-baseErrors)
}

func TestServerStartStop(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	ObserveLine(1)

	s, err := Start("127.0.0.1:0", "/metrics", reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "serialmon_lines_total")

	require.NoError(t, s.Stop())
}

func TestServerReportsServeFailure(t *testing.T) {
	s, err := Start("127.0.0.1:0", "/metrics", prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.listener.Close())

	select {
	case err, ok := <-s.Err():
		require.True(t, ok)
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve failure was not reported")
	}
}

func TestServerErrClosedAfterStop(t *testing.T) {
	s, err := Start("127.0.0.1:0", "", prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, s.Stop())

	select {
	case err, ok := <-s.Err():
		assert.False(t, ok)
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("error channel not closed after Stop")
	}
}

func TestStopNilServer(t *testing.T) {
	var s *Server
	assert.NoError(t, s.Stop())
	assert.Empty(t, s.Addr())
}
