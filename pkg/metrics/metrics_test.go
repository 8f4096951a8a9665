package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func histogramFor(t *testing.T, stage, status string) *dto.Histogram {
	t.Helper()
	observer, err := ProcessingDuration.GetMetricWithLabelValues(stage, status)
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, observer.(prometheus.Metric).Write(&m))
	require.NotNil(t, m.Histogram)
	return m.Histogram
}

func TestObserveProcessingDuration_KeepsFractionalMilliseconds(t *testing.T) {
	ObserveProcessingDuration("parse", "submilli", 250*time.Microsecond)

	h := histogramFor(t, "parse", "submilli")
	assert.Equal(t, uint64(1), h.GetSampleCount())
	assert.InDelta(t, 0.25, h.GetSampleSum(), 1e-9)

	// A sub-millisecond observation must land in the 1ms bucket, not at 0.
	for _, bucket := range h.GetBucket() {
		if bucket.GetUpperBound() == 1 {
			assert.Equal(t, uint64(1), bucket.GetCumulativeCount())
		}
	}
}

func TestObserveProcessingDuration_WholeMilliseconds(t *testing.T) {
	ObserveProcessingDuration("write", "whole", 30*time.Millisecond)

	h := histogramFor(t, "write", "whole")
	assert.Equal(t, uint64(1), h.GetSampleCount())
	assert.InDelta(t, 30.0, h.GetSampleSum(), 1e-9)
}
