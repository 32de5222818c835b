package rangehnsw

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	var mc BasicMetricsCollector

	mc.RecordBuild(100, 2*time.Second, nil)
	mc.RecordBuild(100, 4*time.Second, errors.New("boom"))
	mc.RecordNodeBuild(50, time.Millisecond)
	mc.RecordNodeBuild(25, time.Millisecond)
	mc.RecordQuery(10, 100*time.Microsecond, nil)
	mc.RecordQuery(10, 300*time.Microsecond, errors.New("boom"))

	s := mc.GetStats()
	assert.Equal(t, int64(2), s.BuildCount)
	assert.Equal(t, int64(1), s.BuildErrors)
	assert.Equal(t, int64(3*time.Second), s.BuildAvgNanos)
	assert.Equal(t, int64(2), s.NodeBuildCount)
	assert.Equal(t, int64(75), s.NodeBuildElems)
	assert.Equal(t, int64(2), s.QueryCount)
	assert.Equal(t, int64(1), s.QueryErrors)
	assert.Equal(t, int64(200*time.Microsecond), s.QueryAvgNanos)
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := NewPrometheusCollector(reg)

	mc.RecordBuild(100, time.Second, nil)
	mc.RecordNodeBuild(50, time.Millisecond)
	mc.RecordQuery(10, time.Millisecond, nil)
	mc.RecordQuery(10, time.Millisecond, errors.New("boom"))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
