package telemetry

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/nebula/internal/grid"
	"github.com/san-kum/nebula/internal/nebula"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ nebula.Observer = (*Collector)(nil)

func TestCollectorCountsEngineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, prometheus.Labels{"run": "test"})
	require.NoError(t, err)

	e := nebula.New(nebula.WithObserver(c), nebula.WithWorkers(1))
	defer e.Close()
	p := nebula.DefaultParams()
	p.Substeps = 2
	p.Disk.Grid = grid.Shape{Width: 4, Height: 4}
	require.NoError(t, e.Configure(p))
	require.NoError(t, e.Reset(1))

	e.Advance(0.016)
	e.Advance(0.016)
	e.Advance(math.NaN())
	e.Advance(-1)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.resets))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.steps))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.rejected))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.generation))
	assert.Equal(t, 16.0, testutil.ToFloat64(c.particles))
	assert.InDelta(t, 0.032, testutil.ToFloat64(c.simTime), 1e-12)
	assert.Equal(t, 1, testutil.CollectAndCount(c.stepTime))
}

func TestCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg, prometheus.Labels{"run": "a"})
	require.NoError(t, err)

	_, err = NewCollector(reg, prometheus.Labels{"run": "a"})
	assert.Error(t, err)

	_, err = NewCollector(reg, prometheus.Labels{"run": "b"})
	assert.NoError(t, err)
}
