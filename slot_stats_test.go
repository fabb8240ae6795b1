package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsAccumulatePerCategory(t *testing.T) {
	s := newVoltage(t, WithStats[float64]())
	d := &device{}

	for i := 0; i < 3; i++ {
		_, err := s.Get(d)
		require.NoError(t, err)
	}
	require.NoError(t, s.Set(d, 5.0))

	get := s.Stats(d, "get")
	assert.EqualValues(t, 3, get.Count)
	assert.GreaterOrEqual(t, get.Mean, 0.0)
	assert.GreaterOrEqual(t, get.Max, get.Min)
	assert.EqualValues(t, 1, s.Stats(d, "set").Count)
}

func TestStatsFailedAccessesTrackedSeparately(t *testing.T) {
	s := newVoltage(t, WithStats[float64]())
	d := &device{}

	_, err := s.Get(d)
	require.NoError(t, err)
	d.getErr = assert.AnError
	_, err = s.Get(d)
	require.Error(t, err)

	assert.EqualValues(t, 1, s.Stats(d, "get").Count)
	assert.EqualValues(t, 1, s.Stats(d, "failed_get").Count)
}

func TestStatsArePerInstance(t *testing.T) {
	s := newVoltage(t, WithStats[float64]())
	a := &device{}
	b := &device{}

	_, err := s.Get(a)
	require.NoError(t, err)
	_, err = s.Get(a)
	require.NoError(t, err)

	assert.EqualValues(t, 2, s.Stats(a, "get").Count)
	assert.EqualValues(t, 0, s.Stats(b, "get").Count)
}

func TestStatsUnknownCategoryIsZero(t *testing.T) {
	s := newVoltage(t, WithStats[float64]())
	d := &device{}
	assert.Zero(t, s.Stats(d, "delete"))
}

func TestStatsWithoutLayerIsZero(t *testing.T) {
	s := newVoltage(t)
	d := &device{}
	_, err := s.Get(d)
	require.NoError(t, err)
	assert.Zero(t, s.Stats(d, "get"))
}
