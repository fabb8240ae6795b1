package stats

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSingleValue(t *testing.T) {
	state := &State{}
	state.Add(3)

	got := state.Stats()
	assert.Equal(t, 3.0, got.Last)
	assert.Equal(t, int64(1), got.Count)
	assert.Equal(t, 3.0, got.Mean)
	assert.Equal(t, 0.0, got.Std)
	assert.Equal(t, 3.0, got.Min)
	assert.Equal(t, 3.0, got.Max)
}

func TestStatePopulationStd(t *testing.T) {
	state := &State{}
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		state.Add(v)
	}

	got := state.Stats()
	assert.Equal(t, int64(8), got.Count)
	assert.Equal(t, 5.0, got.Mean)
	// Population std of the classic sample set is exactly 2.
	assert.InDelta(t, 2.0, got.Std, 1e-9)
	assert.Equal(t, 2.0, got.Min)
	assert.Equal(t, 9.0, got.Max)
	assert.Equal(t, 9.0, got.Last)
}

func TestStateNegativeValues(t *testing.T) {
	state := &State{}
	state.Add(-2)
	state.Add(-8)

	got := state.Stats()
	assert.Equal(t, -8.0, got.Min)
	assert.Equal(t, -2.0, got.Max)
	assert.False(t, math.IsInf(got.Min, 0))
}

func TestRunningUnknownCategoryIsZero(t *testing.T) {
	running := NewRunning()

	got := running.Stats("never")
	assert.Equal(t, Stats{}, got)
}

func TestRunningCategoriesAreIndependent(t *testing.T) {
	running := NewRunning()
	running.Add("get", 1)
	running.Add("get", 3)
	running.Add("set", 10)

	assert.Equal(t, int64(2), running.Stats("get").Count)
	assert.Equal(t, 2.0, running.Stats("get").Mean)
	assert.Equal(t, int64(1), running.Stats("set").Count)
	assert.ElementsMatch(t, []string{"get", "set"}, running.Keys())
}

func TestTimeRecordsSuccess(t *testing.T) {
	running := NewRunning()

	err := running.Time("get", func() error { return nil })
	require.NoError(t, err)

	assert.Equal(t, int64(1), running.Stats("get").Count)
	assert.Equal(t, int64(0), running.Stats("failed_get").Count)
}

func TestTimeRecordsFailureAndReturnsError(t *testing.T) {
	running := NewRunning()
	boom := errors.New("boom")

	err := running.Time("get", func() error { return boom })
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(0), running.Stats("get").Count)
	assert.Equal(t, int64(1), running.Stats("failed_get").Count)
}

func TestTimeRecordsExactlyOnce(t *testing.T) {
	running := NewRunning()

	for i := 0; i < 5; i++ {
		_ = running.Time("call", func() error { return nil })
	}
	_ = running.Time("call", func() error { return errors.New("boom") })

	assert.Equal(t, int64(5), running.Stats("call").Count)
	assert.Equal(t, int64(1), running.Stats(FailedKey("call")).Count)
}

func TestTimeRecordsPanicAsFailed(t *testing.T) {
	running := NewRunning()

	assert.Panics(t, func() {
		_ = running.Time("call", func() error { panic("wedged") })
	})

	assert.Equal(t, int64(0), running.Stats("call").Count)
	assert.Equal(t, int64(1), running.Stats(FailedKey("call")).Count)
}
