// Package stats implements a single-pass accumulator for categorized event
// statistics, plus a timing helper that distinguishes successful from failed
// spans. Accumulators grow monotonically; resetting one means replacing it.
package stats

import (
	"math"
	"sync"
	"time"
)

// Stats is a point-in-time summary for one category. A category that never
// received a value reports all zeros, including Min and Max.
type Stats struct {
	Last  float64
	Count int64
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

// State accumulates observations for one category in a single pass. The zero
// value is ready to use.
type State struct {
	last  float64
	count int64
	sum   float64
	sum2  float64
	min   float64
	max   float64
}

// Add folds value into the accumulator.
func (s *State) Add(value float64) {
	if s.count == 0 {
		s.min = value
		s.max = value
	} else {
		if value < s.min {
			s.min = value
		}
		if value > s.max {
			s.max = value
		}
	}
	s.last = value
	s.count++
	s.sum += value
	s.sum2 += value * value
}

// Count returns the number of observations folded in so far.
func (s *State) Count() int64 {
	return s.count
}

// Stats derives the summary for the accumulated observations. The standard
// deviation is population-style, computed from the running sum and sum of
// squares.
func (s *State) Stats() Stats {
	if s.count == 0 {
		return Stats{}
	}
	n := float64(s.count)
	mean := s.sum / n
	variance := (s.sum2 - 2.0*s.sum*mean + n*mean*mean) / n
	if variance < 0 {
		// Guards against negative variance from floating point rounding.
		variance = 0
	}
	return Stats{
		Last:  s.last,
		Count: s.count,
		Mean:  mean,
		Std:   math.Sqrt(variance),
		Min:   s.min,
		Max:   s.max,
	}
}

// Running accumulates statistics per category key. Categories are created on
// first use; querying an unknown category returns zero statistics rather than
// an error. Running is safe for concurrent use.
type Running struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewRunning constructs an empty accumulator.
func NewRunning() *Running {
	return &Running{states: make(map[string]*State)}
}

// Add folds value into the accumulator for key, creating it on first use.
func (r *Running) Add(key string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[key]
	if !ok {
		state = &State{}
		r.states[key] = state
	}
	state.Add(value)
}

// Stats returns the summary for key, or zero statistics when key is unknown.
func (r *Running) Stats(key string) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[key]
	if !ok {
		return Stats{}
	}
	return state.Stats()
}

// Keys returns the categories that have received at least one value.
func (r *Running) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.states))
	for key := range r.states {
		keys = append(keys, key)
	}
	return keys
}

// Time runs fn and records the elapsed seconds under key on success, or under
// "failed_" + key when fn returns an error. Exactly one sample is recorded on
// every exit path: a panic in fn is recorded as a failed span before it
// propagates, and the error is returned unchanged.
func (r *Running) Time(key string, fn func() error) (err error) {
	tic := time.Now()
	completed := false
	defer func() {
		elapsed := time.Since(tic).Seconds()
		if completed && err == nil {
			r.Add(key, elapsed)
		} else {
			r.Add(FailedKey(key), elapsed)
		}
	}()
	err = fn()
	completed = true
	return err
}

// FailedKey returns the category under which failed spans of key are recorded.
func FailedKey(key string) string {
	return "failed_" + key
}
