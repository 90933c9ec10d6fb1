// Package series provides the bounded, insertion-ordered observation buffer
// that feeds the prediction engine.
package series

import (
	"fmt"
	"math"

	"CryptoPulse/internal/model"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 100

// ValidationError reports an observation rejected at the series boundary.
type ValidationError struct {
	Field string
	Value float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid observation: %s is %v", e.Field, e.Value)
}

// Series is a fixed-capacity FIFO of observations. The most recent entry is last.
type Series struct {
	capacity int
	obs      []model.Observation
}

// New creates an empty series holding at most capacity observations.
func New(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{capacity: capacity, obs: make([]model.Observation, 0, capacity+1)}
}

// Append adds o to the end, evicting the oldest entry once capacity is exceeded.
// Non-finite price or volume is rejected and the buffer is left unchanged.
func (s *Series) Append(o model.Observation) error {
	if !isFinite(o.Price) {
		return &ValidationError{Field: "price", Value: o.Price}
	}
	if !isFinite(o.Volume) {
		return &ValidationError{Field: "volume", Value: o.Volume}
	}
	s.obs = append(s.obs, o)
	if len(s.obs) > s.capacity {
		copy(s.obs, s.obs[1:])
		s.obs = s.obs[:s.capacity]
	}
	return nil
}

// Len returns the number of retained observations.
func (s *Series) Len() int { return len(s.obs) }

// Cap returns the capacity bound.
func (s *Series) Cap() int { return s.capacity }

// Last returns the most recent observation.
func (s *Series) Last() (model.Observation, bool) {
	if len(s.obs) == 0 {
		return model.Observation{}, false
	}
	return s.obs[len(s.obs)-1], true
}

// Prices returns a copy of the retained prices in append order.
func (s *Series) Prices() []float64 {
	out := make([]float64, len(s.obs))
	for i, o := range s.obs {
		out[i] = o.Price
	}
	return out
}

// Volumes returns a copy of the retained volumes in append order.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.obs))
	for i, o := range s.obs {
		out[i] = o.Volume
	}
	return out
}

// Observations returns a copy of the retained observations.
func (s *Series) Observations() []model.Observation {
	out := make([]model.Observation, len(s.obs))
	copy(out, s.obs)
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
