// SPDX-License-Identifier: MIT
package dsp

import (
	"math"

	"github.com/viterin/vek"
)

// TimeConstantToCoeff converts a time constant in seconds into the per-update
// blend factor exp(-1/(tc·updateRate)). Non-positive time constants (or rates)
// give 0, i.e. the filter follows its input immediately.
func TimeConstantToCoeff(timeConstant, updateRate float64) float64 {
	if timeConstant <= 0 || updateRate <= 0 {
		return 0
	}
	return math.Exp(-1 / (timeConstant * updateRate))
}

// Smoother is a per-band exponential filter with separate coefficients for
// rising (attack) and falling (decay) input, the classic VU-meter response.
type Smoother struct {
	values []float64
	attack float64
	decay  float64
}

// NewSmoother creates a zeroed smoother for n bands.
func NewSmoother(n int, attackCoeff, decayCoeff float64) *Smoother {
	return &Smoother{
		values: make([]float64, n),
		attack: attackCoeff,
		decay:  decayCoeff,
	}
}

// Coefficients returns the attack and decay blend factors.
func (s *Smoother) Coefficients() (attack, decay float64) {
	return s.attack, s.decay
}

// Update blends x into the state band by band:
//
//	x > s: s = s·attack + x·(1-attack)
//	else:  s = s·decay  + x·(1-decay)
//
// x must have the same length as the smoother.
func (s *Smoother) Update(x []float64) {
	for i, v := range x {
		prev := s.values[i]
		if v > prev {
			s.values[i] = prev*s.attack + v*(1-s.attack)
		} else {
			s.values[i] = prev*s.decay + v*(1-s.decay)
		}
	}
}

// Decay multiplies every band by factor. Used in place of Update when no
// fresh audio is available.
func (s *Smoother) Decay(factor float64) {
	vek.MulNumber_Inplace(s.values, factor)
}

// Values returns the current state. The slice is owned by the Smoother.
func (s *Smoother) Values() []float64 { return s.values }

// Reset zeroes every band.
func (s *Smoother) Reset() {
	clear(s.values)
}
