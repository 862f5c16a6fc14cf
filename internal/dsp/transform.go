// SPDX-License-Identifier: MIT
package dsp

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform is a forward DFT plan for a fixed number of points. The gonum
// plan accepts any length; powers of two are simply faster.
type Transform struct {
	n    int
	plan *fourier.CmplxFFT
	in   []complex128 // real input widened to complex, zero padded
	out  []complex128 // coefficients, ascending bin order
}

// NewTransform pre-allocates the plan and buffers for n points.
func NewTransform(n int) *Transform {
	return &Transform{
		n:    n,
		plan: fourier.NewCmplxFFT(n),
		in:   make([]complex128, n),
		out:  make([]complex128, n),
	}
}

// Len returns the number of points the plan was built for.
func (t *Transform) Len() int { return t.n }

// Execute transforms an already windowed real block into n complex
// coefficients. A block shorter than n is padded with trailing zeros; extra
// samples beyond n are ignored. The returned slice is owned by the Transform
// and is overwritten by the next call.
func (t *Transform) Execute(block []float64) []complex128 {
	for i := range t.in {
		if i < len(block) {
			t.in[i] = complex(block[i], 0)
		} else {
			t.in[i] = 0
		}
	}
	return t.plan.Coefficients(t.out, t.in)
}
