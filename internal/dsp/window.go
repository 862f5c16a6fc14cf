// SPDX-License-Identifier: MIT
/*
Package dsp holds the numerical stages of the spectrum pipeline:

  - Window: analysis window coefficients normalised to unit energy
  - Transform: a reusable forward FFT plan of fixed length
  - FrequencyBin: logarithmic bands mapped onto FFT index ranges
  - WeightTable: A-weighting gains per band
  - Smoother: asymmetric attack/decay filter per band

Every table is computed once at construction and is read-only afterwards.
None of the types are safe for concurrent mutation.
*/
package dsp

import (
	"fmt"
	"math"
	"strings"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc defines the type for selecting an analysis window function.
type WindowFunc int

// Enum for available window functions.
const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Lanczos
	Nuttall
)

// String returns the lower-case name accepted by ParseWindowFunc.
func (w WindowFunc) String() string {
	switch w {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case BartlettHann:
		return "bartletthann"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Hann) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// Window is a fixed analysis window whose coefficients are pre-divided by
// the window's own energy norm sqrt(Σw²). Applying it to a block therefore
// leaves a constant-amplitude signal with total energy equal to c², whatever
// the window shape.
type Window struct {
	fn     WindowFunc
	raw    []float64 // w[i]
	scaled []float64 // w[i] / Norm
	norm   float64   // sqrt(Σw²)
}

// NewWindow builds the coefficients for a window of length n >= 2. The Hann
// window is the symmetric form 0.5·(1-cos(2πi/(N-1))).
func NewWindow(fn WindowFunc, n int) *Window {
	raw := make([]float64, n)
	for i := range raw {
		raw[i] = 1.0
	}
	switch fn {
	case Hamming:
		window.Hamming(raw)
	case Blackman:
		window.Blackman(raw)
	case BlackmanNuttall:
		window.BlackmanNuttall(raw)
	case BartlettHann:
		window.BartlettHann(raw)
	case Lanczos:
		window.Lanczos(raw)
	case Nuttall:
		window.Nuttall(raw)
	default:
		fn = Hann
		window.Hann(raw)
	}

	norm := math.Sqrt(vek.Dot(raw, raw))
	scaled := make([]float64, n)
	copy(scaled, raw)
	if norm > 0 {
		vek.DivNumber_Inplace(scaled, norm)
	}

	return &Window{fn: fn, raw: raw, scaled: scaled, norm: norm}
}

// Func reports which window function the coefficients were built from.
func (w *Window) Func() WindowFunc { return w.fn }

// Len returns the window length.
func (w *Window) Len() int { return len(w.raw) }

// Norm returns sqrt(Σw²) of the unscaled window.
func (w *Window) Norm() float64 { return w.norm }

// Coefficients returns the unscaled window. The slice must not be modified.
func (w *Window) Coefficients() []float64 { return w.raw }

// Apply writes src[i]·w[i]/Norm into dst and returns dst[:len(src)].
// src may be shorter than the window; dst must be at least len(src) long.
func (w *Window) Apply(dst []float64, src []float32) []float64 {
	n := min(len(src), len(w.scaled))
	dst = dst[:n]
	for i := range dst {
		dst[i] = float64(src[i])
	}
	vek.Mul_Inplace(dst, w.scaled[:n])
	return dst
}
