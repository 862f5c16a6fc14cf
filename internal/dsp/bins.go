// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
)

// Audible range covered by the band table.
const (
	MinFrequency = 20.0    // Hz
	MaxFrequency = 20000.0 // Hz, capped further by Nyquist
)

// FrequencyBin is one output band: a frequency range and the inclusive range
// of FFT coefficient indices that fall into it. First > Last marks an empty
// band, which always reads as zero.
type FrequencyBin struct {
	LowHz  float64
	HighHz float64
	First  int
	Last   int
}

// Len returns the number of FFT indices in the band.
func (b FrequencyBin) Len() int {
	if b.Last < b.First {
		return 0
	}
	return b.Last - b.First + 1
}

// Empty reports whether the band covers no FFT index.
func (b FrequencyBin) Empty() bool { return b.Len() == 0 }

// Center returns the arithmetic mean of the band edges.
func (b FrequencyBin) Center() float64 { return (b.LowHz + b.HighHz) / 2 }

// Contains reports whether f lies in [LowHz, HighHz).
func (b FrequencyBin) Contains(f float64) bool { return f >= b.LowHz && f < b.HighHz }

// NewLogBins splits [20 Hz, min(sampleRate/2, 20 kHz)] into count bands of
// equal width on a natural-log axis and maps each onto FFT indices of a
// windowSize-point transform:
//
//	first = floor(lo/nyquist · W/2)
//	last  = ceil(hi/nyquist · W/2)
//
// both clamped to [0, W/2]. Adjacent bands share their edge frequency exactly.
func NewLogBins(sampleRate float64, windowSize, count int) ([]FrequencyBin, error) {
	if count <= 0 {
		return nil, fmt.Errorf("band count must be positive, got %d", count)
	}
	if windowSize < 2 {
		return nil, fmt.Errorf("window size must be at least 2, got %d", windowSize)
	}
	nyquist := sampleRate / 2
	if nyquist <= MinFrequency {
		return nil, fmt.Errorf("sample rate %.1f Hz leaves no room above %.0f Hz", sampleRate, MinFrequency)
	}

	fLow := MinFrequency
	fHigh := math.Min(nyquist, MaxFrequency)
	logLow := math.Log(fLow)
	step := (math.Log(fHigh) - logLow) / float64(count)

	edges := make([]float64, count+1)
	edges[0] = fLow
	for i := 1; i < count; i++ {
		edges[i] = math.Exp(logLow + float64(i)*step)
	}
	edges[count] = fHigh

	half := windowSize / 2
	scale := float64(half) / nyquist

	bins := make([]FrequencyBin, count)
	for i := range bins {
		lo, hi := edges[i], edges[i+1]
		first := clampIndex(int(math.Floor(lo*scale)), half)
		last := clampIndex(int(math.Ceil(hi*scale)), half)
		bins[i] = FrequencyBin{LowHz: lo, HighHz: hi, First: first, Last: last}
	}
	return bins, nil
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
