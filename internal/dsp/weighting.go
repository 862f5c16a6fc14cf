// SPDX-License-Identifier: MIT
package dsp

import "math"

// A-weighting pole frequencies (Hz) from IEC 61672-1.
const (
	aPole1 = 20.6
	aPole2 = 107.7
	aPole3 = 737.9
	aPole4 = 12194.0

	// aOffsetDB lifts the curve so that 1 kHz sits at roughly 0 dB.
	aOffsetDB = 2.0
)

// AWeightingDB returns the A-weighting response at f in decibels.
// f <= 0 returns -Inf.
func AWeightingDB(f float64) float64 {
	f2 := f * f
	f4 := f2 * f2

	num := aPole4 * aPole4 * f4
	den := (f2 + aPole1*aPole1) *
		math.Sqrt((f2+aPole2*aPole2)*(f2+aPole3*aPole3)) *
		(f2 + aPole4*aPole4)

	return 20*math.Log10(num/den) + aOffsetDB
}

// AWeighting returns the A-weighting response at f as a linear gain.
func AWeighting(f float64) float64 {
	return math.Pow(10, AWeightingDB(f)/20)
}

// WeightTable holds one linear gain per band, in band order.
type WeightTable []float64

// NewWeightTable evaluates the A-weighting gain at each band's center frequency.
func NewWeightTable(bins []FrequencyBin) WeightTable {
	w := make(WeightTable, len(bins))
	for i, b := range bins {
		w[i] = AWeighting(b.Center())
	}
	return w
}
