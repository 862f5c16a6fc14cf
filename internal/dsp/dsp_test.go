// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"math/cmplx"
	"testing"
)

const (
	testSampleRate = 44100.0
	testWindowSize = 1024
	testBands      = 32
	epsilon        = 1e-9
)

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"", Hann, false},
		{"hann", Hann, false},
		{"Hanning", Hann, false},
		{"HAMMING", Hamming, false},
		{"blackman", Blackman, false},
		{"nuttall", Nuttall, false},
		{"triangle", Hann, true},
	}

	for _, tt := range tests {
		got, err := ParseWindowFunc(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWindowFunc(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWindowEnergy(t *testing.T) {
	// A constant block of amplitude c keeps energy c² after windowing,
	// whichever shape is chosen.
	const c = 0.5
	src := make([]float32, testWindowSize)
	for i := range src {
		src[i] = c
	}
	dst := make([]float64, testWindowSize)

	for _, fn := range []WindowFunc{Hann, Hamming, Blackman, Nuttall} {
		w := NewWindow(fn, testWindowSize)
		out := w.Apply(dst, src)

		var energy float64
		for _, v := range out {
			energy += v * v
		}
		if math.Abs(energy-c*c) > 1e-9 {
			t.Errorf("%v: windowed energy = %g, want %g", fn, energy, c*c)
		}
	}
}

func TestHannSymmetric(t *testing.T) {
	w := NewWindow(Hann, 9)
	coeffs := w.Coefficients()
	if math.Abs(coeffs[0]) > epsilon || math.Abs(coeffs[8]) > epsilon {
		t.Errorf("Hann endpoints = %g, %g, want 0", coeffs[0], coeffs[8])
	}
	if math.Abs(coeffs[4]-1) > epsilon {
		t.Errorf("Hann centre = %g, want 1", coeffs[4])
	}
	for i := range 4 {
		if math.Abs(coeffs[i]-coeffs[8-i]) > epsilon {
			t.Errorf("Hann not symmetric at %d: %g != %g", i, coeffs[i], coeffs[8-i])
		}
	}
}

func TestWindowApplyShortBlock(t *testing.T) {
	w := NewWindow(Hann, 16)
	dst := make([]float64, 16)
	out := w.Apply(dst, make([]float32, 5))
	if len(out) != 5 {
		t.Errorf("Apply on short block returned %d samples, want 5", len(out))
	}
}

func TestTransformSine(t *testing.T) {
	const n = 64
	const k = 4
	block := make([]float64, n)
	for i := range block {
		block[i] = math.Sin(2 * math.Pi * k * float64(i) / n)
	}

	tr := NewTransform(n)
	coeffs := tr.Execute(block)
	if len(coeffs) != n {
		t.Fatalf("Execute returned %d coefficients, want %d", len(coeffs), n)
	}

	peak := 0
	for i := 1; i <= n/2; i++ {
		if cmplx.Abs(coeffs[i]) > cmplx.Abs(coeffs[peak]) {
			peak = i
		}
	}
	if peak != k {
		t.Errorf("peak at index %d, want %d", peak, k)
	}
	if got := cmplx.Abs(coeffs[k]); math.Abs(got-n/2) > 1e-6 {
		t.Errorf("|X[%d]| = %g, want %g", k, got, float64(n/2))
	}
}

func TestTransformZeroPads(t *testing.T) {
	tr := NewTransform(8)
	coeffs := tr.Execute([]float64{1, 1})
	// DC is the sum of the input; the padding contributes nothing.
	if math.Abs(real(coeffs[0])-2) > epsilon || math.Abs(imag(coeffs[0])) > epsilon {
		t.Errorf("X[0] = %v, want 2", coeffs[0])
	}
}

func TestNewLogBins(t *testing.T) {
	bins, err := NewLogBins(testSampleRate, testWindowSize, testBands)
	if err != nil {
		t.Fatalf("NewLogBins failed: %v", err)
	}
	if len(bins) != testBands {
		t.Fatalf("got %d bins, want %d", len(bins), testBands)
	}

	if bins[0].LowHz != MinFrequency {
		t.Errorf("first band starts at %g, want %g", bins[0].LowHz, MinFrequency)
	}
	if bins[len(bins)-1].HighHz != MaxFrequency {
		t.Errorf("last band ends at %g, want %g", bins[len(bins)-1].HighHz, MaxFrequency)
	}

	wantHigh0 := MinFrequency * math.Pow(MaxFrequency/MinFrequency, 1.0/testBands)
	if math.Abs(bins[0].HighHz-wantHigh0) > 1e-6 {
		t.Errorf("first band ends at %g, want %g", bins[0].HighHz, wantHigh0)
	}

	half := testWindowSize / 2
	for i, b := range bins {
		if b.HighHz <= b.LowHz {
			t.Errorf("band %d not ascending: [%g, %g]", i, b.LowHz, b.HighHz)
		}
		if b.First < 0 || b.Last > half {
			t.Errorf("band %d indices [%d, %d] outside [0, %d]", i, b.First, b.Last, half)
		}
		if i > 0 && bins[i-1].HighHz != b.LowHz {
			t.Errorf("band %d low edge %g != band %d high edge %g", i, b.LowHz, i-1, bins[i-1].HighHz)
		}
	}

	// 1 kHz lands in band 18 for this geometry.
	if !bins[18].Contains(1000) {
		t.Errorf("band 18 [%g, %g) does not contain 1000 Hz", bins[18].LowHz, bins[18].HighHz)
	}
}

func TestNewLogBinsNyquistCap(t *testing.T) {
	bins, err := NewLogBins(16000, 512, 8)
	if err != nil {
		t.Fatalf("NewLogBins failed: %v", err)
	}
	if got := bins[len(bins)-1].HighHz; got != 8000 {
		t.Errorf("last band ends at %g, want Nyquist 8000", got)
	}
	if got := bins[len(bins)-1].Last; got != 256 {
		t.Errorf("last band index = %d, want 256", got)
	}
}

func TestNewLogBinsIdempotent(t *testing.T) {
	a, _ := NewLogBins(48000, 2048, 64)
	b, _ := NewLogBins(48000, 2048, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("band %d differs between constructions: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestNewLogBinsInvalid(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		window     int
		count      int
	}{
		{"zero bands", 44100, 1024, 0},
		{"tiny window", 44100, 1, 32},
		{"rate too low", 40, 1024, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLogBins(tt.sampleRate, tt.window, tt.count); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestAWeighting(t *testing.T) {
	// The +2 dB offset puts 1 kHz close to unity.
	if db := AWeightingDB(1000); math.Abs(db) > 0.1 {
		t.Errorf("A(1 kHz) = %.3f dB, want ~0", db)
	}
	if AWeighting(50) >= AWeighting(1000) {
		t.Error("low frequencies should be attenuated relative to 1 kHz")
	}
	if AWeighting(19000) >= AWeighting(2500) {
		t.Error("high frequencies should be attenuated relative to 2.5 kHz")
	}

	bins, _ := NewLogBins(testSampleRate, testWindowSize, testBands)
	table := NewWeightTable(bins)
	for i, w := range table {
		if w <= 0 || math.IsNaN(w) {
			t.Errorf("weight %d = %g, want positive", i, w)
		}
	}
}

func TestTimeConstantToCoeff(t *testing.T) {
	if got := TimeConstantToCoeff(0, 43); got != 0 {
		t.Errorf("zero time constant gave %g, want 0", got)
	}
	if got := TimeConstantToCoeff(-1, 43); got != 0 {
		t.Errorf("negative time constant gave %g, want 0", got)
	}
	fast := TimeConstantToCoeff(0.01, 43.066)
	slow := TimeConstantToCoeff(0.3, 43.066)
	if !(0 < fast && fast < slow && slow < 1) {
		t.Errorf("coefficients out of order: attack %g, decay %g", fast, slow)
	}
}

func TestSmoother(t *testing.T) {
	s := NewSmoother(2, 0.5, 0.9)

	s.Update([]float64{1, 0})
	if got := s.Values()[0]; math.Abs(got-0.5) > epsilon {
		t.Errorf("after attack, value = %g, want 0.5", got)
	}

	s.Update([]float64{0, 0})
	if got := s.Values()[0]; math.Abs(got-0.45) > epsilon {
		t.Errorf("after decay, value = %g, want 0.45", got)
	}

	s.Decay(0.5)
	if got := s.Values()[0]; math.Abs(got-0.225) > epsilon {
		t.Errorf("after flat decay, value = %g, want 0.225", got)
	}

	s.Reset()
	for i, v := range s.Values() {
		if v != 0 {
			t.Errorf("band %d = %g after Reset", i, v)
		}
	}
}

func TestSmootherInstant(t *testing.T) {
	s := NewSmoother(1, 0, 0)
	s.Update([]float64{0.8})
	if got := s.Values()[0]; got != 0.8 {
		t.Errorf("instant smoother = %g, want 0.8", got)
	}
}

func TestSmootherUpdateZeroAllocs(t *testing.T) {
	s := NewSmoother(testBands, 0.1, 0.9)
	x := make([]float64, testBands)
	allocs := testing.AllocsPerRun(100, func() {
		s.Update(x)
		s.Decay(0.95)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in smoother hot path, got %.1f", allocs)
	}
}

func BenchmarkTransform(b *testing.B) {
	w := NewWindow(Hann, testWindowSize)
	tr := NewTransform(testWindowSize)
	src := make([]float32, testWindowSize)
	for i := range src {
		src[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / testSampleRate))
	}
	dst := make([]float64, testWindowSize)

	b.ReportAllocs()
	for b.Loop() {
		tr.Execute(w.Apply(dst, src))
	}
}
