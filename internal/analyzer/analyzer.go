// SPDX-License-Identifier: MIT
/*
Package analyzer turns a stream of mono audio chunks into a fixed number of
logarithmically spaced, A-weighted, normalised and smoothed band magnitudes.

An Analyzer is polled, never pushed to. Each Poll drains whatever audio has
arrived, and either runs a full transform over the most recent window or, if
nothing new arrived, lets the previous values decay. Poll never blocks and
always returns one reading per band.

An Analyzer is not safe for concurrent use; callers serialise Poll.
*/
package analyzer

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"specviz/internal/dsp"
	applog "specviz/internal/log"
	"specviz/pkg/bitint"
)

// epsilon keeps log10 finite for silent bands.
const epsilon = 1e-10

// ChunkSource delivers mono sample chunks from a capture thread.
type ChunkSource interface {
	Chunks() <-chan []float32
	SampleRate() float64
	Close() error
}

// FrequencyReading is one band of an analysis snapshot.
type FrequencyReading struct {
	FreqLo    float64 `json:"freq_lo"`
	FreqHi    float64 `json:"freq_hi"`
	Magnitude float64 `json:"magnitude"`
}

// Analyzer owns the receiving end of a ChunkSource and every piece of
// analysis state.
type Analyzer struct {
	src        ChunkSource
	chunks     <-chan []float32 // nil once the source has closed it
	params     Params
	sampleRate float64

	buffer    *SampleBuffer
	window    *dsp.Window
	transform *dsp.Transform
	bins      []dsp.FrequencyBin
	weights   dsp.WeightTable
	smoother  *dsp.Smoother

	windowed []float64
	levels   []float64

	closeOnce sync.Once
	closeErr  error
}

// New builds the tables for src's sample rate and p. On error src is left
// open; on success the Analyzer owns it.
func New(src ChunkSource, p Params) (*Analyzer, error) {
	if src == nil {
		return nil, fmt.Errorf("analyzer requires a chunk source")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	sampleRate := src.SampleRate()
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}

	bins, err := dsp.NewLogBins(sampleRate, p.WindowSize, p.Bands)
	if err != nil {
		return nil, err
	}

	if !bitint.IsPowerOfTwo(p.WindowSize) {
		applog.Warnf("Window size %d is not a power of two, %d would transform faster",
			p.WindowSize, bitint.NextPowerOfTwo(p.WindowSize))
	}

	updateRate := sampleRate / float64(p.WindowSize)
	a := &Analyzer{
		src:        src,
		chunks:     src.Chunks(),
		params:     p,
		sampleRate: sampleRate,
		buffer:     NewSampleBuffer(p.HistoryFactor * p.WindowSize),
		window:     dsp.NewWindow(p.Window, p.WindowSize),
		transform:  dsp.NewTransform(p.WindowSize),
		bins:       bins,
		weights:    dsp.NewWeightTable(bins),
		smoother: dsp.NewSmoother(p.Bands,
			dsp.TimeConstantToCoeff(p.AttackTime, updateRate),
			dsp.TimeConstantToCoeff(p.DecayTime, updateRate)),
		windowed: make([]float64, p.WindowSize),
		levels:   make([]float64, p.Bands),
	}

	attack, decay := a.smoother.Coefficients()
	applog.Debugf("Analyzer: %.0f Hz, window %d (%v), %d bands %.1f-%.1f Hz, reducer %v, attack %.4f, decay %.4f",
		sampleRate, p.WindowSize, p.Window, p.Bands,
		bins[0].LowHz, bins[len(bins)-1].HighHz, p.Reducer, attack, decay)

	return a, nil
}

// Poll returns a fresh snapshot of every band in ascending frequency order.
func (a *Analyzer) Poll() []FrequencyReading {
	return a.PollInto(make([]FrequencyReading, 0, len(a.bins)))
}

// PollInto is Poll writing into dst[:0], for callers that reuse a slice.
func (a *Analyzer) PollInto(dst []FrequencyReading) []FrequencyReading {
	fresh := a.drain()

	if fresh && a.buffer.Len() >= a.params.WindowSize {
		a.analyze()
		a.smoother.Update(a.levels)
	} else {
		a.smoother.Decay(a.params.SilenceDecay)
	}

	dst = dst[:0]
	for i, v := range a.smoother.Values() {
		dst = append(dst, FrequencyReading{
			FreqLo:    a.bins[i].LowHz,
			FreqHi:    a.bins[i].HighHz,
			Magnitude: v,
		})
	}
	return dst
}

// drain moves every queued chunk into the sample buffer without blocking and
// reports whether any arrived.
func (a *Analyzer) drain() bool {
	fresh := false
	for a.chunks != nil {
		select {
		case chunk, ok := <-a.chunks:
			if !ok {
				a.chunks = nil
				applog.Debugf("Analyzer: chunk source closed")
				return fresh
			}
			a.buffer.Append(chunk)
			fresh = true
		default:
			return fresh
		}
	}
	return fresh
}

// analyze fills a.levels with normalised band levels for the latest window.
func (a *Analyzer) analyze() {
	block := a.window.Apply(a.windowed, a.buffer.Latest(a.params.WindowSize))
	coeffs := a.transform.Execute(block)

	peak := 0.0
	for i, bin := range a.bins {
		level := 0.0
		if !bin.Empty() {
			weighted := a.reduce(coeffs[bin.First:bin.Last+1]) * a.weights[i]
			level = max(0, (math.Log10(weighted+epsilon)+a.params.LogOffset)/a.params.LogRange)
		}
		a.levels[i] = level
		peak = max(peak, level)
	}

	if peak > 0 {
		for i := range a.levels {
			a.levels[i] = min(1, a.levels[i]/peak)
		}
	}
}

func (a *Analyzer) reduce(coeffs []complex128) float64 {
	var sum float64
	if a.params.Reducer == ReduceRMS {
		for _, c := range coeffs {
			m := cmplx.Abs(c)
			sum += m * m
		}
		return math.Sqrt(sum / float64(len(coeffs)))
	}
	for _, c := range coeffs {
		sum += cmplx.Abs(c)
	}
	return sum / float64(len(coeffs))
}

// Bins returns the band table. The slice must not be modified.
func (a *Analyzer) Bins() []dsp.FrequencyBin { return a.bins }

// Weights returns the per-band A-weighting gains. The slice must not be modified.
func (a *Analyzer) Weights() dsp.WeightTable { return a.weights }

// SampleRate returns the rate the tables were built for.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// Params returns the parameters the Analyzer was built with.
func (a *Analyzer) Params() Params { return a.params }

// Close releases the chunk source and with it the capture stream, exactly
// once. Later calls return the first result.
func (a *Analyzer) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.src.Close()
	})
	return a.closeErr
}
