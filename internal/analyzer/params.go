// SPDX-License-Identifier: MIT
package analyzer

import (
	"fmt"
	"strings"

	"specviz/internal/config"
	"specviz/internal/dsp"
)

// Reducer selects how the FFT magnitudes inside one band are combined.
type Reducer int

const (
	// ReduceMean averages |X| over the band's indices.
	ReduceMean Reducer = iota
	// ReduceRMS takes sqrt(mean(|X|²)) over the band's indices.
	ReduceRMS
)

func (r Reducer) String() string {
	if r == ReduceRMS {
		return "rms"
	}
	return "mean"
}

// ParseReducer converts a case-insensitive name into a Reducer. Empty selects
// ReduceMean.
func ParseReducer(name string) (Reducer, error) {
	switch strings.ToLower(name) {
	case "", "mean":
		return ReduceMean, nil
	case "rms":
		return ReduceRMS, nil
	default:
		return ReduceMean, fmt.Errorf("unknown reducer: '%s'", name)
	}
}

// Params fixes the analysis geometry and response of an Analyzer for its
// whole lifetime.
type Params struct {
	WindowSize    int
	Bands         int
	Window        dsp.WindowFunc
	Reducer       Reducer
	AttackTime    float64 // seconds, <= 0 means instant
	DecayTime     float64 // seconds, <= 0 means instant
	SilenceDecay  float64 // per-poll multiplier applied when no fresh audio arrived
	HistoryFactor int     // sample buffer retention, in windows
	LogOffset     float64
	LogRange      float64
}

// DefaultParams returns the built-in analysis profile.
func DefaultParams() Params {
	return Params{
		WindowSize:    config.DefaultWindowSize,
		Bands:         config.DefaultBands,
		Window:        dsp.Hann,
		Reducer:       ReduceMean,
		AttackTime:    config.DefaultAttackTime,
		DecayTime:     config.DefaultDecayTime,
		SilenceDecay:  config.DefaultSilenceDecay,
		HistoryFactor: config.DefaultHistoryFactor,
		LogOffset:     config.DefaultLogOffset,
		LogRange:      config.DefaultLogRange,
	}
}

// ParamsFromConfig maps the analyzer section of the config onto Params.
func ParamsFromConfig(c config.AnalyzerConfig) (Params, error) {
	window, err := dsp.ParseWindowFunc(c.Window)
	if err != nil {
		return Params{}, err
	}
	reducer, err := ParseReducer(c.Reducer)
	if err != nil {
		return Params{}, err
	}
	return Params{
		WindowSize:    c.WindowSize,
		Bands:         c.Bands,
		Window:        window,
		Reducer:       reducer,
		AttackTime:    c.AttackTime,
		DecayTime:     c.DecayTime,
		SilenceDecay:  c.SilenceDecay,
		HistoryFactor: c.HistoryFactor,
		LogOffset:     c.LogOffset,
		LogRange:      c.LogRange,
	}, nil
}

// Validate reports the first parameter that cannot produce a working analyzer.
func (p Params) Validate() error {
	if p.WindowSize < 2 {
		return fmt.Errorf("window size must be at least 2, got %d", p.WindowSize)
	}
	if p.Bands <= 0 {
		return fmt.Errorf("band count must be positive, got %d", p.Bands)
	}
	if p.SilenceDecay < 0 || p.SilenceDecay > 1 {
		return fmt.Errorf("silence decay must be within [0, 1], got %g", p.SilenceDecay)
	}
	if p.HistoryFactor < 1 {
		return fmt.Errorf("history factor must be at least 1, got %d", p.HistoryFactor)
	}
	if p.LogRange <= 0 {
		return fmt.Errorf("log range must be positive, got %g", p.LogRange)
	}
	return nil
}
