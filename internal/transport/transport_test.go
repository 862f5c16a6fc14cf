package transport

import (
	"testing"

	"specviz/internal/analyzer"
)

func testFrame() Frame {
	return Frame{
		Seq:       7,
		Timestamp: 1_700_000_000_000_000_000,
		Readings: []analyzer.FrequencyReading{
			{FreqLo: 20, FreqHi: 40, Magnitude: 0.2},
			{FreqLo: 40, FreqHi: 80, Magnitude: 0.9},
			{FreqLo: 80, FreqHi: 160, Magnitude: 0.5},
		},
	}
}

func TestFramePeak(t *testing.T) {
	if got := testFrame().Peak(); got != 1 {
		t.Errorf("Peak() = %d, want 1", got)
	}
	if got := (Frame{}).Peak(); got != -1 {
		t.Errorf("Peak() on empty frame = %d, want -1", got)
	}
}

func TestAsFrame(t *testing.T) {
	f := testFrame()
	if got, ok := AsFrame(f); !ok || got.Seq != 7 {
		t.Errorf("AsFrame(Frame) = %v, %v", got, ok)
	}
	if got, ok := AsFrame(&f); !ok || got.Seq != 7 {
		t.Errorf("AsFrame(*Frame) = %v, %v", got, ok)
	}
	var nilFrame *Frame
	if _, ok := AsFrame(nilFrame); ok {
		t.Error("AsFrame accepted a nil *Frame")
	}
	if _, ok := AsFrame([]float64{1}); ok {
		t.Error("AsFrame accepted a slice")
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	for _, data := range []any{testFrame(), Frame{}, "raw"} {
		if err := lt.Send(data); err != nil {
			t.Errorf("Send(%T) error = %v", data, err)
		}
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
