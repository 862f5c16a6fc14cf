// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"testing"
)

func TestSourcePushDropsWhenFull(t *testing.T) {
	s := newSource("test", 2)

	for range 5 {
		s.push([]float32{1})
	}

	if got := len(s.Chunks()); got != 2 {
		t.Errorf("channel holds %d chunks, want 2", got)
	}
	if got := s.Dropped(); got != 3 {
		t.Errorf("dropped = %d, want 3", got)
	}
}

func TestSourcePushIgnoresEmpty(t *testing.T) {
	s := newSource("test", 1)
	if s.push(nil) {
		t.Error("push accepted an empty chunk")
	}
	if s.Dropped() != 0 {
		t.Error("empty chunk counted as dropped")
	}
}

func TestSourceCloseIdempotent(t *testing.T) {
	s := newSource("test", 4)
	stops := 0
	s.stop = func() error {
		stops++
		return errors.New("stop failed")
	}
	s.push([]float32{0.5})

	err1 := s.Close()
	err2 := s.Close()
	if stops != 1 {
		t.Errorf("stop called %d times, want 1", stops)
	}
	if err1 == nil || err1 != err2 {
		t.Errorf("Close errors = %v, %v; want the same stop error twice", err1, err2)
	}

	// Buffered chunk is still delivered, then the channel reports closed.
	if chunk, ok := <-s.Chunks(); !ok || len(chunk) != 1 {
		t.Errorf("expected buffered chunk before close, got %v, %v", chunk, ok)
	}
	if _, ok := <-s.Chunks(); ok {
		t.Error("channel still open after Close")
	}

	if s.push([]float32{1}) {
		t.Error("push succeeded after Close")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(Options{Backend: "jack"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.Backend != "loopback" || o.FramesPerBuffer <= 0 || o.ChannelBuffer <= 0 {
		t.Errorf("unexpected defaults: %+v", o)
	}
}
