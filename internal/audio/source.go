// SPDX-License-Identifier: MIT
/*
Package audio captures live audio and delivers it as mono float32 chunks over
a bounded channel.

Three backends share the same Source:
  - loopback: the default output device through miniaudio (malgo)
  - input: a PortAudio input device, e.g. a PulseAudio monitor source
  - wav: a PCM file replayed at real-time pace

Capture callbacks never block. When the consumer falls behind, chunks are
dropped and counted.
*/
package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"specviz/internal/config"
	applog "specviz/internal/log"
)

// Options selects and tunes a capture backend.
type Options struct {
	Backend         string
	DeviceID        int
	WAVFile         string
	Loop            bool
	FramesPerBuffer int
	LowLatency      bool
	ChannelBuffer   int
}

// OptionsFromConfig maps the audio section of the config onto Options.
func OptionsFromConfig(c config.AudioConfig) Options {
	return Options{
		Backend:         c.Backend,
		DeviceID:        c.InputDevice,
		WAVFile:         c.WAVFile,
		Loop:            c.Loop,
		FramesPerBuffer: c.FramesPerBuffer,
		LowLatency:      c.LowLatency,
		ChannelBuffer:   c.ChannelBuffer,
	}
}

func (o Options) withDefaults() Options {
	if o.Backend == "" {
		o.Backend = config.DefaultBackend
	}
	if o.FramesPerBuffer <= 0 {
		o.FramesPerBuffer = config.DefaultFramesPerBuffer
	}
	if o.ChannelBuffer <= 0 {
		o.ChannelBuffer = config.DefaultChannelBuffer
	}
	return o
}

// Source is an open capture stream. The receiving end of Chunks belongs to
// the consumer; the Source owns the device and the sending end.
type Source struct {
	name       string
	sampleRate float64
	channels   int

	mu     sync.RWMutex // guards closed against concurrent push
	closed bool
	chunks chan []float32

	dropped atomic.Uint64

	stop      func() error
	closeOnce sync.Once
	closeErr  error
}

// Open starts capture on the backend named in opts.
func Open(opts Options) (*Source, error) {
	opts = opts.withDefaults()
	switch opts.Backend {
	case config.BackendLoopback:
		return openLoopback(opts)
	case config.BackendInput:
		return openInput(opts)
	case config.BackendWAV:
		return openReplay(opts)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", opts.Backend)
	}
}

func newSource(name string, bufferSize int) *Source {
	return &Source{
		name:   name,
		chunks: make(chan []float32, bufferSize),
	}
}

// Chunks returns the channel of mono chunks. It is closed after Close or when
// a non-looping replay reaches the end of its file.
func (s *Source) Chunks() <-chan []float32 { return s.chunks }

// SampleRate is the negotiated rate in Hz. Constant for the life of the Source.
func (s *Source) SampleRate() float64 { return s.sampleRate }

// Channels is the device channel count before downmixing.
func (s *Source) Channels() int { return s.channels }

// Name describes the backend and device.
func (s *Source) Name() string { return s.name }

// Dropped returns how many chunks were discarded because the channel was full.
func (s *Source) Dropped() uint64 { return s.dropped.Load() }

// push hands a chunk to the consumer without blocking. Ownership of chunk
// passes to the receiver on success.
func (s *Source) push(chunk []float32) bool {
	if len(chunk) == 0 {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	select {
	case s.chunks <- chunk:
		return true
	default:
		if n := s.dropped.Add(1); n%100 == 0 {
			applog.Warnf("%s: consumer behind, dropped %d chunks", s.name, n)
		}
		return false
	}
}

// isClosed reports whether the sending end has been shut.
func (s *Source) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// closeChunks shuts the sending end once.
func (s *Source) closeChunks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.chunks)
	}
}

// Close stops the stream, releases the device and closes the channel.
// Safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.closeErr = s.stop()
		}
		s.closeChunks()
		if n := s.dropped.Load(); n > 0 {
			applog.Infof("%s: closed, %d chunks dropped in total", s.name, n)
		}
	})
	return s.closeErr
}
