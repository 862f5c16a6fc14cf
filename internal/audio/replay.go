// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "specviz/internal/log"
)

// openReplay feeds a PCM WAV file into the chunk channel at the pace the
// file would play, one FramesPerBuffer period per tick. It stands in for a
// live device, so chunks still go through the non-blocking push.
func openReplay(opts Options) (*Source, error) {
	f, err := os.Open(opts.WAVFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	dec, err := newWAVDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	format := dec.Format()
	depth := int(dec.SampleBitDepth())
	switch depth {
	case 16, 24, 32:
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, depth)
	}

	s := newSource("wav: "+opts.WAVFile, opts.ChannelBuffer)
	s.channels = format.NumChannels
	s.sampleRate = float64(format.SampleRate)

	r := &replayer{
		src:       s,
		file:      f,
		dec:       dec,
		loop:      opts.Loop,
		channels:  format.NumChannels,
		fullScale: float32(int64(1) << (depth - 1)),
		buf: &audio.IntBuffer{
			Format: format,
			Data:   make([]int, opts.FramesPerBuffer*format.NumChannels),
		},
		interleaved: make([]float32, 0, opts.FramesPerBuffer*format.NumChannels),
		done:        make(chan struct{}),
	}

	period := time.Duration(float64(opts.FramesPerBuffer) / s.sampleRate * float64(time.Second))
	r.wg.Add(1)
	go r.run(period)

	s.stop = r.stop

	applog.Infof("Replaying %s (%.0f Hz, %d channels, %d-bit, loop=%v)",
		opts.WAVFile, s.sampleRate, s.channels, depth, opts.Loop)
	return s, nil
}

func newWAVDecoder(f *os.File) (*wav.Decoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrUnsupportedFormat, f.Name())
	}
	format := dec.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate < 1 {
		return nil, fmt.Errorf("%w: %s has no usable format chunk", ErrUnsupportedFormat, f.Name())
	}
	return dec, nil
}

type replayer struct {
	src         *Source
	file        *os.File
	dec         *wav.Decoder
	loop        bool
	channels    int
	fullScale   float32
	buf         *audio.IntBuffer
	interleaved []float32

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func (r *replayer) run(period time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			more, err := r.next()
			if err != nil {
				applog.Errorf("%s: %v", r.src.name, err)
				r.src.closeChunks()
				return
			}
			if !more {
				applog.Infof("%s: end of file", r.src.name)
				r.src.closeChunks()
				return
			}
		}
	}
}

// next pushes one period of audio. It reports false at end of file when not
// looping.
func (r *replayer) next() (bool, error) {
	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read PCM: %w", err)
	}
	if n == 0 {
		if !r.loop {
			return false, nil
		}
		if err := r.rewind(); err != nil {
			return false, err
		}
		if n, err = r.dec.PCMBuffer(r.buf); err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read PCM: %w", err)
		}
		if n == 0 {
			return false, nil
		}
	}

	r.interleaved = r.interleaved[:0]
	for _, v := range r.buf.Data[:n] {
		r.interleaved = append(r.interleaved, float32(v)/r.fullScale)
	}
	r.src.push(Downmix(make([]float32, 0, n/r.channels), r.interleaved, r.channels))
	return true, nil
}

func (r *replayer) rewind() error {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	dec, err := newWAVDecoder(r.file)
	if err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	r.dec = dec
	return nil
}

func (r *replayer) stop() error {
	r.stopOnce.Do(func() { close(r.done) })
	r.wg.Wait()
	return r.file.Close()
}
