// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDeviceUnavailable is returned when no usable capture device exists
	// or the device cannot be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	// ErrUnsupportedFormat is returned when the device negotiates a sample
	// format outside of SampleFormat.
	ErrUnsupportedFormat = errors.New("unsupported sample format")
)

// SampleFormat is the wire format of interleaved device samples.
type SampleFormat int

const (
	FormatFloat32 SampleFormat = iota
	FormatInt16
	FormatUint16
)

func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32:
		return "f32"
	case FormatInt16:
		return "s16"
	case FormatUint16:
		return "u16"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// BytesPerSample returns the size of one sample of one channel.
func (f SampleFormat) BytesPerSample() int {
	if f == FormatFloat32 {
		return 4
	}
	return 2
}

// Decoder converts a little-endian interleaved byte buffer of the given
// channel count into mono float32 samples, appending to dst.
type Decoder func(dst []float32, raw []byte, channels int) []float32

// DecoderFor resolves the decoder for a format once, at open time.
func DecoderFor(f SampleFormat) (Decoder, error) {
	switch f {
	case FormatFloat32:
		return decodeFloat32, nil
	case FormatInt16:
		return decodeInt16, nil
	case FormatUint16:
		return decodeUint16, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
}

func decodeFloat32(dst []float32, raw []byte, channels int) []float32 {
	return decodeFrames(dst, raw, channels, 4, func(b []byte) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	})
}

func decodeInt16(dst []float32, raw []byte, channels int) []float32 {
	return decodeFrames(dst, raw, channels, 2, func(b []byte) float32 {
		return float32(int16(binary.LittleEndian.Uint16(b))) / 32768
	})
}

func decodeUint16(dst []float32, raw []byte, channels int) []float32 {
	return decodeFrames(dst, raw, channels, 2, func(b []byte) float32 {
		return (float32(binary.LittleEndian.Uint16(b)) - 32768) / 32768
	})
}

// decodeFrames averages each interleaved frame down to one sample. A trailing
// partial frame is dropped.
func decodeFrames(dst []float32, raw []byte, channels, size int, sample func([]byte) float32) []float32 {
	if channels < 1 {
		channels = 1
	}
	frameSize := channels * size
	frames := len(raw) / frameSize
	inv := 1 / float32(channels)
	for i := range frames {
		frame := raw[i*frameSize : (i+1)*frameSize]
		var sum float32
		for c := range channels {
			sum += sample(frame[c*size : (c+1)*size])
		}
		dst = append(dst, sum*inv)
	}
	return dst
}

// Downmix averages interleaved float32 frames into mono, appending to dst.
func Downmix(dst []float32, interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return append(dst, interleaved...)
	}
	frames := len(interleaved) / channels
	inv := 1 / float32(channels)
	for i := range frames {
		var sum float32
		for _, s := range interleaved[i*channels : (i+1)*channels] {
			sum += s
		}
		dst = append(dst, sum*inv)
	}
	return dst
}
