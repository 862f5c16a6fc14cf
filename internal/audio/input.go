// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	applog "specviz/internal/log"
)

// maxInputChannels caps how many device channels are opened; anything above
// stereo is averaged away anyway.
const maxInputChannels = 2

// openInput captures from a PortAudio input device. On Linux this is the way
// to capture system output: select the "Monitor of ..." source. PortAudio must
// already be initialised.
func openInput(opts Options) (*Source, error) {
	device, err := InputDevice(opts.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if device == nil || device.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("%w: no input device", ErrDeviceUnavailable)
	}

	channels := min(device.MaxInputChannels, maxInputChannels)
	latency := device.DefaultHighInputLatency
	if opts.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	s := newSource("input: "+device.Name, opts.ChannelBuffer)
	s.channels = channels
	s.sampleRate = device.DefaultSampleRate

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: channels,
			Device:   device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: opts.FramesPerBuffer,
		SampleRate:      device.DefaultSampleRate,
	}

	// PortAudio reuses the callback buffer, so every chunk is a fresh copy.
	stream, err := portaudio.OpenStream(params, func(in []float32) {
		s.push(Downmix(make([]float32, 0, len(in)/channels), in, channels))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open input stream: %v", ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: start input stream: %v", ErrDeviceUnavailable, err)
	}

	s.stop = func() error {
		if err := stream.Stop(); err != nil {
			stream.Close()
			return err
		}
		return stream.Close()
	}

	applog.Infof("Capturing %s (%.0f Hz, %d channels, latency %v)", s.name, s.sampleRate, channels, latency)
	return s, nil
}
