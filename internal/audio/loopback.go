// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"specviz/internal/config"
	applog "specviz/internal/log"
)

// formatFromMalgo maps a negotiated miniaudio format onto SampleFormat.
func formatFromMalgo(f malgo.FormatType) (SampleFormat, error) {
	switch f {
	case malgo.FormatF32:
		return FormatFloat32, nil
	case malgo.FormatS16:
		return FormatInt16, nil
	default:
		return 0, fmt.Errorf("%w: miniaudio format %d", ErrUnsupportedFormat, f)
	}
}

// openLoopback captures whatever the default (or selected) playback device
// is rendering. Sample rate, channel count and format are left at zero so the
// device's native mix format is used, then read back after init.
func openLoopback(opts Options) (*Source, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %v", ErrDeviceUnavailable, err)
	}
	release := func() {
		_ = ctx.Uninit()
		ctx.Free()
	}

	playback, err := ctx.Devices(malgo.Playback)
	if err != nil {
		release()
		return nil, fmt.Errorf("%w: enumerate playback devices: %v", ErrDeviceUnavailable, err)
	}
	if len(playback) == 0 {
		release()
		return nil, fmt.Errorf("%w: no playback device", ErrDeviceUnavailable)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Loopback)
	deviceConfig.PeriodSizeInFrames = uint32(opts.FramesPerBuffer)

	deviceName := "default output"
	for _, info := range playback {
		if info.IsDefault != 0 {
			deviceName = info.Name()
			break
		}
	}
	if opts.DeviceID != config.MinDeviceID {
		if opts.DeviceID < 0 || opts.DeviceID >= len(playback) {
			release()
			return nil, fmt.Errorf("%w: invalid playback device ID: %d", ErrDeviceUnavailable, opts.DeviceID)
		}
		deviceConfig.Capture.DeviceID = playback[opts.DeviceID].ID.Pointer()
		deviceName = playback[opts.DeviceID].Name()
	}

	s := newSource("loopback: "+deviceName, opts.ChannelBuffer)

	var (
		decode   Decoder
		channels int
	)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			s.push(decode(make([]float32, 0, frameCount), input, channels))
		},
		Stop: func() {
			if !s.isClosed() {
				applog.Warnf("%s: device stopped unexpectedly", s.name)
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		release()
		return nil, fmt.Errorf("%w: init loopback device: %v", ErrDeviceUnavailable, err)
	}

	format, err := formatFromMalgo(device.CaptureFormat())
	if err != nil {
		device.Uninit()
		release()
		return nil, err
	}
	decode, _ = DecoderFor(format)
	channels = int(device.CaptureChannels())
	s.channels = channels
	s.sampleRate = float64(device.SampleRate())

	if err := device.Start(); err != nil {
		device.Uninit()
		release()
		return nil, fmt.Errorf("%w: start loopback device: %v", ErrDeviceUnavailable, err)
	}

	s.stop = func() error {
		err := device.Stop()
		device.Uninit()
		release()
		return err
	}

	applog.Infof("Capturing %s (%.0f Hz, %d channels, %v)", s.name, s.sampleRate, channels, format)
	return s, nil
}
