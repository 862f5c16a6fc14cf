package audio

import (
	"specviz/internal/config"
	applog "specviz/internal/log"
)

// Device represents an audio device on one of the capture backends.
type Device struct {
	ID                int
	Name              string
	Backend           string
	IsDefault         bool
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowLatencyMs      float64
	HighLatencyMs     float64
}

// HostDevices returns the PortAudio devices. PortAudio must be initialised.
func HostDevices() ([]Device, error) {
	paDeviceInfos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	var defaultName string
	if def, err := paLibDefaultInputDeviceFunc(); err == nil && def != nil {
		defaultName = def.Name
	}

	devices := make([]Device, len(paDeviceInfos))
	for i, info := range paDeviceInfos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			Backend:           config.BackendInput,
			IsDefault:         info.Name == defaultName,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			LowLatencyMs:      info.DefaultLowInputLatency.Seconds() * 1000,
			HighLatencyMs:     info.DefaultHighInputLatency.Seconds() * 1000,
		}
	}

	return devices, nil
}

// Devices returns loopback-capable playback devices followed by PortAudio
// devices. A backend that cannot enumerate is logged and skipped; an error is
// returned only when neither can.
func Devices() ([]Device, error) {
	playback, pbErr := playbackDevicesFunc()
	if pbErr != nil {
		applog.Warnf("Loopback devices unavailable: %v", pbErr)
	}

	host, hostErr := HostDevices()
	if hostErr != nil {
		applog.Warnf("PortAudio devices unavailable: %v", hostErr)
	}

	if pbErr != nil && hostErr != nil {
		return nil, hostErr
	}

	devices := make([]Device, 0, len(playback)+len(host))
	devices = append(devices, playback...)
	devices = append(devices, host...)
	return devices, nil
}
