package audio

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gen2brain/malgo"
	"github.com/gordonklaus/portaudio"

	"specviz/internal/config"
)

// Library seams, replaced in tests.
var (
	paLibInitialize             = portaudio.Initialize
	paLibTerminate              = portaudio.Terminate
	paLibDevicesFunc            = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
	paDevicesFunc               = paDevices
	playbackDevicesFunc         = playbackDevices
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// InputDevice retrieves the audio input device for the given device ID.
// If deviceID is MinDeviceID (-1), returns the system default input device.
// Returns an error if the device ID is invalid, has no input channels, or no
// such device exists.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	if deviceID == config.MinDeviceID {
		device, err := paLibDefaultInputDeviceFunc()
		if err != nil {
			return nil, err
		}
		return device, nil
	}

	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if devices[deviceID].MaxInputChannels <= 0 {
		return nil, fmt.Errorf("device %d (%s) does not support input", deviceID, devices[deviceID].Name)
	}
	return devices[deviceID], nil
}

// ListDevices prints every device the two capture backends can open:
// playback devices usable for loopback, then PortAudio input devices.
func ListDevices() error {
	devices, err := Devices()
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	bold.Printf("\nAvailable Audio Devices\n")

	backend := ""
	for _, d := range devices {
		if d.Backend != backend {
			backend = d.Backend
			cyan.Printf("\n%s (--backend %s)\n\n", BackendTitle(backend), backend)
		}

		fmt.Printf("[%d] %s", d.ID, d.Name)
		if d.IsDefault {
			green.Print(" (default)")
		}
		fmt.Println()

		if d.Backend == config.BackendInput {
			faint.Printf("    Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
			faint.Printf("    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
			faint.Printf("    Latency: Low=%.2fms, High=%.2fms\n", d.LowLatencyMs, d.HighLatencyMs)
		}
	}
	fmt.Println()

	return nil
}

// BackendTitle names a capture backend for device listings.
func BackendTitle(backend string) string {
	switch backend {
	case config.BackendLoopback:
		return "Loopback (playback devices)"
	case config.BackendInput:
		return "Input devices"
	default:
		return backend
	}
}

// paDevices returns all available PortAudio devices, never a nil slice on
// success.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}

// playbackDevices enumerates miniaudio playback devices, which are the
// devices the loopback backend can capture from.
func playbackDevices() ([]Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %v", ErrDeviceUnavailable, err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate playback devices: %v", ErrDeviceUnavailable, err)
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:        i,
			Name:      info.Name(),
			Backend:   config.BackendLoopback,
			IsDefault: info.IsDefault != 0,
		}
	}
	return devices, nil
}
