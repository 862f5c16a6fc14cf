package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the capture source, the analyzer and the sinks.
const (
	// Capture defaults
	DefaultBackend         = BackendLoopback
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false
	DefaultChannelBuffer   = 64 // Chunks queued between callback and poll
	DefaultLoopWAV         = true

	// Analyzer defaults
	DefaultWindowSize    = 1024
	DefaultBands         = 32
	DefaultWindow        = "hann"
	DefaultReducer       = "mean"
	DefaultAttackTime    = 0.01 // seconds
	DefaultDecayTime     = 0.3  // seconds
	DefaultSilenceDecay  = 0.95 // per poll without fresh audio
	DefaultHistoryFactor = 2
	DefaultLogOffset     = 6.0
	DefaultLogRange      = 6.0
	DefaultPollInterval  = 16 * time.Millisecond // ~60 fps

	// Sink defaults
	DefaultWebSocketAddr = ":8080"
	DefaultUDPTarget     = "127.0.0.1:9090"
	DefaultMQTTBroker    = "tcp://127.0.0.1:1883"
	DefaultMQTTTopic     = "specviz/frequencies"
	DefaultMQTTClientID  = "specviz"
	DefaultMQTTInterval  = 100 * time.Millisecond

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFile   = "specviz.log" // Used by the terminal UI when log_file is unset
	DefaultVerbosity = false

	// Hardware and processing limits
	MinDeviceID      = -1 // -1 represents system default device
	MinWindowSize    = 16
	MaxWindowSize    = 65536
	MaxBands         = 512
	MinHistoryFactor = 2
	MaxHistoryFactor = 4
	MaxBufferFrames  = 8192
	MinPollInterval  = time.Millisecond
)

// Capture backends.
const (
	BackendLoopback = "loopback" // miniaudio loopback of the default output device
	BackendInput    = "input"    // PortAudio input device, e.g. a monitor source
	BackendWAV      = "wav"      // real-time replay of a PCM WAV file
)
