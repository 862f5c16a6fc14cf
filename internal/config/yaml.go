// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	applog "specviz/internal/log"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envFile is loaded into the process environment before ENV_* overrides
// are applied. Missing files are ignored.
var envFile = ".env"

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (forces debug log level).
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	LogFile   string          `yaml:"log_file"`  // Optional log file; the terminal UI always needs one to keep the screen clean.
	Headless  bool            `yaml:"headless"`  // Run without the terminal UI, sinks only.
	Audio     AudioConfig     `yaml:"audio"`     // Capture source settings.
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`  // Spectrum analysis settings.
	Transport TransportConfig `yaml:"transport"` // Presentation sinks.
}

// AudioConfig holds settings related to the capture source.
type AudioConfig struct {
	Backend         string `yaml:"backend"`           // "loopback", "input" or "wav".
	InputDevice     int    `yaml:"input_device"`      // PortAudio device index for the input backend (-1 for default).
	WAVFile         string `yaml:"wav_file"`          // File replayed by the wav backend.
	Loop            bool   `yaml:"loop"`              // Restart the wav file at EOF.
	FramesPerBuffer int    `yaml:"frames_per_buffer"` // Frames per hardware callback (affects latency).
	LowLatency      bool   `yaml:"low_latency"`       // Request the device's low latency setting.
	ChannelBuffer   int    `yaml:"channel_buffer"`    // Capacity of the chunk channel between callback and poll.
}

// AnalyzerConfig holds the spectrum analysis parameters. Every constant the
// smoothing and scaling stages use is configurable here.
type AnalyzerConfig struct {
	WindowSize    int           `yaml:"window_size"`    // FFT window length in samples.
	Bands         int           `yaml:"bands"`          // Number of logarithmic output bands.
	Window        string        `yaml:"window"`         // Analysis window ("hann", "hamming", ...).
	Reducer       string        `yaml:"reducer"`        // Per-band aggregation: "mean" or "rms".
	AttackTime    float64       `yaml:"attack_time"`    // Attack time constant in seconds.
	DecayTime     float64       `yaml:"decay_time"`     // Decay time constant in seconds.
	SilenceDecay  float64       `yaml:"silence_decay"`  // Flat multiplier applied when no fresh audio arrived.
	HistoryFactor int           `yaml:"history_factor"` // Sample buffer bound as a multiple of the window.
	LogOffset     float64       `yaml:"log_offset"`     // Offset added to log10 magnitudes.
	LogRange      float64       `yaml:"log_range"`      // Divisor mapping offset log magnitudes into [0,1].
	PollInterval  time.Duration `yaml:"poll_interval"`  // Interval between analyzer polls.
}

// TransportConfig holds settings related to sending readings to presentation layers.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve readings at ws://addr/frequencies.
	WebSocketAddr    string        `yaml:"websocket_addr"`     // Listen address for the WebSocket server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	MQTTEnabled      bool          `yaml:"mqtt_enabled"`       // Publish readings to an MQTT broker.
	MQTTBroker       string        `yaml:"mqtt_broker"`        // Broker URL, e.g. "tcp://127.0.0.1:1883".
	MQTTTopic        string        `yaml:"mqtt_topic"`         // Topic readings are published to.
	MQTTClientID     string        `yaml:"mqtt_client_id"`     // MQTT client identifier.
	MQTTUsername     string        `yaml:"mqtt_username"`      // Optional broker credentials.
	MQTTPassword     string        `yaml:"mqtt_password"`      // Optional broker credentials.
	MQTTInterval     time.Duration `yaml:"mqtt_interval"`      // Minimum interval between MQTT publishes.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Backend:         DefaultBackend,
			InputDevice:     DefaultDeviceID,
			Loop:            DefaultLoopWAV,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			ChannelBuffer:   DefaultChannelBuffer,
		},
		Analyzer: AnalyzerConfig{
			WindowSize:    DefaultWindowSize,
			Bands:         DefaultBands,
			Window:        DefaultWindow,
			Reducer:       DefaultReducer,
			AttackTime:    DefaultAttackTime,
			DecayTime:     DefaultDecayTime,
			SilenceDecay:  DefaultSilenceDecay,
			HistoryFactor: DefaultHistoryFactor,
			LogOffset:     DefaultLogOffset,
			LogRange:      DefaultLogRange,
			PollInterval:  DefaultPollInterval,
		},
		Transport: TransportConfig{
			WebSocketAddr:    DefaultWebSocketAddr,
			UDPTargetAddress: DefaultUDPTarget,
			MQTTBroker:       DefaultMQTTBroker,
			MQTTTopic:        DefaultMQTTTopic,
			MQTTClientID:     DefaultMQTTClientID,
			MQTTInterval:     DefaultMQTTInterval,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it loads a .env file if present,
// applies environment variable overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"config.yaml", "specviz.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvFile merges KEY=VALUE pairs from name into the environment without
// replacing variables that are already set.
func loadEnvFile(name string) error {
	if name == "" {
		return nil
	}
	if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", name, err)
	}
	return nil
}

// Validate checks every field against the limits in config.go.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	switch c.Audio.Backend {
	case BackendLoopback, BackendInput:
	case BackendWAV:
		if c.Audio.WAVFile == "" {
			return fmt.Errorf("audio.wav_file must be set for the %q backend", BackendWAV)
		}
	default:
		return fmt.Errorf("audio.backend %q is not one of %s, %s, %s",
			c.Audio.Backend, BackendLoopback, BackendInput, BackendWAV)
	}
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer must be in (0, %d], got %d", MaxBufferFrames, c.Audio.FramesPerBuffer)
	}
	if c.Audio.ChannelBuffer <= 0 {
		return fmt.Errorf("audio.channel_buffer must be positive, got %d", c.Audio.ChannelBuffer)
	}

	a := c.Analyzer
	if a.WindowSize < MinWindowSize || a.WindowSize > MaxWindowSize {
		return fmt.Errorf("analyzer.window_size must be in [%d, %d], got %d", MinWindowSize, MaxWindowSize, a.WindowSize)
	}
	if a.Bands <= 0 || a.Bands > MaxBands {
		return fmt.Errorf("analyzer.bands must be in [1, %d], got %d", MaxBands, a.Bands)
	}
	if a.AttackTime < 0 || a.DecayTime < 0 {
		return fmt.Errorf("analyzer attack_time and decay_time must not be negative")
	}
	if a.SilenceDecay < 0 || a.SilenceDecay > 1 {
		return fmt.Errorf("analyzer.silence_decay must be in [0, 1], got %g", a.SilenceDecay)
	}
	if a.HistoryFactor < MinHistoryFactor || a.HistoryFactor > MaxHistoryFactor {
		return fmt.Errorf("analyzer.history_factor must be in [%d, %d], got %d", MinHistoryFactor, MaxHistoryFactor, a.HistoryFactor)
	}
	if a.LogRange <= 0 {
		return fmt.Errorf("analyzer.log_range must be positive, got %g", a.LogRange)
	}
	if a.PollInterval < MinPollInterval {
		return fmt.Errorf("analyzer.poll_interval must be at least %s, got %s", MinPollInterval, a.PollInterval)
	}

	t := c.Transport
	if t.WebSocketEnabled && t.WebSocketAddr == "" {
		return fmt.Errorf("transport.websocket_addr must be set when the WebSocket sink is enabled")
	}
	if t.UDPEnabled && !strings.Contains(t.UDPTargetAddress, ":") {
		return fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress)
	}
	if t.MQTTEnabled && (t.MQTTBroker == "" || t.MQTTTopic == "") {
		return fmt.Errorf("transport.mqtt_broker and transport.mqtt_topic must be set when MQTT is enabled")
	}

	return nil
}

// applyEnvOverrides replaces selected fields from ENV_* variables. Unparseable
// values are reported and ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Debugf("configuration: Overriding debug from env: %v", bVal)
		} else {
			applog.Warnf("configuration: Ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Debugf("configuration: Overriding log_level from env: %s", val)
	}
	// ENV_BACKEND
	if val, ok := os.LookupEnv("ENV_BACKEND"); ok {
		cfg.Audio.Backend = val
		applog.Debugf("configuration: Overriding audio.backend from env: %s", val)
	}
	// ENV_POLL_INTERVAL
	if val, ok := os.LookupEnv("ENV_POLL_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Analyzer.PollInterval = dur
			applog.Debugf("configuration: Overriding analyzer.poll_interval from env: %s", dur)
		} else {
			applog.Warnf("configuration: Ignoring ENV_POLL_INTERVAL=%q: %v", val, err)
		}
	}

	// ENV_WS_{...}

	// ENV_WS_ADDR
	if val, ok := os.LookupEnv("ENV_WS_ADDR"); ok {
		cfg.Transport.WebSocketAddr = val
		cfg.Transport.WebSocketEnabled = true
		applog.Debugf("configuration: Overriding transport.websocket_addr from env: %s", val)
	}

	// ENV_UDP_{...}

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Debugf("configuration: Overriding transport.udp_enabled from env: %v", bVal)
		} else {
			applog.Warnf("configuration: Ignoring ENV_UDP_ENABLED=%q: %v", val, err)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Debugf("configuration: Overriding transport.udp_target_address from env: %s", val)
	}

	// ENV_MQTT_{...}

	// ENV_MQTT_BROKER
	if val, ok := os.LookupEnv("ENV_MQTT_BROKER"); ok {
		cfg.Transport.MQTTBroker = val
		cfg.Transport.MQTTEnabled = true
		applog.Debugf("configuration: Overriding transport.mqtt_broker from env: %s", val)
	}
	// ENV_MQTT_USERNAME / ENV_MQTT_PASSWORD
	if val, ok := os.LookupEnv("ENV_MQTT_USERNAME"); ok {
		cfg.Transport.MQTTUsername = val
	}
	if val, ok := os.LookupEnv("ENV_MQTT_PASSWORD"); ok {
		cfg.Transport.MQTTPassword = val
	}
}
