package cmd

import (
	"fmt"
	"time"

	"specviz/internal/config"
	"specviz/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected on the command line.
const (
	CommandRun  = "run"
	CommandList = "list"
)

// Options is the outcome of argument parsing. Command is empty when cobra
// already handled the invocation (help, version) and the program should exit.
type Options struct {
	Command string
	ListTUI bool
	Config  *config.Config
}

// flagValues collects raw flag values; only the ones the user set are
// applied on top of the loaded configuration.
type flagValues struct {
	configPath   string
	backend      string
	device       int
	wavFile      string
	loop         bool
	windowSize   int
	bands        int
	window       string
	attack       float64
	decay        float64
	pollInterval time.Duration
	headless     bool
	wsAddr       string
	udpTarget    string
	mqttBroker   string
	logLevel     string
	logFile      string
	verbose      bool
}

// ParseArgs parses args (without the program name) and returns the selected
// command with its effective configuration.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var fv flagValues

	load := func(cmd *cobra.Command, command string) error {
		cfg, err := config.LoadConfig(fv.configPath)
		if err != nil {
			return err
		}
		if err := fv.apply(cmd.Flags(), cfg); err != nil {
			return err
		}
		options.Command = command
		options.Config = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandRun)
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List capture devices for every backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandList)
		},
	}
	listCmd.Flags().BoolVar(&options.ListTUI, "tui", false,
		"Browse devices in an interactive terminal view")
	rootCmd.AddCommand(listCmd)

	pf := rootCmd.PersistentFlags()

	pf.StringVar(&fv.configPath, "config", "",
		"Path to a YAML config file (default: ./config.yaml if present)")

	// Capture Configuration
	pf.StringVarP(&fv.backend, "backend", "B", config.DefaultBackend,
		fmt.Sprintf("Capture backend: %s, %s or %s", config.BackendLoopback, config.BackendInput, config.BackendWAV))
	pf.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID,
		"Device ID for the selected backend. Use 'list' command to see available devices.")
	pf.StringVar(&fv.wavFile, "wav", "",
		"Replay a WAV file in real time (implies --backend wav)")
	pf.BoolVar(&fv.loop, "loop", config.DefaultLoopWAV,
		"Restart the WAV file when it ends")

	// Analyzer Configuration
	pf.IntVarP(&fv.windowSize, "window-size", "w", config.DefaultWindowSize,
		"FFT window size in samples")
	pf.IntVarP(&fv.bands, "bands", "n", config.DefaultBands,
		"Number of logarithmic frequency bands")
	pf.StringVar(&fv.window, "window", config.DefaultWindow,
		"Analysis window: hann, hamming, blackman, blackmannuttall, bartletthann, lanczos, nuttall")
	pf.Float64Var(&fv.attack, "attack", config.DefaultAttackTime,
		"Attack time constant in seconds (0 follows the signal instantly)")
	pf.Float64Var(&fv.decay, "decay", config.DefaultDecayTime,
		"Decay time constant in seconds (0 follows the signal instantly)")
	pf.DurationVarP(&fv.pollInterval, "poll-interval", "i", config.DefaultPollInterval,
		"Interval between analyzer polls")

	// Output Configuration
	pf.BoolVar(&fv.headless, "headless", false,
		"Run without the terminal UI")
	pf.StringVar(&fv.wsAddr, "ws", "",
		"Serve readings over WebSocket on this address, e.g. :8080")
	pf.StringVar(&fv.udpTarget, "udp", "",
		"Send binary frames over UDP to this address, e.g. 127.0.0.1:9090")
	pf.StringVar(&fv.mqttBroker, "mqtt", "",
		"Publish readings to this MQTT broker, e.g. tcp://127.0.0.1:1883")

	// Debug Configuration
	pf.StringVar(&fv.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	pf.StringVar(&fv.logFile, "log-file", "",
		"Write logs to this file")
	pf.BoolVarP(&fv.verbose, "verbose", "v", config.DefaultVerbosity,
		"Show verbose output (debug log level)")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// apply copies every explicitly set flag onto cfg and re-validates it.
func (fv *flagValues) apply(flags *pflag.FlagSet, cfg *config.Config) error {
	set := flags.Changed

	if set("backend") {
		cfg.Audio.Backend = fv.backend
	}
	if set("device") {
		cfg.Audio.InputDevice = fv.device
	}
	if set("wav") {
		cfg.Audio.WAVFile = fv.wavFile
		if !set("backend") {
			cfg.Audio.Backend = config.BackendWAV
		}
	}
	if set("loop") {
		cfg.Audio.Loop = fv.loop
	}

	if set("window-size") {
		cfg.Analyzer.WindowSize = fv.windowSize
	}
	if set("bands") {
		cfg.Analyzer.Bands = fv.bands
	}
	if set("window") {
		cfg.Analyzer.Window = fv.window
	}
	if set("attack") {
		cfg.Analyzer.AttackTime = fv.attack
	}
	if set("decay") {
		cfg.Analyzer.DecayTime = fv.decay
	}
	if set("poll-interval") {
		cfg.Analyzer.PollInterval = fv.pollInterval
	}

	if set("headless") {
		cfg.Headless = fv.headless
	}
	if set("ws") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddr = fv.wsAddr
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = fv.udpTarget
	}
	if set("mqtt") {
		cfg.Transport.MQTTEnabled = true
		cfg.Transport.MQTTBroker = fv.mqttBroker
	}

	if set("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if set("log-file") {
		cfg.LogFile = fv.logFile
	}
	if set("verbose") && fv.verbose {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}
