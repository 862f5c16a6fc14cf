package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"specviz/cmd"
	"specviz/internal/analyzer"
	"specviz/internal/audio"
	"specviz/internal/config"
	applog "specviz/internal/log"
	"specviz/internal/poller"
	"specviz/internal/transport"
	"specviz/internal/transport/udp"
	"specviz/internal/tui"
	"specviz/pkg/build"
)

// main is the entry point for the spectrum analyzer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Configure logging and initialize PortAudio
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Open the capture source
//   - Build the analyzer and the sinks
//   - Start the poller and the spectrum view
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals or UI exit
//   - Stop polling, close the stream and the sinks
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds run without ldflags
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build info incomplete (%v), using defaults", err)
	}

	// Limit OS threads: capture callbacks run on their own native threads,
	// polling and sinks share the rest.
	runtime.GOMAXPROCS(2)

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	// Help or version output only
	if opts.Command == "" {
		return
	}
	cfg := opts.Config

	interactive := (opts.Command == cmd.CommandRun && !cfg.Headless) ||
		(opts.Command == cmd.CommandList && opts.ListTUI)
	if err := configureLogging(cfg, interactive); err != nil {
		log.Fatal(err)
	}
	defer applog.CloseLogFile()

	// PortAudio is only required by the input backend; loopback and wav
	// work without it.
	if err := audio.Initialize(); err != nil {
		if opts.Command == cmd.CommandRun && cfg.Audio.Backend == config.BackendInput {
			applog.Fatalf("PortAudio unavailable: %v", err)
		}
		applog.Warnf("PortAudio unavailable: %v", err)
	} else {
		defer audio.Terminate()
	}

	if opts.Command == cmd.CommandList {
		if err := executeList(opts.ListTUI); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	p, src, err := startPipeline(cfg)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	applog.Infof("%s: capturing from %q at %.0f Hz", build.GetBuildFlags().Name, src.Name(), src.SampleRate())

	if cfg.Headless {
		// Block until termination signal is received
		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGTERM)
		<-done
	} else if err := tui.StartSpectrumUI(p, p.Interval(), src.Name()); err != nil {
		applog.Errorf("Terminal UI failed: %v", err)
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := p.Close(); err != nil {
		applog.Errorf("Error during shutdown: %v", err)
	}
	applog.Infof("Stopped after %d dropped chunks", src.Dropped())
}

// configureLogging applies the configured level and output. The terminal UI
// owns the screen, so interactive modes always log to a file.
func configureLogging(cfg *config.Config, interactive bool) error {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)

	logFile := cfg.LogFile
	if logFile == "" && interactive {
		logFile = config.DefaultLogFile
	}
	if logFile == "" {
		return nil
	}
	return applog.SetOutputFile(logFile)
}

// executeList prints devices or opens the device browser.
func executeList(interactive bool) error {
	if interactive {
		return tui.StartDeviceListUI()
	}
	return audio.ListDevices()
}

// startPipeline opens the source and wires analyzer, sinks and poller. On
// error everything opened so far is closed again.
func startPipeline(cfg *config.Config) (*poller.Poller, *audio.Source, error) {
	params, err := analyzer.ParamsFromConfig(cfg.Analyzer)
	if err != nil {
		return nil, nil, err
	}

	src, err := audio.Open(audio.OptionsFromConfig(cfg.Audio))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open capture source: %w", err)
	}

	an, err := analyzer.New(src, params)
	if err != nil {
		src.Close()
		return nil, nil, err
	}

	sinks, err := buildSinks(cfg.Transport)
	if err != nil {
		an.Close()
		return nil, nil, err
	}

	p, err := poller.New(an, cfg.Analyzer.PollInterval, sinks...)
	if err != nil {
		an.Close()
		closeSinks(sinks)
		return nil, nil, err
	}
	p.Start()
	return p, src, nil
}

// buildSinks creates every enabled transport. The logging sink is always
// present and only speaks at debug level.
func buildSinks(tc config.TransportConfig) ([]transport.Transport, error) {
	sinks := []transport.Transport{transport.NewLoggingTransport()}

	if tc.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(tc.WebSocketAddr)
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("failed to start WebSocket sink: %w", err)
		}
		applog.Infof("Serving readings at ws://%s%s", ws.Addr(), transport.WebSocketPath)
		sinks = append(sinks, ws)
	}

	if tc.UDPEnabled {
		sender, err := udp.NewUDPSender(tc.UDPTargetAddress)
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("failed to create UDP sender: %w", err)
		}
		pub, err := udp.NewUDPPublisher(sender)
		if err != nil {
			sender.Close()
			closeSinks(sinks)
			return nil, fmt.Errorf("failed to create UDP publisher: %w", err)
		}
		applog.Infof("Sending frames to udp://%s", sender.Target())
		sinks = append(sinks, pub)
	}

	if tc.MQTTEnabled {
		m, err := transport.NewMQTTTransport(transport.MQTTConfig{
			Broker:   tc.MQTTBroker,
			ClientID: tc.MQTTClientID,
			Username: tc.MQTTUsername,
			Password: tc.MQTTPassword,
			Topic:    tc.MQTTTopic,
			Interval: tc.MQTTInterval,
		})
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("failed to connect MQTT sink: %w", err)
		}
		applog.Infof("Publishing readings to %s on %q", tc.MQTTBroker, tc.MQTTTopic)
		sinks = append(sinks, m)
	}

	return sinks, nil
}

func closeSinks(sinks []transport.Transport) {
	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.Close())
	}
	if err := errors.Join(errs...); err != nil {
		applog.Warnf("Error closing sinks: %v", err)
	}
}
