package transport

import (
	applog "specviz/internal/log"
)

// LoggingTransport implements the Transport interface by logging the loudest
// band of each frame at debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs a one-line summary of the received data.
func (lt *LoggingTransport) Send(data any) error {
	frame, ok := AsFrame(data)
	if !ok {
		applog.Debugf("LOG_TRANSPORT: Received (%T): %+v", data, data)
		return nil
	}

	peak := frame.Peak()
	if peak < 0 {
		applog.Debugf("LOG_TRANSPORT: #%d empty frame", frame.Seq)
		return nil
	}
	r := frame.Readings[peak]
	applog.Debugf("LOG_TRANSPORT: #%d peak band %d (%.0f-%.0f Hz) at %.2f",
		frame.Seq, peak, r.FreqLo, r.FreqHi, r.Magnitude)
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LOG_TRANSPORT: Close called.")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
