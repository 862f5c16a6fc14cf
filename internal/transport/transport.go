// SPDX-License-Identifier: MIT
/*
Package transport carries analysis snapshots out of the process.

Every sink implements Transport and receives Frame values from the poller.
Sinks must not block the caller for long: slow consumers drop frames rather
than stall polling.
*/
package transport

import (
	"errors"

	"specviz/internal/analyzer"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Frame is one poll's worth of readings. Readings is shared between sinks
// and must be treated as read-only.
type Frame struct {
	Seq       uint32                      `json:"seq"`
	Timestamp int64                       `json:"ts"` // Unix nanoseconds
	Readings  []analyzer.FrequencyReading `json:"readings"`
}

// Peak returns the index of the loudest band, or -1 for an empty frame.
func (f Frame) Peak() int {
	peak := -1
	for i, r := range f.Readings {
		if peak < 0 || r.Magnitude > f.Readings[peak].Magnitude {
			peak = i
		}
	}
	return peak
}

// AsFrame accepts a Frame or *Frame payload.
func AsFrame(data any) (Frame, bool) {
	switch v := data.(type) {
	case Frame:
		return v, true
	case *Frame:
		if v == nil {
			return Frame{}, false
		}
		return *v, true
	default:
		return Frame{}, false
	}
}
