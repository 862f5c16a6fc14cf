// SPDX-License-Identifier: MIT
/*
Package poller is the periodic polling boundary around an Analyzer.

A single goroutine polls at a fixed interval under an exclusive lock, keeps a
copy of the latest snapshot for readers, and fans each snapshot out to the
configured transports. Readers never poll themselves, so the analyzer's
smoothing state advances at exactly one rate.
*/
package poller

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"specviz/internal/analyzer"
	"specviz/internal/config"
	applog "specviz/internal/log"
	"specviz/internal/transport"
)

// Analyzer is what the poller drives.
type Analyzer interface {
	PollInto(dst []analyzer.FrequencyReading) []analyzer.FrequencyReading
	Close() error
}

// Poller serialises access to an Analyzer and publishes its snapshots.
type Poller struct {
	interval time.Duration
	sinks    []transport.Transport

	mu       sync.Mutex // guards analyzer, scratch, latest, seq
	analyzer Analyzer
	scratch  []analyzer.FrequencyReading
	latest   transport.Frame
	seq      uint32

	runMu    sync.Mutex // guards ticker and doneChan across Start/Stop
	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// New creates a stopped poller. An interval below MinPollInterval is raised
// to it.
func New(a Analyzer, interval time.Duration, sinks ...transport.Transport) (*Poller, error) {
	if a == nil {
		return nil, fmt.Errorf("Poller: analyzer cannot be nil")
	}
	if interval < config.MinPollInterval {
		applog.Warnf("Poller: Interval %s too short, using %s", interval, config.MinPollInterval)
		interval = config.MinPollInterval
	}
	return &Poller{
		interval: interval,
		sinks:    sinks,
		analyzer: a,
	}, nil
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Start launches the polling goroutine. Calling Start on a running poller is
// a no-op.
func (p *Poller) Start() {
	p.runMu.Lock()
	if p.ticker != nil {
		p.runMu.Unlock()
		applog.Warnf("Poller: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.runMu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("Poller: Started (Interval: %s, Sinks: %d)", p.interval, len(p.sinks))
		for {
			select {
			case <-ticker.C:
				p.publish(p.PollNow())
			case <-doneChan:
				applog.Debugf("Poller: Received stop signal.")
				return
			}
		}
	}()
}

// Stop ends the polling goroutine and waits for it. Safe to call repeatedly.
func (p *Poller) Stop() {
	p.runMu.Lock()
	if p.ticker == nil {
		p.runMu.Unlock()
		return
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.runMu.Unlock()

	p.wg.Wait()
	applog.Infof("Poller: Stopped.")
}

// PollNow polls the analyzer once under the lock, records the snapshot as
// the latest, and returns it. The returned frame owns its readings.
func (p *Poller) PollNow() transport.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scratch = p.analyzer.PollInto(p.scratch)
	readings := make([]analyzer.FrequencyReading, len(p.scratch))
	copy(readings, p.scratch)

	p.seq++
	p.latest = transport.Frame{
		Seq:       p.seq,
		Timestamp: time.Now().UnixNano(),
		Readings:  readings,
	}
	return p.latest
}

// Latest returns the most recent snapshot without polling. Before the first
// poll the frame has no readings.
func (p *Poller) Latest() transport.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// publish hands the frame to every sink. Send errors are logged and never
// stop polling.
func (p *Poller) publish(frame transport.Frame) {
	for _, sink := range p.sinks {
		if err := sink.Send(frame); err != nil {
			applog.Warnf("Poller: %T send failed: %v", sink, err)
		}
	}
}

// Close stops polling, closes the analyzer (and with it the capture stream)
// and then every sink. Errors are joined.
func (p *Poller) Close() error {
	p.closeOnce.Do(func() {
		p.Stop()

		var errs []error
		p.mu.Lock()
		if err := p.analyzer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close analyzer: %w", err))
		}
		p.mu.Unlock()

		for _, sink := range p.sinks {
			if err := sink.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %T: %w", sink, err))
			}
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
