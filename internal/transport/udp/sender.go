package udp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	applog "specviz/internal/log"
	"specviz/internal/transport"
)

// UDPSender writes datagrams to one connected destination and counts what it
// sent.
type UDPSender struct {
	conn       *net.UDPConn
	targetAddr *net.UDPAddr
	mu         sync.Mutex // Protects conn during Close
	closed     bool

	packets atomic.Uint64
	bytes   atomic.Uint64
}

// NewUDPSender dials targetAddress ("host:port", e.g. "127.0.0.1:9090").
// Nothing needs to listen there; UDP has no handshake.
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Debugf("UDP Sender: %s -> %s", conn.LocalAddr(), conn.RemoteAddr())

	return &UDPSender{
		conn:       conn,
		targetAddr: udpAddr,
	}, nil
}

// Target returns the resolved destination address.
func (s *UDPSender) Target() *net.UDPAddr { return s.targetAddr }

// Stats returns the number of datagrams and payload bytes written so far.
func (s *UDPSender) Stats() (packets, bytes uint64) {
	return s.packets.Load(), s.bytes.Load()
}

// Send writes data as a single datagram. It returns transport.ErrClosed after
// Close and is safe for concurrent use.
func (s *UDPSender) Send(data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return transport.ErrClosed
	}
	n, err := s.conn.Write(data)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to send UDP packet to %s: %w", s.targetAddr, err)
	}
	s.packets.Add(1)
	s.bytes.Add(uint64(n))
	return nil
}

// Close closes the connection once and logs the totals.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	packets, bytes := s.Stats()
	applog.Infof("UDP Sender: Sent %d frames (%d bytes) to %s", packets, bytes, s.targetAddr)

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}
