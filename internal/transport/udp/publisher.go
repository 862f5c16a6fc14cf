// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	applog "specviz/internal/log"
	"specviz/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description              |
|-------------------|----------------|--------------|--------------------------|
| Sequence Number   | uint32         | 4            | Frame sequence number    |
| Timestamp         | int64          | 8            | Nanoseconds since epoch  |
| Band Count        | uint16         | 2            | Number of bands (N)      |
| Bands             | [N]band        | N * 12       | Per band, ascending freq |
+------------------------------------------------------------------------------+

band = low Hz (float32) | high Hz (float32) | magnitude (float32)

|<- 4 B ->|<--- 8 B --->|<- 2 B ->|<------------- N * 12 B -------------->|
+---------+-------------+---------+----------+----------+----------+-----+
|   Seq   |  Timestamp  |  Count  |  lo[0]   |  hi[0]   |  mag[0]  | ... |
+---------+-------------+---------+----------+----------+----------+-----+
*/

// Packet sizes.
const (
	HeaderSize  = 4 + 8 + 2
	BandSize    = 3 * 4
	MaxBands    = math.MaxUint16
	maxDatagram = 65507
)

// Band is one decoded band of a packet.
type Band struct {
	LowHz     float32
	HighHz    float32
	Magnitude float32
}

// Packet is a decoded UDP frame.
type Packet struct {
	Seq       uint32
	Timestamp int64
	Bands     []Band
}

// UDPPublisher packs frames into the binary layout above and sends them
// with a UDPSender.
type UDPPublisher struct {
	sender *UDPSender

	mu           sync.Mutex    // serialises packing into packetBuffer
	packetBuffer *bytes.Buffer // reused across sends
	bandBuffer   []Band
}

// NewUDPPublisher creates a publisher around a connected sender. The
// publisher takes ownership of the sender.
func NewUDPPublisher(sender *UDPSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	applog.Infof("UDPPublisher: Publishing frames to %s", sender.Target())
	return &UDPPublisher{
		sender:       sender,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send packs a transport.Frame and transmits it as one datagram.
func (p *UDPPublisher) Send(data any) error {
	frame, ok := transport.AsFrame(data)
	if !ok {
		return fmt.Errorf("UDPPublisher: unsupported payload %T", data)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	packet, err := p.pack(frame)
	if err != nil {
		return err
	}
	if err := p.sender.Send(packet); err != nil {
		return err
	}
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", frame.Seq, len(packet))
	return nil
}

// pack writes frame into the reusable buffer and returns its bytes, valid
// until the next call.
func (p *UDPPublisher) pack(frame transport.Frame) ([]byte, error) {
	n := len(frame.Readings)
	if n > MaxBands || HeaderSize+n*BandSize > maxDatagram {
		return nil, fmt.Errorf("UDPPublisher: %d bands do not fit in one datagram", n)
	}

	p.bandBuffer = p.bandBuffer[:0]
	for _, r := range frame.Readings {
		p.bandBuffer = append(p.bandBuffer, Band{
			LowHz:     float32(r.FreqLo),
			HighHz:    float32(r.FreqHi),
			Magnitude: float32(r.Magnitude),
		})
	}

	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, frame.Seq)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, frame.Timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(n))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.bandBuffer)
	}
	if err != nil {
		return nil, fmt.Errorf("UDPPublisher: Error packing data into binary buffer: %w", err)
	}
	return p.packetBuffer.Bytes(), nil
}

// Decode parses a datagram produced by UDPPublisher.
func Decode(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("packet too short: %d bytes", len(b))
	}

	r := bytes.NewReader(b)
	var (
		pkt   Packet
		count uint16
	)
	if err := binary.Read(r, binary.BigEndian, &pkt.Seq); err != nil {
		return Packet{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &pkt.Timestamp); err != nil {
		return Packet{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return Packet{}, err
	}
	if want := HeaderSize + int(count)*BandSize; len(b) != want {
		return Packet{}, fmt.Errorf("packet length %d does not match %d bands (want %d)", len(b), count, want)
	}

	pkt.Bands = make([]Band, count)
	if err := binary.Read(r, binary.BigEndian, pkt.Bands); err != nil {
		return Packet{}, err
	}
	return pkt, nil
}

// Close closes the underlying sender.
func (p *UDPPublisher) Close() error {
	applog.Debugf("UDPPublisher: Close called")
	return p.sender.Close()
}

var _ transport.Transport = (*UDPPublisher)(nil)
