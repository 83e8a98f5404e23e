// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"tuner/internal/analysis"
	applog "tuner/internal/log"
	"tuner/internal/transport"
)

// UDPPublisher keeps the most recent detection and sends it as a binary
// packet over UDP at a fixed interval, so listeners get a steady update rate
// independent of the analysis block rate.
// It runs in a separate goroutine managed by Start and Stop methods.
type UDPPublisher struct {
	sender   *UDPSender    // The underlying UDP sender instance.
	interval time.Duration // The interval at which packets are sent.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	latestMu  sync.Mutex
	latest    analysis.Detection
	hasLatest bool

	sequenceNum  uint32        // Monotonically increasing sequence number for packets.
	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
}

// NewUDPPublisher creates and initializes a new UDPPublisher.
// If the provided interval is invalid (<= 0), it defaults to 100ms.
func NewUDPPublisher(interval time.Duration, sender *UDPSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}

	if interval <= 0 {
		interval = 100 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s)", interval)

	return &UDPPublisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send records d as the detection to publish on the next tick.
func (p *UDPPublisher) Send(d analysis.Detection) error {
	p.latestMu.Lock()
	p.latest = d
	p.hasLatest = true
	p.latestMu.Unlock()
	return nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset stopOnce for this run

	// Capture local variables for the goroutine to avoid data races on p.ticker/p.doneChan
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				applog.Debugf("UDPPublisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock() // Unlock before waiting

	p.wg.Wait()
	applog.Debugf("UDPPublisher: Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description               |
|-----------------|-----------|--------------|---------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing  |
| Timestamp       | int64     | 8            | Nanoseconds since epoch   |
| Frequency       | float32   | 4            | Peak bin frequency (Hz)   |
| Magnitude       | float32   | 4            | Peak magnitude squared    |
| Pitch           | float32   | 4            | Nearest note pitch (Hz)   |
| Cents           | float32   | 4            | Deviation, positive sharp |
| Bin             | int32     | 4            | Peak bin index            |
| Flags           | uint8     | 1            | Found, Gated, InTune bits |
| Note Length     | uint8     | 1            | Length of the note name   |
| Note            | []byte    | N            | Note name, e.g. "A#"      |
+------------------------------------------------------------------------+
*/

// Flag bits of the packet header.
const (
	FlagFound uint8 = 1 << iota
	FlagGated
	FlagInTune
)

// HeaderSize is the size of the fixed part of a packet.
const HeaderSize = 34

type packetHeader struct {
	Sequence  uint32
	Timestamp int64
	Frequency float32
	Magnitude float32
	Pitch     float32
	Cents     float32
	Bin       int32
	Flags     uint8
	NoteLen   uint8
}

// Packet is a decoded detection packet.
type Packet struct {
	Sequence  uint32
	Timestamp time.Time
	Detection analysis.Detection
	InTune    bool
}

// EncodePacket writes the packet for d to buf.
func EncodePacket(buf *bytes.Buffer, seq uint32, ts time.Time, d analysis.Detection) error {
	var flags uint8
	if d.Found {
		flags |= FlagFound
	}
	if d.Gated {
		flags |= FlagGated
	}
	if d.InTune() {
		flags |= FlagInTune
	}
	if len(d.Note) > 255 {
		return fmt.Errorf("note name too long: %d bytes", len(d.Note))
	}

	h := packetHeader{
		Sequence:  seq,
		Timestamp: ts.UnixNano(),
		Frequency: d.Frequency,
		Magnitude: d.Magnitude,
		Pitch:     d.Pitch,
		Cents:     d.Cents,
		Bin:       int32(d.Bin),
		Flags:     flags,
		NoteLen:   uint8(len(d.Note)),
	}
	if err := binary.Write(buf, binary.BigEndian, &h); err != nil {
		return err
	}
	buf.WriteString(d.Note)
	return nil
}

// DecodePacket parses a packet produced by EncodePacket.
func DecodePacket(b []byte) (Packet, error) {
	var h packetHeader
	r := bytes.NewReader(b)
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return Packet{}, fmt.Errorf("short packet header: %w", err)
	}
	if r.Len() != int(h.NoteLen) {
		return Packet{}, errors.New("note length does not match packet size")
	}
	note := b[HeaderSize:]

	return Packet{
		Sequence:  h.Sequence,
		Timestamp: time.Unix(0, h.Timestamp),
		InTune:    h.Flags&FlagInTune != 0,
		Detection: analysis.Detection{
			Frequency: h.Frequency,
			Bin:       int(h.Bin),
			Magnitude: h.Magnitude,
			Note:      string(note),
			Pitch:     h.Pitch,
			Cents:     h.Cents,
			Found:     h.Flags&FlagFound != 0,
			Gated:     h.Flags&FlagGated != 0,
		},
	}, nil
}

// buildAndSendPacket runs on each tick: it packs the latest detection and
// sends it. Nothing is sent before the first detection arrives.
func (p *UDPPublisher) buildAndSendPacket() {
	p.latestMu.Lock()
	d, ok := p.latest, p.hasLatest
	p.latestMu.Unlock()
	if !ok {
		return
	}

	p.sequenceNum++
	p.packetBuffer.Reset()
	if err := EncodePacket(p.packetBuffer, p.sequenceNum, time.Now(), d); err != nil {
		applog.Errorf("UDPPublisher: Error packing detection: %v", err)
		return
	}

	// Send errors are already logged by the sender.
	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
}

// Close stops the publisher goroutine and closes the sender.
func (p *UDPPublisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}

// Ensure UDPPublisher satisfies the interface at compile time.
var _ transport.Sink = (*UDPPublisher)(nil)
