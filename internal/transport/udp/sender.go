// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"net"
	"sync"

	applog "tuner/internal/log"
	"tuner/internal/transport"
)

// UDPSender writes detection packets to one listener. The socket is
// connected, so a listener that goes away surfaces as a write error instead
// of silent loss on some platforms.
type UDPSender struct {
	mu     sync.Mutex // Serializes writes against Close.
	conn   *net.UDPConn
	target string
}

// NewUDPSender dials targetAddress ("host:port", e.g. "127.0.0.1:9090").
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	raddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Infof("UDPSender: Publishing detections to %s", conn.RemoteAddr())
	return &UDPSender{conn: conn, target: raddr.String()}, nil
}

// Target returns the resolved destination address.
func (s *UDPSender) Target() string {
	return s.target
}

// Send writes data as a single datagram. It returns transport.ErrClosed
// after Close.
func (s *UDPSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return transport.ErrClosed
	}
	if _, err := s.conn.Write(data); err != nil {
		applog.Debugf("UDPSender: Write to %s failed: %v", s.target, err)
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close releases the socket. Further calls are no-ops.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil
	applog.Debugf("UDPSender: Closing connection to %s", s.target)
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}
