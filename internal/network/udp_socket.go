// Package network carries decoder output over UDP.
package network

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNotOpen is returned by I/O on a closed socket.
var ErrNotOpen = errors.New("network: socket not open")

// ReadPoll bounds how long Read waits for a datagram. An already expired
// deadline fails before the socket is polled, so it must lie in the future.
const ReadPoll = time.Millisecond

// UDPSocket is an IPv4 UDP socket with non-blocking reads.
type UDPSocket struct {
	conn      *net.UDPConn
	address   string
	port      int
	localAddr *net.UDPAddr
	logger    *log.Logger
}

// NewUDPSocket creates a socket bound to address:port on Open. Port 0
// leaves the socket unbound, for sending only.
func NewUDPSocket(address string, port int, logger *log.Logger) *UDPSocket {
	if logger == nil {
		logger = log.Default()
	}
	return &UDPSocket{
		address: address,
		port:    port,
		logger:  logger.WithPrefix("udp"),
	}
}

// Open creates the socket.
func (s *UDPSocket) Open() error {
	s.localAddr = &net.UDPAddr{IP: net.IPv4zero, Port: s.port}
	if s.port > 0 && s.address != "" {
		s.localAddr.IP = net.ParseIP(s.address)
		if s.localAddr.IP == nil {
			return fmt.Errorf("network: invalid address: %s", s.address)
		}
	}

	conn, err := net.ListenUDP("udp4", s.localAddr)
	if err != nil {
		return fmt.Errorf("network: open %s: %w", s.localAddr, err)
	}
	s.conn = conn
	s.logger.Debug("socket open", "local", conn.LocalAddr().String(), "bound", s.port > 0)
	return nil
}

// LocalAddr returns the address the socket is bound to.
func (s *UDPSocket) LocalAddr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Read returns a pending datagram, or 0 bytes when none arrives within
// ReadPoll.
func (s *UDPSocket) Read(buffer []byte) (int, *net.UDPAddr, error) {
	if s.conn == nil {
		return 0, nil, ErrNotOpen
	}

	if err := s.conn.SetReadDeadline(time.Now().Add(ReadPoll)); err != nil {
		return 0, nil, err
	}
	n, addr, err := s.conn.ReadFromUDP(buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil, nil
		}
		return 0, nil, err
	}
	return n, addr, nil
}

// Write sends one datagram.
func (s *UDPSocket) Write(buffer []byte, addr *net.UDPAddr) error {
	if s.conn == nil {
		return ErrNotOpen
	}
	if _, err := s.conn.WriteToUDP(buffer, addr); err != nil {
		return fmt.Errorf("network: write to %s: %w", addr, err)
	}
	return nil
}

// Close closes the socket. Closing twice is a no-op.
func (s *UDPSocket) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.logger.Debug("socket closed")
	return err
}

// Lookup resolves a hostname to its first IPv4 address.
func Lookup(hostname string) (net.IP, error) {
	if ip := net.ParseIP(hostname); ip != nil {
		return ip, nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("network: no IPv4 address found for %s", hostname)
}

// ParseUDPAddr resolves address and port into a destination.
func ParseUDPAddr(address string, port int) (*net.UDPAddr, error) {
	ip, err := Lookup(address)
	if err != nil {
		return nil, err
	}
	return &net.UDPAddr{IP: ip, Port: port}, nil
}
