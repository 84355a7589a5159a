package sink

import (
	"context"
	"fmt"
	"net"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/p25cai/internal/network"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
	"github.com/dbehnke/p25cai/internal/vocoder"
)

// UDPSink sends every frame, packed most significant bit first, as one
// datagram.
type UDPSink struct {
	socket *network.UDPSocket
	dest   *net.UDPAddr
}

// NewUDPSink opens a sending socket towards address:port.
func NewUDPSink(address string, port int, logger *log.Logger) (*UDPSink, error) {
	dest, socket, err := dial(address, port, logger)
	if err != nil {
		return nil, err
	}
	return &UDPSink{socket: socket, dest: dest}, nil
}

func (s *UDPSink) Name() string { return "udp" }

func (s *UDPSink) Send(_ context.Context, f p25.Frame) error {
	return s.socket.Write(f.Info().Bytes(), s.dest)
}

func (s *UDPSink) Close() error { return s.socket.Close() }

// VoiceSink sends the IMBE parameter lines of each voice unit as one
// datagram for an external vocoder. Other frames are skipped.
type VoiceSink struct {
	socket *network.UDPSocket
	dest   *net.UDPAddr
}

// NewVoiceSink opens a sending socket towards address:port.
func NewVoiceSink(address string, port int, logger *log.Logger) (*VoiceSink, error) {
	dest, socket, err := dial(address, port, logger)
	if err != nil {
		return nil, err
	}
	return &VoiceSink{socket: socket, dest: dest}, nil
}

func (s *VoiceSink) Name() string { return "voice" }

func (s *VoiceSink) Send(_ context.Context, f p25.Frame) error {
	pkt := vocoder.Packet(f)
	if pkt == nil {
		return nil
	}
	return s.socket.Write(pkt, s.dest)
}

func (s *VoiceSink) Close() error { return s.socket.Close() }

func dial(address string, port int, logger *log.Logger) (*net.UDPAddr, *network.UDPSocket, error) {
	if port <= 0 || port > 65535 {
		return nil, nil, fmt.Errorf("sink: invalid port %d", port)
	}
	dest, err := network.ParseUDPAddr(address, port)
	if err != nil {
		return nil, nil, fmt.Errorf("sink: resolve %s: %w", address, err)
	}
	socket := network.NewUDPSocket("", 0, logger)
	if err := socket.Open(); err != nil {
		return nil, nil, err
	}
	return dest, socket, nil
}
