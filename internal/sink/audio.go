package sink

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dbehnke/p25cai/internal/protocol/p25"
	"github.com/dbehnke/p25cai/internal/vocoder"
)

// AudioSink synthesizes voice frames and writes signed 16-bit little
// endian PCM at 8 kHz.
type AudioSink struct {
	w   io.Writer
	dec *vocoder.Decoder
	err error
}

// NewAudioSink writes the output of v to w. If w is also an io.Closer it
// is closed with the sink.
func NewAudioSink(w io.Writer, v vocoder.Vocoder) *AudioSink {
	s := &AudioSink{w: w}
	s.dec = vocoder.NewDecoder(v, s.write)
	return s
}

func (s *AudioSink) write(pcm []int16) {
	if s.err != nil {
		return
	}
	buf := make([]byte, 2*len(pcm))
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	if _, err := s.w.Write(buf); err != nil {
		s.err = fmt.Errorf("sink: write audio: %w", err)
	}
}

func (s *AudioSink) Name() string { return "audio" }

// Send synthesizes the codewords of f. A degraded codeword is reported
// but does not stop the remaining ones.
func (s *AudioSink) Send(_ context.Context, f p25.Frame) error {
	err := s.dec.Frame(f)
	if s.err != nil {
		return s.err
	}
	return err
}

// Frames returns the number of codewords synthesized and rejected. It is
// not synchronized with Send.
func (s *AudioSink) Frames() (synthesized, rejected uint64) {
	return s.dec.Frames, s.dec.Errors
}

func (s *AudioSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
