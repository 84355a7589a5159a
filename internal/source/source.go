// Package source reads dibit symbols from captures: one symbol per byte,
// or float samples from an FSK4 demodulator that are sliced to dibits.
package source

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"
)

// SymbolRate is the P25 phase 1 symbol rate.
const SymbolRate = 4800

// Input formats.
const (
	FormatDibit = "dibit"
	FormatFloat = "float"
)

// ErrFormat is returned for an unknown input format.
var ErrFormat = errors.New("source: unknown format")

// Source yields dibits (0..3), one per element of p.
type Source interface {
	Read(p []uint8) (int, error)
}

// DibitReader reads one symbol per byte and keeps its low two bits.
type DibitReader struct {
	r *bufio.Reader
}

// NewDibitReader reads symbols from r.
func NewDibitReader(r io.Reader) *DibitReader {
	return &DibitReader{r: bufio.NewReader(r)}
}

// Read implements Source.
func (d *DibitReader) Read(p []uint8) (int, error) {
	n, err := d.r.Read(p)
	for i := 0; i < n; i++ {
		p[i] &= 3
	}
	return n, err
}

// Slicer maps float32 little endian samples to dibits with thresholds at
// -2, 0 and +2, so that the nominal levels -3, -1, +1, +3 become the
// dibits 3, 2, 0, 1.
type Slicer struct {
	r   *bufio.Reader
	buf []byte
}

// NewSlicer reads samples from r.
func NewSlicer(r io.Reader) *Slicer {
	return &Slicer{r: bufio.NewReader(r)}
}

// Slice maps one sample to its dibit.
func Slice(v float32) uint8 {
	switch {
	case v < -2:
		return 3
	case v < 0:
		return 2
	case v < 2:
		return 0
	default:
		return 1
	}
}

// Read implements Source. A trailing partial sample is an
// io.ErrUnexpectedEOF.
func (s *Slicer) Read(p []uint8) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if cap(s.buf) < 4*len(p) {
		s.buf = make([]byte, 4*len(p))
	}
	buf := s.buf[:4*len(p)]

	n, err := io.ReadAtLeast(s.r, buf, 4)
	if err != nil {
		return 0, err
	}
	if rem := n % 4; rem != 0 {
		m, ferr := io.ReadFull(s.r, buf[n:n+4-rem])
		n += m
		err = ferr
	}
	full := n / 4
	for i := 0; i < full; i++ {
		p[i] = Slice(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:])))
	}
	if err != nil {
		return full, io.ErrUnexpectedEOF
	}
	return full, nil
}

// Pacer holds a reader to a fixed symbol rate.
type Pacer struct {
	src   Source
	rate  float64
	start time.Time
	count int64
}

// NewPacer paces src at rate symbols per second.
func NewPacer(src Source, rate float64) *Pacer {
	return &Pacer{src: src, rate: rate}
}

// Read returns the next symbols once their time has come.
func (p *Pacer) Read(ctx context.Context, buf []uint8) (int, error) {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	due := p.start.Add(time.Duration(float64(p.count) / p.rate * float64(time.Second)))
	if wait := time.Until(due); wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		case <-t.C:
		}
	}
	n, err := p.src.Read(buf)
	p.count += int64(n)
	return n, err
}

// New wraps r for the named format.
func New(r io.Reader, format string) (Source, error) {
	switch strings.ToLower(format) {
	case FormatDibit, "":
		return NewDibitReader(r), nil
	case FormatFloat:
		return NewSlicer(r), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrFormat, format)
}

// Open opens a capture file, or standard input for "-".
func Open(path, format string) (Source, io.Closer, error) {
	var f *os.File
	if path == "-" || path == "" {
		f = os.Stdin
	} else {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, nil, fmt.Errorf("source: %w", err)
		}
	}
	src, err := New(f, format)
	if err != nil {
		if f != os.Stdin {
			f.Close()
		}
		return nil, nil, err
	}
	if f == os.Stdin {
		return src, nopCloser{}, nil
	}
	return src, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
