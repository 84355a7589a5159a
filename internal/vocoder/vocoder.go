// Package vocoder turns IMBE voice codewords into audio and into the
// textual parameter lines used by external vocoders.
package vocoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

const (
	SampleRate      = 8000
	SamplesPerFrame = 160 // 20 ms

	// LineOctets is the length of one parameter line including the newline.
	LineOctets = 32
	// PacketOctets is the size of a datagram carrying the nine codewords
	// of one logical link data unit.
	PacketOctets = 9 * LineOctets
)

// ErrDegraded is returned for codewords whose FEC failed.
var ErrDegraded = errors.New("vocoder: degraded codeword")

// Vocoder synthesizes 20 ms of audio per codeword.
type Vocoder interface {
	Decode(cw p25.VoiceCodeword) ([]int16, error)
}

// Silence produces silent frames. Speech synthesis is left to external
// vocoders fed with parameter lines.
type Silence struct {
	// Mute makes degraded codewords an error instead of a silent frame.
	Mute bool
}

// Decode implements Vocoder.
func (s Silence) Decode(cw p25.VoiceCodeword) ([]int16, error) {
	if cw.Degraded && s.Mute {
		return nil, fmt.Errorf("%w: codeword %d E0=%d ET=%d", ErrDegraded, cw.Index, cw.E0, cw.ET)
	}
	return make([]int16, SamplesPerFrame), nil
}

// FormatLine renders the eight parameter vectors of a codeword as one
// line of hex fields.
func FormatLine(cw p25.VoiceCodeword) string {
	u := cw.U
	return fmt.Sprintf("%03x %03x %03x %03x %03x %03x %03x %03x\n", u[0], u[1], u[2], u[3], u[4], u[5], u[6], u[7])
}

// Packet concatenates the parameter lines of a voice frame's codewords.
// It returns nil for frames without voice.
func Packet(f p25.Frame) []byte {
	cws := p25.VoiceFrames(f)
	if cws == nil {
		return nil
	}
	var sb strings.Builder
	sb.Grow(len(cws) * LineOctets)
	for _, cw := range cws {
		sb.WriteString(FormatLine(cw))
	}
	return []byte(sb.String())
}

// ParseLine reads a parameter line back into its vectors.
func ParseLine(line string) ([8]uint16, error) {
	var u [8]uint16
	n, err := fmt.Sscanf(line, "%x %x %x %x %x %x %x %x", &u[0], &u[1], &u[2], &u[3], &u[4], &u[5], &u[6], &u[7])
	if err != nil {
		return u, fmt.Errorf("vocoder: parse %q: %w", line, err)
	}
	if n != 8 {
		return u, fmt.Errorf("vocoder: parse %q: %d fields", line, n)
	}
	return u, nil
}

// Decoder runs a vocoder over every voice frame and hands the audio to a
// callback, counting codewords that could not be synthesized.
type Decoder struct {
	v      Vocoder
	out    func([]int16)
	Frames uint64
	Errors uint64
}

// NewDecoder wraps a vocoder. out may be nil to discard audio.
func NewDecoder(v Vocoder, out func([]int16)) *Decoder {
	return &Decoder{v: v, out: out}
}

// Frame synthesizes the voice codewords of f, in order.
func (d *Decoder) Frame(f p25.Frame) error {
	var errs []error
	for _, cw := range p25.VoiceFrames(f) {
		pcm, err := d.v.Decode(cw)
		if err != nil {
			d.Errors++
			errs = append(errs, err)
			continue
		}
		d.Frames++
		if d.out != nil {
			d.out(pcm)
		}
	}
	return errors.Join(errs...)
}
