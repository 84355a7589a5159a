package correction

import (
	"fmt"
	"math/bits"
)

// Trellis block geometry: 49 constellation points (48 data symbols and a
// flush symbol) carried as 98 interleaved dibits.
const (
	TrellisDibits  = 98
	trellisSymbols = 49
)

// trellisInterleave is the data block interleave schedule: transmitted
// dibit i is deinterleaved dibit trellisInterleave[i].
var trellisInterleave = [TrellisDibits]uint8{
	0, 1, 8, 9, 16, 17, 24, 25, 32, 33, 40, 41, 48, 49, 56, 57, 64, 65, 72, 73, 80, 81, 88, 89, 96, 97,
	2, 3, 10, 11, 18, 19, 26, 27, 34, 35, 42, 43, 50, 51, 58, 59, 66, 67, 74, 75, 82, 83, 90, 91,
	4, 5, 12, 13, 20, 21, 28, 29, 36, 37, 44, 45, 52, 53, 60, 61, 68, 69, 76, 77, 84, 85, 92, 93,
	6, 7, 14, 15, 22, 23, 30, 31, 38, 39, 46, 47, 54, 55, 62, 63, 70, 71, 78, 79, 86, 87, 94, 95,
}

// constellationDibits maps a constellation point to its pair of dibits
// packed as a nibble (first dibit in the high half).
var constellationDibits = [16]uint8{
	0x2, 0xA, 0x7, 0xF, 0xE, 0x6, 0xB, 0x3,
	0xD, 0x5, 0x8, 0x0, 0x1, 0x9, 0x4, 0xC,
}

// Trellis is a terminated trellis code: each input symbol selects a
// constellation point from the row of the previous input.
type Trellis struct {
	name   string
	states int
	bits   int       // input bits per symbol
	points [][]uint8 // [state][input] -> dibit pair nibble
}

var (
	// Trellis12 is the rate 1/2 code (dibit input, 4 states).
	Trellis12 = newTrellis("1/2", 2, []uint8{
		0, 15, 12, 3,
		4, 11, 8, 7,
		13, 2, 1, 14,
		9, 6, 5, 10,
	})

	// Trellis34 is the rate 3/4 code (tribit input, 8 states).
	Trellis34 = newTrellis("3/4", 3, []uint8{
		0, 8, 4, 12, 2, 10, 6, 14,
		4, 12, 2, 10, 6, 14, 0, 8,
		1, 9, 5, 13, 3, 11, 7, 15,
		5, 13, 3, 11, 7, 15, 1, 9,
		3, 11, 7, 15, 1, 9, 5, 13,
		7, 15, 1, 9, 5, 13, 3, 11,
		2, 10, 6, 14, 0, 8, 4, 12,
		6, 14, 0, 8, 4, 12, 2, 10,
	})
)

func newTrellis(name string, bits int, transitions []uint8) *Trellis {
	states := 1 << uint(bits)
	if len(transitions) != states*states {
		panic("correction: trellis transition table size")
	}
	points := make([][]uint8, states)
	for s := range points {
		points[s] = make([]uint8, states)
		for x := range points[s] {
			points[s][x] = constellationDibits[transitions[s*states+x]]
		}
	}
	return &Trellis{name: name, states: states, bits: bits, points: points}
}

// InputBits returns the number of data bits carried by one block.
func (t *Trellis) InputBits() int {
	return (trellisSymbols - 1) * t.bits
}

// Encode encodes 48 input symbols into 98 interleaved dibits.
func (t *Trellis) Encode(symbols []uint8) ([]uint8, error) {
	if len(symbols) != trellisSymbols-1 {
		return nil, fmt.Errorf("%w: trellis %s needs %d symbols, got %d", ErrInvalidInput, t.name, trellisSymbols-1, len(symbols))
	}

	var natural [TrellisDibits]uint8
	state := 0
	for i := 0; i < trellisSymbols; i++ {
		input := 0 // flush symbol
		if i < len(symbols) {
			input = int(symbols[i])
			if input >= t.states {
				return nil, fmt.Errorf("%w: trellis %s symbol %d out of range", ErrInvalidInput, t.name, input)
			}
		}
		nibble := t.points[state][input]
		natural[2*i] = nibble >> 2
		natural[2*i+1] = nibble & 3
		state = input
	}

	out := make([]uint8, TrellisDibits)
	for i := range out {
		out[i] = natural[trellisInterleave[i]]
	}
	return out, nil
}

type trellisStep struct {
	prev []int
	tie  []bool
}

// Decode runs a Viterbi search over 98 received dibits using the Hamming
// distance between received and candidate dibit pairs as branch metric.
// The path must end in state zero (the flush symbol). The error count is
// the metric of the surviving path; if any decision along that path was a
// tie the block is rejected with ErrAmbiguous.
func (t *Trellis) Decode(dibits []uint8) ([]uint8, int, error) {
	if len(dibits) != TrellisDibits {
		return nil, 0, fmt.Errorf("%w: trellis %s needs %d dibits, got %d", ErrInvalidInput, t.name, TrellisDibits, len(dibits))
	}

	var natural [TrellisDibits]uint8
	for i, d := range dibits {
		if d > 3 {
			return nil, 0, fmt.Errorf("%w: dibit %d has value %d", ErrInvalidInput, i, d)
		}
		natural[trellisInterleave[i]] = d
	}

	const unreachable = 1 << 30
	metric := make([]int, t.states)
	for s := 1; s < t.states; s++ {
		metric[s] = unreachable
	}

	steps := make([]trellisStep, trellisSymbols)
	for i := 0; i < trellisSymbols; i++ {
		received := natural[2*i]<<2 | natural[2*i+1]
		next := make([]int, t.states)
		step := trellisStep{prev: make([]int, t.states), tie: make([]bool, t.states)}
		for x := range next {
			next[x] = unreachable
			step.prev[x] = -1
		}

		for s := 0; s < t.states; s++ {
			if metric[s] >= unreachable {
				continue
			}
			for x := 0; x < t.states; x++ {
				m := metric[s] + bits.OnesCount64(uint64(t.points[s][x]^received))
				switch {
				case m < next[x]:
					next[x] = m
					step.prev[x] = s
					step.tie[x] = false
				case m == next[x]:
					step.tie[x] = true
				}
			}
		}

		steps[i] = step
		metric = next
	}

	// Trace back from the flush state
	out := make([]uint8, trellisSymbols)
	state := 0
	ambiguous := false
	for i := trellisSymbols - 1; i >= 0; i-- {
		if steps[i].tie[state] {
			ambiguous = true
		}
		out[i] = uint8(state)
		state = steps[i].prev[state]
	}

	if ambiguous {
		return nil, 0, fmt.Errorf("%w: trellis %s", ErrAmbiguous, t.name)
	}
	return out[:trellisSymbols-1], metric[0], nil
}

// EncodeBytes packs 12 (rate 1/2) or 18 (rate 3/4) octets into a block.
func (t *Trellis) EncodeBytes(data []byte) ([]uint8, error) {
	if len(data)*8 != t.InputBits() {
		return nil, fmt.Errorf("%w: trellis %s needs %d octets, got %d", ErrInvalidInput, t.name, t.InputBits()/8, len(data))
	}

	symbols := make([]uint8, trellisSymbols-1)
	for i := range symbols {
		var v uint8
		for b := 0; b < t.bits; b++ {
			bit := i*t.bits + b
			v = v<<1 | (data[bit/8]>>(7-uint(bit%8)))&1
		}
		symbols[i] = v
	}
	return t.Encode(symbols)
}

// DecodeBytes decodes a block and packs the recovered bits into octets.
func (t *Trellis) DecodeBytes(dibits []uint8) ([]byte, int, error) {
	symbols, errors, err := t.Decode(dibits)
	if err != nil {
		return nil, 0, err
	}

	out := make([]byte, t.InputBits()/8)
	for i, v := range symbols {
		for b := 0; b < t.bits; b++ {
			if v&(1<<uint(t.bits-1-b)) != 0 {
				bit := i*t.bits + b
				out[bit/8] |= 0x80 >> uint(bit%8)
			}
		}
	}
	return out, errors, nil
}
