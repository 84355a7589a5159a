package bits

import "fmt"

// StatusPeriod is the dibit period of the channel status symbol: the last
// dibit of every group of 36 is status, not payload.
const StatusPeriod = 36

// IsStatusIndex reports whether raw dibit index i (counted from the first
// frame sync dibit) carries a status symbol.
func IsStatusIndex(i int) bool {
	return i%StatusPeriod == StatusPeriod-1
}

// FromDibits expands dibits into a bit container, high bit first.
func FromDibits(dibits []uint8) (Bits, error) {
	b := make(Bits, len(dibits)*2)
	for i, d := range dibits {
		if d > 3 {
			return nil, fmt.Errorf("%w: dibit %d has value %d", ErrOutOfRange, i, d)
		}
		b[2*i] = d >> 1
		b[2*i+1] = d & 1
	}
	return b, nil
}

// Dibits folds the container into dibits. The length must be even.
func (b Bits) Dibits() ([]uint8, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("%w: odd bit count %d", ErrOutOfRange, len(b))
	}
	out := make([]uint8, len(b)/2)
	for i := range out {
		out[i] = b[2*i]<<1 | b[2*i+1]
	}
	return out, nil
}

// StripStatus removes status symbols from raw dibits. The returned slices
// hold the payload dibits and the status dibits, in order.
func StripStatus(raw []uint8) (payload, status []uint8) {
	payload = make([]uint8, 0, len(raw))
	for i, d := range raw {
		if IsStatusIndex(i) {
			status = append(status, d)
			continue
		}
		payload = append(payload, d)
	}
	return payload, status
}

// RestoreStatus is the inverse of StripStatus. It interleaves payload and
// status dibits back into raw order.
func RestoreStatus(payload, status []uint8) ([]uint8, error) {
	total := len(payload) + len(status)
	raw := make([]uint8, 0, total)
	p, s := 0, 0
	for i := 0; i < total; i++ {
		if IsStatusIndex(i) {
			if s >= len(status) {
				return nil, fmt.Errorf("%w: missing status symbol at %d", ErrOutOfRange, i)
			}
			raw = append(raw, status[s])
			s++
			continue
		}
		if p >= len(payload) {
			return nil, fmt.Errorf("%w: missing payload dibit at %d", ErrOutOfRange, i)
		}
		raw = append(raw, payload[p])
		p++
	}
	if p != len(payload) || s != len(status) {
		return nil, fmt.Errorf("%w: %d payload and %d status dibits do not interleave", ErrOutOfRange, len(payload), len(status))
	}
	return raw, nil
}
