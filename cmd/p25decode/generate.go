package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/protocol"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// Reference call parameters written by --generate.
const (
	refNAC     = 0x293
	refTGID    = 2001
	refSource  = 1234567
	refChannel = 0x100A // identifier 1, channel 10
	refIdle    = 100    // zero dibits before and after the call
)

// tsbkData builds the argument octets of a block from (shift, width, value)
// fields measured from the end of the 96-bit block.
func tsbkData(fields ...[3]uint64) [8]byte {
	b := bits.New(96)
	for _, f := range fields {
		shift, width := int(f[0]), int(f[1])
		b.MustInsert(96-shift-width, 96-shift, f[2])
	}
	var data [8]byte
	copy(data[:], b.Bytes()[2:10])
	return data
}

// referenceCall returns a control channel burst followed by a complete
// unencrypted group call, as raw dibits.
func referenceCall(nac uint16) ([]uint8, error) {
	if nac == 0 {
		nac = refNAC
	}
	enc := p25.Encoder{NAC: nac, Status: 1}

	var voice [9][8]uint16
	for i := range voice {
		voice[i] = [8]uint16{uint16(i), 0xFFF}
	}
	lc := p25.GroupVoiceLC(0, refTGID, refSource)
	es := p25.EncryptionSync{ALGID: protocol.ALGID_UNENCRYPTED}

	tsdu, err := enc.TSDU(
		p25.NewTSBK(false, protocol.TSBK_IDEN_UP, protocol.MFID_STANDARD_PRE2001, tsbkData(
			[3]uint64{76, 4, 1},
			[3]uint64{67, 9, 0x64},
			[3]uint64{58, 9, 0x100 | 20}, // +5 MHz
			[3]uint64{48, 10, 100},       // 12.5 kHz
			[3]uint64{16, 32, 851006250 / 5},
		)),
		p25.NewTSBK(false, protocol.TSBK_RFSS_STATUS, protocol.MFID_STANDARD_PRE2001, tsbkData(
			[3]uint64{56, 12, 0x2AE}, [3]uint64{48, 8, 1}, [3]uint64{40, 8, 1}, [3]uint64{24, 16, 0x1000},
		)),
		p25.NewTSBK(true, protocol.TSBK_GROUP_VOICE_GRANT, protocol.MFID_STANDARD_PRE2001, tsbkData(
			[3]uint64{56, 16, refChannel}, [3]uint64{40, 16, refTGID}, [3]uint64{16, 24, refSource},
		)),
	)
	if err != nil {
		return nil, err
	}

	units := [][]uint8{
		tsdu,
		enc.HDU([9]byte{}, protocol.MFID_STANDARD_PRE2001, protocol.ALGID_UNENCRYPTED, 0, refTGID),
		enc.LDU1(voice, lc, [2]byte{}),
		enc.LDU2(voice, es, [2]byte{}),
		enc.LDU1(voice, lc, [2]byte{}),
		enc.LDU2(voice, es, [2]byte{}),
		enc.TDULC(lc),
		enc.TDU(),
	}

	out := make([]uint8, refIdle)
	for _, u := range units {
		out = append(out, u...)
	}
	return append(out, make([]uint8, refIdle)...), nil
}

// writeReference writes the reference call in the dibit input format.
func writeReference(w io.Writer, nac uint16) (int, error) {
	dibits, err := referenceCall(nac)
	if err != nil {
		return 0, fmt.Errorf("generate: %w", err)
	}
	return w.Write(dibits)
}

// generateFile writes the reference call to path, "-" for standard output.
func generateFile(path string, nac uint16) (int, error) {
	if path == "-" {
		return writeReference(os.Stdout, nac)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("generate: %w", err)
	}
	n, err := writeReference(f, nac)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
