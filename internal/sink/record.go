package sink

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbehnke/p25cai/internal/database"
	"github.com/dbehnke/p25cai/internal/framer"
	"github.com/dbehnke/p25cai/internal/lookup"
	"github.com/dbehnke/p25cai/internal/protocol"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// Record is the flat description of a frame shared by the log, MQTT and
// database sinks.
type Record struct {
	Time      time.Time `json:"time"`
	Session   string    `json:"session,omitempty"`
	NAC       uint16    `json:"nac"`
	DUID      uint8     `json:"duid"`
	Type      string    `json:"type"`
	NIDErrors int       `json:"nid_errors"`
	Corrected int       `json:"corrected"`
	Failed    bool      `json:"failed"`
	Inbound   bool      `json:"inbound"`
	MFID      uint8     `json:"mfid"`
	ALGID     uint8     `json:"algid,omitempty"`
	Encrypted bool      `json:"encrypted,omitempty"`
	TGID      uint16    `json:"tgid,omitempty"`
	Source    uint32    `json:"source,omitempty"`
	Group     string    `json:"group,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Opcodes   []uint8   `json:"opcodes,omitempty"`
	Summary   string    `json:"summary"`
}

// NewRecord describes a frame.
func NewRecord(f p25.Frame) Record {
	info := f.Info()
	corrected, failed := framer.Health(f)
	r := Record{
		Time:      time.Now(),
		NAC:       info.NAC,
		DUID:      uint8(info.DUID),
		Type:      info.DUID.String(),
		NIDErrors: info.NIDErrors,
		Corrected: corrected,
		Failed:    failed,
		Inbound:   info.Inbound(),
	}

	switch v := f.(type) {
	case *p25.HDU:
		r.MFID, r.ALGID, r.TGID = v.MFID, v.ALGID, v.TGID
		r.Encrypted = v.Encrypted()
		r.Summary = fmt.Sprintf("mfid %s algid %s kid %d tgid %d",
			protocol.MFIDName(v.MFID), protocol.ALGIDName(v.ALGID), v.KID, v.TGID)
	case *p25.LDU1:
		r.linkControl(&v.LC)
		r.Summary += voiceSummary(v.Voice[:])
	case *p25.LDU2:
		r.ALGID = v.ES.ALGID
		r.Encrypted = v.ES.Encrypted()
		r.Summary = fmt.Sprintf("algid %s kid %d%s", protocol.ALGIDName(v.ES.ALGID), v.ES.KID, voiceSummary(v.Voice[:]))
	case *p25.TDU:
		r.Summary = "terminator"
	case *p25.TDULC:
		r.linkControl(&v.LC)
	case *p25.TSDU:
		names := make([]string, 0, len(v.Blocks))
		for _, b := range v.Blocks {
			r.Opcodes = append(r.Opcodes, b.Opcode)
			r.MFID = b.MFID
			names = append(names, b.Name())
		}
		r.Summary = strings.Join(names, ", ")
	case *p25.PDU:
		h := v.Header
		r.MFID = h.MFID
		r.Source = h.LLID
		if h.Format == protocol.PDU_FMT_AMBT {
			r.Opcodes = []uint8{h.Opcode}
		}
		r.Summary = fmt.Sprintf("%s llid %d sap %d blocks %d crc ok %t",
			h.FormatName(), h.LLID, h.SAP, len(v.Blocks), v.PacketCRCOK)
	}
	return r
}

func (r *Record) linkControl(lc *p25.LinkControl) {
	r.MFID = lc.MFID
	r.Encrypted = lc.Protected
	r.TGID = lc.TGID
	r.Source = lc.Source
	r.Summary = lc.Name()
	if lc.TGID != 0 || lc.Source != 0 {
		r.Summary += fmt.Sprintf(" tgid %d source %d", lc.TGID, lc.Source)
	}
}

func voiceSummary(v []p25.VoiceCodeword) string {
	degraded := 0
	for _, cw := range v {
		if cw.Degraded {
			degraded++
		}
	}
	if degraded == 0 {
		return ""
	}
	return fmt.Sprintf(" degraded %d/%d", degraded, len(v))
}

// Annotate fills in the aliases of the talkgroup and source unit.
func (r *Record) Annotate(l lookup.AliasLookup) {
	if l == nil {
		return
	}
	if r.TGID != 0 {
		r.Group = l.Name(lookup.Group, uint32(r.TGID))
	}
	if r.Source != 0 {
		r.Unit = l.Name(lookup.Unit, r.Source)
	}
}

// DatabaseRecord converts the record into a frame log row.
func (r Record) DatabaseRecord(payload []byte) database.FrameRecord {
	var opcode uint8
	if len(r.Opcodes) > 0 {
		opcode = r.Opcodes[0]
	}
	return database.FrameRecord{
		CreatedAt: r.Time,
		Session:   r.Session,
		NAC:       r.NAC,
		DUID:      r.DUID,
		Type:      r.Type,
		NIDErrors: r.NIDErrors,
		Corrected: r.Corrected,
		Failed:    r.Failed,
		MFID:      r.MFID,
		Opcode:    opcode,
		TGID:      r.TGID,
		Source:    r.Source,
		Encrypted: r.Encrypted,
		Summary:   r.Summary,
		Payload:   payload,
	}
}
