package database

import (
	"fmt"
	"strings"
	"time"
)

// Alias kinds.
const (
	KindUnit  = "unit"
	KindGroup = "group"
)

// Alias names a subscriber unit or a talkgroup.
type Alias struct {
	Kind        string    `gorm:"primarykey;size:8" json:"kind"`
	ID          uint32    `gorm:"primarykey;autoIncrement:false" json:"id"`
	Name        string    `gorm:"index;size:64" json:"name"`
	Tag         string    `gorm:"size:32" json:"tag"`
	Description string    `gorm:"size:128" json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Alias) TableName() string {
	return "aliases"
}

// IsValid checks if the alias has the required fields
func (a Alias) IsValid() bool {
	return (a.Kind == KindUnit || a.Kind == KindGroup) && a.ID > 0 && a.Name != ""
}

// SanitizeFields trims every text field and lower-cases the kind
func (a *Alias) SanitizeFields() {
	a.Kind = strings.ToLower(strings.TrimSpace(a.Kind))
	a.Name = strings.TrimSpace(a.Name)
	a.Tag = strings.TrimSpace(a.Tag)
	a.Description = strings.TrimSpace(a.Description)
}

func (a Alias) String() string {
	result := fmt.Sprintf("%s %d: %s", a.Kind, a.ID, a.Name)
	if a.Tag != "" {
		result += fmt.Sprintf(" [%s]", a.Tag)
	}
	return result
}

// FrameRecord is one decoded frame in the frame log.
type FrameRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Session   string    `gorm:"index;size:36" json:"session"`
	NAC       uint16    `gorm:"index" json:"nac"`
	DUID      uint8     `gorm:"index" json:"duid"`
	Type      string    `gorm:"size:8" json:"type"`
	NIDErrors int       `json:"nid_errors"`
	Corrected int       `json:"corrected"`
	Failed    bool      `json:"failed"`
	MFID      uint8     `json:"mfid"`
	Opcode    uint8     `json:"opcode"`
	TGID      uint16    `gorm:"column:tgid;index" json:"tgid"`
	Source    uint32    `json:"source"`
	Encrypted bool      `json:"encrypted"`
	Summary   string    `gorm:"size:256" json:"summary"`
	Payload   []byte    `json:"-"`
}

// TableName specifies the table name for GORM
func (FrameRecord) TableName() string {
	return "frames"
}
