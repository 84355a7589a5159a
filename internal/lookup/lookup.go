// Package lookup resolves unit and talkgroup ids to aliases, from a YAML
// file or from the alias table of the database.
package lookup

import (
	"strconv"
	"time"

	"github.com/dbehnke/p25cai/internal/database"
)

// Kind selects the id space of an alias.
type Kind string

const (
	Unit  Kind = database.KindUnit
	Group Kind = database.KindGroup
)

// Ids with a fixed meaning.
const (
	UnitAll  = 0xFFFFFF // all units
	GroupAll = 0xFFFF   // all-call talkgroup
	Unknown  = 0
)

// AliasLookup resolves ids to names. Implementations are safe for
// concurrent use.
type AliasLookup interface {
	// Find returns the alias of an id.
	Find(kind Kind, id uint32) (string, bool)
	// Name returns the alias, "ALL" for the all ids, or the id in decimal.
	Name(kind Kind, id uint32) string

	Start() error
	Stop()
	ForceReload() error

	GetEntryCount() uint32
	GetStats() (totalEntries, reloadCount, errorCount uint32, lastReload time.Time)
}

// isAll reports whether id is the all id of its kind.
func isAll(kind Kind, id uint32) bool {
	return (kind == Unit && id == UnitAll) || (kind == Group && id == GroupAll)
}

// name implements AliasLookup.Name on top of a Find function.
func name(find func(Kind, uint32) (string, bool), kind Kind, id uint32) string {
	if isAll(kind, id) {
		return "ALL"
	}
	if alias, ok := find(kind, id); ok {
		return alias
	}
	return strconv.FormatUint(uint64(id), 10)
}
