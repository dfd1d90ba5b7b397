package fleet

import "strings"

// Status is the canonical health state of a terminal.
type Status string

const (
	StatusAvailable    Status = "AVAILABLE"
	StatusWarning      Status = "WARNING"
	StatusWounded      Status = "WOUNDED"
	StatusZombie       Status = "ZOMBIE"
	StatusOutOfService Status = "OUT_OF_SERVICE"
)

// Statuses lists the canonical statuses in reporting order.
var Statuses = [5]Status{StatusAvailable, StatusWarning, StatusWounded, StatusZombie, StatusOutOfService}

// IsValid checks if the status is one of the canonical values.
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusWarning, StatusWounded, StatusZombie, StatusOutOfService:
		return true
	default:
		return false
	}
}

// String returns the raw string for storage.
func (s Status) String() string { return string(s) }

// statusTable folds vendor status codes into the canonical set. Codes that
// spell a canonical status map to themselves; vendor-specific codes map to
// the closest canonical state.
var statusTable = map[string]Status{
	"AVAILABLE":      StatusAvailable,
	"WARNING":        StatusWarning,
	"WOUNDED":        StatusWounded,
	"ZOMBIE":         StatusZombie,
	"OUT_OF_SERVICE": StatusOutOfService,
	"MAINTENANCE":    StatusOutOfService,
	"HARD":           StatusWounded,
	"CASH":           StatusOutOfService,
	"UNAVAILABLE":    StatusOutOfService,
	"SUPERVISOR":     StatusWarning,
	"LOW_CASH":       StatusWarning,
	"OFFLINE":        StatusZombie,
}

// NormalizeStatus maps a raw vendor status code to a canonical status.
// Lookup is case-insensitive and ignores surrounding whitespace. Codes
// missing from the table normalize to ZOMBIE (state unknown); the raw code
// is kept on the record, so nothing is lost.
func NormalizeStatus(raw string) Status {
	if s, ok := statusTable[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusZombie
}
