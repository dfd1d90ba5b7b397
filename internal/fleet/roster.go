package fleet

import "fmt"

// RosterEntry identifies one terminal the fleet is expected to contain.
type RosterEntry struct {
	TerminalID string
	Location   string
	RegionCode string
}

// Roster is the configured set of terminals a retrieval run covers. It is
// the source of truth for fleet size, both for live fetches and for the
// connection-failure fallback.
type Roster []RosterEntry

// Validate ensures the roster is non-empty with unique, well-formed entries.
func (r Roster) Validate() error {
	if len(r) == 0 {
		return ErrEmptyRoster
	}
	seen := make(map[string]struct{}, len(r))
	for _, e := range r {
		if e.TerminalID == "" {
			return ErrEmptyTerminalID
		}
		if e.RegionCode == "" {
			return ErrEmptyRegionCode
		}
		if _, dup := seen[e.TerminalID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTerminalID, e.TerminalID)
		}
		seen[e.TerminalID] = struct{}{}
	}
	return nil
}

// TerminalIDs returns the roster's terminal ids in roster order.
func (r Roster) TerminalIDs() []string {
	ids := make([]string, len(r))
	for i, e := range r {
		ids[i] = e.TerminalID
	}
	return ids
}
