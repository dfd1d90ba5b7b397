package fleet

import (
	"fmt"
	"time"
)

// FailoverDataset synthesizes one OUT_OF_SERVICE record per roster entry for
// runs where the monitoring endpoint could not be reached at all. The records
// flow through the same Aggregate as live data, so downstream consumers see
// the usual shape with every rostered terminal out of service.
func FailoverDataset(roster Roster, retrievedAt time.Time) ([]TerminalRecord, error) {
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	if retrievedAt.IsZero() {
		return nil, ErrInvalidRetrievedAt
	}

	records := make([]TerminalRecord, 0, len(roster))
	for _, entry := range roster {
		records = append(records, TerminalRecord{
			TerminalID:       entry.TerminalID,
			RegionCode:       entry.RegionCode,
			Location:         entry.Location,
			RawStatus:        string(StatusOutOfService),
			NormalizedStatus: StatusOutOfService,
			FaultDescription: fmt.Sprintf("connection failed: terminal %s at %s", entry.TerminalID, entry.Location),
			RetrievedAt:      retrievedAt,
			Source:           SourceConnectionFailed,
		})
	}
	return records, nil
}
