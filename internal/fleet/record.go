package fleet

import "time"

// Source tells how a terminal record was obtained.
type Source string

const (
	// SourceLive marks records fetched from the monitoring endpoint.
	SourceLive Source = "LIVE"
	// SourceConnectionFailed marks records synthesized when the endpoint was unreachable.
	SourceConnectionFailed Source = "CONNECTION_FAILED"
)

// IsValid checks if the source is one of the supported values.
func (s Source) IsValid() bool {
	return s == SourceLive || s == SourceConnectionFailed
}

// TerminalRecord is one terminal's health snapshot within a retrieval run.
// The persistence unique key is terminal id + retrieved_at.
type TerminalRecord struct {
	TerminalID       string
	RegionCode       string
	Location         string
	RawStatus        string
	NormalizedStatus Status
	FaultDescription string
	RetrievedAt      time.Time
	Source           Source
}

// NewLiveRecord builds a LIVE record from a vendor status payload. The raw
// status is normalized here so every record leaving this constructor carries
// a canonical status. Fault text is only kept for terminals that are not
// fully available.
func NewLiveRecord(terminalID, regionCode, location, rawStatus, faultDescription string, retrievedAt time.Time) (TerminalRecord, error) {
	normalized := NormalizeStatus(rawStatus)
	if normalized == StatusAvailable {
		faultDescription = ""
	}
	rec := TerminalRecord{
		TerminalID:       terminalID,
		RegionCode:       regionCode,
		Location:         location,
		RawStatus:        rawStatus,
		NormalizedStatus: normalized,
		FaultDescription: faultDescription,
		RetrievedAt:      retrievedAt,
		Source:           SourceLive,
	}
	if err := rec.Validate(); err != nil {
		return TerminalRecord{}, err
	}
	return rec, nil
}

// Validate ensures basic domain invariants for a record.
func (r TerminalRecord) Validate() error {
	if r.TerminalID == "" {
		return ErrEmptyTerminalID
	}
	if r.RegionCode == "" {
		return ErrEmptyRegionCode
	}
	if !r.NormalizedStatus.IsValid() {
		return ErrInvalidStatus
	}
	if !r.Source.IsValid() {
		return ErrInvalidSource
	}
	if r.RetrievedAt.IsZero() {
		return ErrInvalidRetrievedAt
	}
	return nil
}
