package fleet

import "errors"

var (
	// ErrEmptyTerminalID is returned when a record or roster entry has no terminal id.
	ErrEmptyTerminalID = errors.New("fleet: empty terminal id")
	// ErrEmptyRegionCode is returned when a record or summary has no region code.
	ErrEmptyRegionCode = errors.New("fleet: empty region code")
	// ErrInvalidStatus is returned when a normalized status is outside the canonical set.
	ErrInvalidStatus = errors.New("fleet: invalid normalized status")
	// ErrInvalidSource is returned when a record source is neither LIVE nor CONNECTION_FAILED.
	ErrInvalidSource = errors.New("fleet: invalid record source")
	// ErrInvalidRetrievedAt is returned when the retrieval timestamp is zero.
	ErrInvalidRetrievedAt = errors.New("fleet: invalid retrieved_at")
	// ErrCountMismatch is returned when summary counts do not add up to the total.
	ErrCountMismatch = errors.New("fleet: counts do not sum to total")
	// ErrNegativeCount is returned when a summary carries a negative count.
	ErrNegativeCount = errors.New("fleet: negative count")
	// ErrEmptyRoster is returned when a roster has no entries.
	ErrEmptyRoster = errors.New("fleet: empty roster")
	// ErrDuplicateTerminalID is returned when a roster lists the same terminal twice.
	ErrDuplicateTerminalID = errors.New("fleet: duplicate terminal id")
)
