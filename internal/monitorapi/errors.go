package monitorapi

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectivity marks failures where the monitoring host could not be
	// reached at all (probe or transport level).
	ErrConnectivity = errors.New("monitorapi: host unreachable")
	// ErrAuth marks failures where the host answered but rejected the
	// credentials or the session.
	ErrAuth = errors.New("monitorapi: authentication rejected")
)

// FetchError is a per-terminal status fetch failure after the retry budget
// is spent. It carries the terminal id so callers can isolate the failure.
type FetchError struct {
	TerminalID string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("monitorapi: terminal %s: %v", e.TerminalID, e.Err)
}

// Unwrap exposes the last underlying error.
func (e *FetchError) Unwrap() error { return e.Err }
