package ingest

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by errors.Is for any LookupError.
var ErrNotFound = errors.New("not found")

// LookupError reports a ticker that has no entry in the SEC ticker directory.
type LookupError struct {
	Ticker string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("ticker %s not found in SEC map", e.Ticker)
}

// Is lets callers test with errors.Is(err, ErrNotFound).
func (e *LookupError) Is(target error) bool {
	return target == ErrNotFound
}

// NetworkError covers transport failures, timeouts, non-2xx replies and
// undecodable bodies from either SEC endpoint.
type NetworkError struct {
	Step       string // "ticker lookup" or "company facts"
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("SEC %s request to %s returned status %d", e.Step, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("SEC %s request to %s failed: %v", e.Step, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
