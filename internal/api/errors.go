package api

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the transfer engine can surface.
// Callers match them with errors.Is; APIError additionally carries the
// service code and message for errors.As.
var (
	// ErrLocalIO marks a local file open/read/write failure.
	ErrLocalIO = errors.New("local i/o failure")
	// ErrNetwork marks a transport-level send failure.
	ErrNetwork = errors.New("network failure")
	// ErrProtocol marks a response whose shape violated an expected invariant.
	ErrProtocol = errors.New("malformed response")
	// ErrResolution marks a download link that could not be extracted.
	ErrResolution = errors.New("no download url found")
	// ErrFinalize marks a failed upload completion signal.
	ErrFinalize = errors.New("upload finalization failed")
)

// APIError is a non-success status returned by the remote service.
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// CodeNameConflict is the documented "name already exists" status that
// triggers the single automatic rename retry during upload negotiation.
const CodeNameConflict = 5060
