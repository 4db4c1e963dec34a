package backend

import "fmt"

// ServiceUnavailableError means the backend could not be reached at all
// (e.g. 502/503 from a proxy in front of a stopped service). The session
// stays usable; the failure is surfaced as an error turn.
type ServiceUnavailableError struct {
	StatusCode int
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable (status %d)", e.StatusCode)
}

// RemoteError carries an explicit error detail returned by the backend. The
// detail is surfaced verbatim as an error turn.
type RemoteError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Detail)
}
