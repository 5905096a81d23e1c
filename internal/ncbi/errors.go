package ncbi

import "fmt"

// TransportError reports that an E-utilities request did not produce a
// usable response: connection failure, timeout, non-2xx status, or an
// oversized body.
type TransportError struct {
	Op         string // endpoint, e.g. "efetch.fcgi"
	URL        string // request URL with the API key redacted
	StatusCode int    // 0 when no response was received
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ncbi %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ncbi %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}
