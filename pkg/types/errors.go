// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// RequestError reports a failed call to a remote capability (search or
// text generation): transport failures, non-2xx responses, and responses
// that could not be decoded.
type RequestError struct {
	// Op names the failing operation (e.g. "arxiv query", "claude messages").
	Op string

	// StatusCode is the HTTP status when one was received, 0 otherwise.
	StatusCode int

	Err error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
