package llm

import (
	"errors"
	"fmt"
)

// UpstreamError is a non-success status from the completion endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion endpoint returned %d", e.Status)
}

// MalformedError is a success response whose body had an unexpected shape.
type MalformedError struct {
	Body string
}

func (e *MalformedError) Error() string {
	return "unexpected completion response format"
}

// FallbackText renders a completion failure into the degraded answer text the
// callers persist and return. Internally failures stay typed; this conversion
// happens only at the boundary.
func FallbackText(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return fmt.Sprintf("Error: %d - %s", ue.Status, ue.Body)
	}
	var me *MalformedError
	if errors.As(err, &me) {
		return fmt.Sprintf("Unexpected response format: %s", me.Body)
	}
	return fmt.Sprintf("Error: %s", err)
}
