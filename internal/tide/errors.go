package tide

import "fmt"

// RequestFailedError is returned when the prediction API answers with a
// non-success status
type RequestFailedError struct {
	Status int
	Body   string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("Failed to fetch tide predictions: %d %s", e.Status, e.Body)
}

func NewRequestFailedError(status int, body string) *RequestFailedError {
	return &RequestFailedError{
		Status: status,
		Body:   body,
	}
}

// NetworkFailureError is returned when no response was received at all
type NetworkFailureError struct {
	Cause error
}

func (e *NetworkFailureError) Error() string {
	if e.Cause == nil {
		return "Network error"
	}
	return fmt.Sprintf("Network error: %v", e.Cause)
}

func (e *NetworkFailureError) Unwrap() error {
	return e.Cause
}

func NewNetworkFailureError(cause error) *NetworkFailureError {
	return &NetworkFailureError{
		Cause: cause,
	}
}

// DecodeError means a 2xx body could not be parsed as JSON
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Failed to decode response from %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
