package config

import (
	"fmt"
	"strings"
)

// MissingError means required configuration is absent. The core is never
// started in this state; the transport shows a notice instead.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Keys, ", "))
}

func NewMissingError(keys []string) *MissingError {
	return &MissingError{
		Keys: keys,
	}
}
