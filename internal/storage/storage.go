// Package storage is the key/value persistence capability used where a browser
// would use localStorage.
package storage

import (
	"context"
	"fmt"
)

type Storage interface {
	// GetItem returns the stored value and whether the key exists
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Error is returned by every backend when a read, write or delete fails
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s %q failed", e.Op, e.Key)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op, key string, err error) *Error {
	return &Error{
		Op:  op,
		Key: key,
		Err: err,
	}
}
