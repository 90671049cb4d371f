package services

import (
	"errors"
	"fmt"
)

// ErrNoMatch is returned on the webhook path when no existing entity matches
// a submission. It is a distinct terminal outcome requiring human follow-up,
// not a processing failure.
var ErrNoMatch = errors.New("no matching entity found")

// StorageError reports a failed blob upload or metadata write. The affected
// file is skipped; the submission continues.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
