package fault

import (
	"errors"
	"fmt"
)

// Sentinel kinds attached at collaborator boundaries. Every error crossing a
// boundary wraps exactly one of these (or none, which reads as Unexpected).
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrTimeout  = errors.New("timeout")
)

// NotFound wraps err (or creates a new error) carrying the NotFound kind.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflict wraps a duplicate-state rejection.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Timeout marks an expected follow-up that never arrived.
func Timeout(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTimeout, fmt.Sprintf(format, args...))
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
func IsTimeout(err error) bool  { return errors.Is(err, ErrTimeout) }
