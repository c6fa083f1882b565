package session

import (
	"errors"
	"fmt"
)

// ErrSessionActive is returned when creating a session while another one is
// still active.
var ErrSessionActive = errors.New("a conversion session is already active")

// StateError reports an operation attempted in a status that does not allow
// it.
type StateError struct {
	Op     string
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s session in status %q", e.Op, e.Status)
}

// NotFoundError reports a load of a session that does not exist on disk.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return "no current session found"
	}
	return fmt.Sprintf("session %s not found", e.ID)
}

// CorruptedError reports a persisted session file that could not be decoded,
// typically the residue of a crash mid-write.
type CorruptedError struct {
	Path string
	Err  error
}

func (e *CorruptedError) Error() string {
	return fmt.Sprintf("session file %s is corrupted: %v", e.Path, e.Err)
}

func (e *CorruptedError) Unwrap() error { return e.Err }
