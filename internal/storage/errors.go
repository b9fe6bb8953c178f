// ABOUTME: Error taxonomy for local and remote storage failures.
// ABOUTME: Remote errors are classified as transient, validation or conflict.
package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("not found")

// OpError is a local store I/O failure with the table and operation that hit it.
type OpError struct {
	Table string
	Op    string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("local %s %s: %v", e.Table, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(table, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Table: table, Op: op, Err: err}
}

// RemoteErrorKind classifies a remote failure by whether retrying makes sense.
type RemoteErrorKind int

const (
	// RemoteTransient covers network loss, auth expiry and timeouts. Worth retrying later.
	RemoteTransient RemoteErrorKind = iota
	// RemoteValidation covers constraint and data errors. Retrying the same payload will fail again.
	RemoteValidation
	// RemoteConflict means a row with the same id already exists remotely.
	RemoteConflict
)

func (k RemoteErrorKind) String() string {
	switch k {
	case RemoteTransient:
		return "transient"
	case RemoteValidation:
		return "validation"
	case RemoteConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// RemoteError is a classified remote store failure.
type RemoteError struct {
	Kind  RemoteErrorKind
	Table string
	Op    string
	Err   error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s %s (%s): %v", e.Table, e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NewRemoteError builds a RemoteError.
func NewRemoteError(kind RemoteErrorKind, table, op string, err error) error {
	return &RemoteError{Kind: kind, Table: table, Op: op, Err: err}
}

func remoteKind(err error) (RemoteErrorKind, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// IsTransient reports whether err is a remote failure worth retrying later.
// Unclassified errors are treated as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	kind, ok := remoteKind(err)
	return !ok || kind == RemoteTransient
}

// IsValidation reports whether err is a remote validation failure.
func IsValidation(err error) bool {
	kind, ok := remoteKind(err)
	return ok && kind == RemoteValidation
}

// IsConflict reports whether err is a remote duplicate-id failure.
func IsConflict(err error) bool {
	kind, ok := remoteKind(err)
	return ok && kind == RemoteConflict
}
