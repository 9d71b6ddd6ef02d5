package object

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("object not found")
	ErrCorruptHeader  = errors.New("corrupt object header")
	ErrCorruptEntry   = errors.New("corrupt tree entry")
	ErrCorruptContent = errors.New("object content does not match declared size")
	ErrUnknownKind    = errors.New("unknown object kind")
	ErrUnsupported    = errors.New("unsupported operation")
	ErrIO             = errors.New("object store i/o failure")
	ErrInvalidHash    = errors.New("invalid object hash")
	ErrHashCollision  = errors.New("hash collision")
)

// Error records a failed store operation together with the object or path it
// targeted. Kind is one of the package sentinels; Err is the underlying cause.
// Both are reachable through errors.Is.
type Error struct {
	Op     string
	Target string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Kind)
	case e.Kind == ErrIO || errors.Is(e.Err, e.Kind):
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Target, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

var taxonomy = []error{
	ErrNotFound,
	ErrCorruptHeader,
	ErrCorruptEntry,
	ErrCorruptContent,
	ErrUnknownKind,
	ErrUnsupported,
	ErrInvalidHash,
	ErrHashCollision,
}

// wrapError attaches op and target to err, classifying it under the matching
// sentinel or ErrIO when it is a plain filesystem/compression failure.
func wrapError(op, target string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	for _, kind := range taxonomy {
		if errors.Is(err, kind) {
			return &Error{Op: op, Target: target, Kind: kind, Err: err}
		}
	}
	return &Error{Op: op, Target: target, Kind: ErrIO, Err: err}
}
