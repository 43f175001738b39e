package api

import (
	"errors"
	"fmt"
)

// DuplicateKeyError reports a declaration whose key collides with an
// existing actuation, measurement, parser, static-data or reserved result
// key. Raised at declaration time, before any hardware is touched.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate sweep key %q", e.Key)
}

// IsDuplicateKey reports whether err is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var d *DuplicateKeyError
	return errors.As(err, &d)
}

// ShapeError reports static data or restored columns whose shape is not
// broadcast-compatible with the grid.
type ShapeError struct {
	Key  string
	Want Shape
	Got  Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("static data %q has shape %v, not a prefix of grid shape %v", e.Key, e.Got, e.Want)
}

// DimensionError reports a command-control declaration whose domain count
// does not match its swept channel count, or an evaluate call returning a
// vector of the wrong length.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// UnboundCallableError reports an execution path that needs a callable
// which was stripped during whole-object persistence and never re-bound.
// Inspection of stored data never triggers it; gathering does, at the
// first call that needs the missing callable.
type UnboundCallableError struct {
	Key  string
	Kind string // "actuation", "measurement", "parser" or "control"
}

func (e *UnboundCallableError) Error() string {
	return fmt.Sprintf("%s %q has no bound callable; re-bind before gathering", e.Kind, e.Key)
}

// IsUnboundCallable reports whether err is an UnboundCallableError.
func IsUnboundCallable(err error) bool {
	var u *UnboundCallableError
	return errors.As(err, &u)
}
