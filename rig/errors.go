// Package rig holds the failure taxonomy shared by the skeleton and
// animation codecs and the transform math built on top of them.
package rig

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedInput       = errors.New("truncated input")
	ErrUnsupportedVersion   = errors.New("unsupported version")
	ErrInvalidRiggingStage  = errors.New("invalid rigging stage")
	ErrInconsistentTopology = errors.New("inconsistent topology")
	ErrMissingExternalData  = errors.New("missing external data")
	ErrUnsupportedStructure = errors.New("unsupported structure")
)

// CountOverrunError is returned when a declared element count cannot be
// satisfied by the bytes left in the stream. It matches both
// ErrTruncatedInput and ErrUnsupportedStructure.
type CountOverrunError struct {
	What      string
	Count     int
	ElemSize  int
	Remaining int
}

func (e *CountOverrunError) Error() string {
	return fmt.Sprintf("%s declares %d elements of %d bytes, only %d bytes left",
		e.What, e.Count, e.ElemSize, e.Remaining)
}

func (e *CountOverrunError) Is(target error) bool {
	return target == ErrTruncatedInput || target == ErrUnsupportedStructure
}
