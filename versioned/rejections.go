package versioned

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/schema"
)

// RejectionKind is the reason of a rejected operation
type RejectionKind string

const (
	BlankIdentifier        RejectionKind = "BlankIdentifier"
	InvalidIdentifier      RejectionKind = "InvalidIdentifier"
	UnknownDomain          RejectionKind = "UnknownDomain"
	UnknownAttribute       RejectionKind = "UnknownAttribute"
	WrongDomain            RejectionKind = "WrongDomain"
	IncompatibleValue      RejectionKind = "IncompatibleValue"
	IncompatibleTypeChange RejectionKind = "IncompatibleTypeChange"
	InvalidDirection       RejectionKind = "InvalidDirection"
	InvalidInterval        RejectionKind = "InvalidInterval"
	DuplicateName          RejectionKind = "DuplicateName"
	UnknownElement         RejectionKind = "UnknownElement"
)

// ErrRejected matches all rejections with errors.Is
var ErrRejected = errors.New("rejected operation")

// RejectionError is an expected misuse: the operation changed nothing.
// The transaction it happened in is still valid.
type RejectionError struct {
	// Kind is the reason of the rejection
	Kind RejectionKind
	// Operation is the name of the rejected operation
	Operation string
	// Message details the rejection
	Message string
}

// Error returns a readable description
func (r *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected (%s): %s", r.Operation, r.Kind, r.Message)
}

// Is makes errors.Is(err, ErrRejected) true
func (r *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

// AsRejection returns the rejection within err, if any
func AsRejection(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}

	return nil, false
}

// IsRejection returns true if err is a rejection of kind
func IsRejection(err error, kind RejectionKind) bool {
	rejection, ok := AsRejection(err)
	return ok && rejection.Kind == kind
}

// kindOfElementError returns the rejection kind for an invalid element
func kindOfElementError(err error) RejectionKind {
	switch {
	case errors.Is(err, elements.ErrBlankName):
		return BlankIdentifier
	default:
		return InvalidIdentifier
	}
}

// kindOfSchemaError returns the rejection kind for an invalid declaration
func kindOfSchemaError(err error) RejectionKind {
	switch {
	case errors.Is(err, schema.ErrBlankName):
		return BlankIdentifier
	case errors.Is(err, schema.ErrInvalidDirection):
		return InvalidDirection
	case errors.Is(err, schema.ErrIncompatibleValue), errors.Is(err, schema.ErrInvalidType):
		return IncompatibleValue
	default:
		return UnknownDomain
	}
}
