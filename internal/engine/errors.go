package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution matches every *ResolutionError with errors.Is.
	ErrResolution = errors.New("resolution failed")
	// ErrNotApplicable is returned by a Context for attributes its document kind does not have.
	ErrNotApplicable = errors.New("attribute not applicable to document")
)

// ErrorKind classifies a resolution failure.
type ErrorKind int

const (
	UnknownVariable ErrorKind = iota + 1
	NotApplicable
	MixedListExpression
	InvalidPosition
	ContextFailure
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownVariable:
		return "unknown_variable"
	case NotApplicable:
		return "not_applicable"
	case MixedListExpression:
		return "mixed_list_expression"
	case InvalidPosition:
		return "invalid_position"
	case ContextFailure:
		return "context_failure"
	}
	return "unknown"
}

// ResolutionError aborts the resolution of a whole document.
type ResolutionError struct {
	Kind  ErrorKind
	Field string // position of the failing field
	Token string // variable name, when the failure is tied to one
	Err   error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolve field %s: %s", e.Field, e.Kind)
	if e.Token != "" {
		msg += fmt.Sprintf(" ${%s}", e.Token)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

func fail(kind ErrorKind, field, token string, err error) *ResolutionError {
	return &ResolutionError{Kind: kind, Field: field, Token: token, Err: err}
}
