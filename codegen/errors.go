package codegen

import (
	"fmt"

	"github.com/pkg/errors"
)

// InternalError reports a broken invariant in the input: something semantic
// analysis should have rejected reached code generation. Generation stops at
// the first one.
type InternalError struct {
	Class string
	Err   error
}

func (e *InternalError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("internal error: %v", e.Err)
	}
	return fmt.Sprintf("internal error in class %s: %v", e.Class, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
func (e *InternalError) Cause() error  { return e.Err }

// internalErrorf builds an InternalError whose cause carries a stack trace.
func internalErrorf(class, format string, args ...any) error {
	return &InternalError{Class: class, Err: errors.Errorf(format, args...)}
}

// IsInternal reports whether err, or anything it wraps, is an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
