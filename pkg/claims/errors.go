package claims

import (
	"errors"
	"fmt"
)

var (
	ErrInputFile      = errors.New("input file error")
	ErrMissingColumn  = errors.New("required column missing")
	ErrMalformedRow   = errors.New("malformed row")
	ErrNonBinaryLabel = errors.New("label value is not binary")
)

// InputError locates a problem in one of the input tables. It always
// matches ErrInputFile with errors.Is, as well as its Cause.
type InputError struct {
	Path   string
	Line   int    // 1-based, 0 when the file itself failed
	Column string // empty when not column specific
	Cause  error
}

func (e *InputError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("%s:%d column %s: %v", e.Path, e.Line, e.Column, e.Cause)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Cause)
	case e.Column != "":
		return fmt.Sprintf("%s column %s: %v", e.Path, e.Column, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.Path, e.Cause)
	}
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

func (e *InputError) Is(target error) bool {
	return target == ErrInputFile
}
