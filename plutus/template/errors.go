package template

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile is the kind of every CompileError
	ErrCompile = errors.New("template compile error")

	// ErrInvalidProgram is returned when a program binary or term tree is malformed
	ErrInvalidProgram = errors.New("invalid program")
)

// CompileError reports a problem in template source at a position
type CompileError struct {
	Pos Pos
	Msg string
}

func (e *CompileError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s at %s: %s", ErrCompile.Error(), e.Pos, e.Msg)
}

func (e *CompileError) Unwrap() error { return ErrCompile }

func compileErrorf(pos Pos, format string, args ...interface{}) error {
	return &CompileError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func invalidProgramf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidProgram, fmt.Sprintf(format, args...))
}
