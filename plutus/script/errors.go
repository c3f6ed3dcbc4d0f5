package script

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownParameter is returned when binding a name the template does not declare
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrTypeMismatch is returned when a value does not match the parameter's declared type
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrAlreadyBound is returned when binding a parameter a second time.
	// Binding never overwrites.
	ErrAlreadyBound = errors.New("parameter already bound")

	// ErrMissingParameter is returned when finalizing a handle with open holes
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidArtifact is returned when an artifact record cannot be read back
	ErrInvalidArtifact = errors.New("invalid script artifact")
)

// BindError describes a failed Bind call. Kind is one of the binding sentinels.
type BindError struct {
	Kind  error
	Param string
	Msg   string
}

func (e *BindError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("binding %s: %v", e.Param, e.Kind)
	}
	return fmt.Sprintf("binding %s: %v: %s", e.Param, e.Kind, e.Msg)
}

func (e *BindError) Unwrap() error { return e.Kind }

// MissingParameterError names every hole left unbound at finalization
type MissingParameterError struct {
	Names []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingParameter, strings.Join(e.Names, ", "))
}

func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }
