package eval

import (
	"errors"
	"fmt"

	"github.com/wbrown/janus-plutus/plutus/template"
)

// ErrEvaluationFailure is the kind of every *Failure
var ErrEvaluationFailure = errors.New("evaluation failure")

// CallSite is one active frame at the point of failure
type CallSite struct {
	Function string
	Site     int64
	Pos      template.Pos
	Known    bool // Pos was resolved from the program's site table
}

func (c CallSite) String() string {
	if !c.Known {
		return c.Function
	}
	return fmt.Sprintf("%s at %s", c.Function, c.Pos)
}

// Failure is a failed evaluation. CallSites are outermost first.
type Failure struct {
	Message   string
	CallSites []CallSite
	Logs      []string
}

func (f *Failure) Error() string {
	if len(f.CallSites) == 0 {
		return fmt.Sprintf("%v: %s", ErrEvaluationFailure, f.Message)
	}
	return fmt.Sprintf("%v: %s (in %s)", ErrEvaluationFailure, f.Message, f.CallSites[len(f.CallSites)-1])
}

func (f *Failure) Unwrap() error { return ErrEvaluationFailure }
