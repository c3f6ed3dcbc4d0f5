// Package eval runs compiled programs against argument data.
//
// Validator programs (those with a purpose) must produce a boolean. True
// becomes the unit value; false, and every runtime error, is a *Failure
// carrying the active call sites and the trace log.
package eval

import (
	"fmt"
	"time"

	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/annotations"
	"github.com/wbrown/janus-plutus/plutus/template"
)

// Options configures an Evaluator
type Options struct {
	// MaxSteps bounds the number of terms evaluated. Zero means unlimited.
	MaxSteps int

	// Collector receives eval/trace and eval/completed events
	Collector *annotations.Collector
}

// DefaultOptions returns the options used by Evaluate
func DefaultOptions() Options {
	return Options{MaxSteps: 1_000_000}
}

// Result is a successful evaluation
type Result struct {
	Value plutus.Data
	Steps int
	Logs  []string
}

// Evaluator evaluates programs. It holds no per-run state and is safe for
// concurrent use.
type Evaluator struct {
	opts     Options
	builtins map[string]builtinFunc
}

// New creates an evaluator
func New(opts Options) *Evaluator {
	return &Evaluator{opts: opts, builtins: builtins}
}

// Evaluate runs p with DefaultOptions
func Evaluate(p *template.Program, args []plutus.Data) (*Result, error) {
	return New(DefaultOptions()).Evaluate(p, args)
}

// Evaluate applies p to args
func (e *Evaluator) Evaluate(p *template.Program, args []plutus.Data) (*Result, error) {
	start := time.Now()
	m := &machine{
		prog:      p,
		builtins:  e.builtins,
		maxSteps:  e.opts.MaxSteps,
		collector: e.opts.Collector,
	}

	value, err := m.run(args)
	if err != nil {
		if f, ok := err.(*Failure); ok {
			f.Logs = m.logs
		}
		if m.collector.Enabled() {
			m.collector.AddTiming(annotations.ErrorEval, start, map[string]interface{}{
				"steps": m.steps,
				"error": err,
			})
		}
		return nil, err
	}

	if m.collector.Enabled() {
		m.collector.AddTiming(annotations.EvalCompleted, start, map[string]interface{}{
			"steps": m.steps,
			"value": value,
		})
	}
	return &Result{Value: value, Steps: m.steps, Logs: m.logs}, nil
}

// env is a persistent linked scope, innermost first
type env struct {
	name  string
	value plutus.Data
	next  *env
}

func (e *env) bind(name string, value plutus.Data) *env {
	return &env{name: name, value: value, next: e}
}

func (e *env) lookup(name string) (plutus.Data, bool) {
	for s := e; s != nil; s = s.next {
		if s.name == name {
			return s.value, true
		}
	}
	return nil, false
}

// machine holds the state of a single run
type machine struct {
	prog      *template.Program
	builtins  map[string]builtinFunc
	maxSteps  int
	steps     int
	frames    []CallSite
	logs      []string
	collector *annotations.Collector
}

func (m *machine) run(args []plutus.Data) (plutus.Data, error) {
	if m.prog == nil {
		return nil, m.fail("no program")
	}
	if len(args) != len(m.prog.Args) {
		return nil, m.fail("program expects %d arguments, got %d", len(m.prog.Args), len(args))
	}

	var scope *env
	for i, name := range m.prog.Args {
		if args[i] == nil {
			return nil, m.fail("argument %s is nil", name)
		}
		scope = scope.bind(name, args[i])
	}

	value, err := m.eval(m.prog.Body, scope)
	if err != nil {
		return nil, err
	}
	if m.prog.Purpose == "" {
		return value, nil
	}

	ok, isBool := plutus.AsBool(value)
	if !isBool {
		return nil, m.fail("validator returned %s, expected a boolean", value)
	}
	if !ok {
		return nil, m.fail("validation failed")
	}
	return plutus.Unit(), nil
}

// fail builds a Failure from the frames active now
func (m *machine) fail(format string, args ...interface{}) error {
	return &Failure{
		Message:   fmt.Sprintf(format, args...),
		CallSites: append([]CallSite(nil), m.frames...),
	}
}

func (m *machine) push(function string, site int64) {
	cs := CallSite{Function: function, Site: site}
	if s, ok := m.prog.Site(site); ok {
		cs.Pos = s.Pos
		cs.Known = true
	}
	m.frames = append(m.frames, cs)
}

func (m *machine) pop() {
	m.frames = m.frames[:len(m.frames)-1]
}

func (m *machine) trace(message string, value plutus.Data) {
	text := value.String()
	if b, ok := plutus.AsBool(value); ok {
		text = fmt.Sprint(b)
	}
	line := message + ": " + text
	m.logs = append(m.logs, line)
	if m.collector.Enabled() {
		m.collector.Add(annotations.Event{
			Name: annotations.EvalTrace,
			Data: map[string]interface{}{"message": line},
		})
	}
}

func (m *machine) eval(term plutus.Data, scope *env) (plutus.Data, error) {
	m.steps++
	if m.maxSteps > 0 && m.steps > m.maxSteps {
		return nil, m.fail("step limit of %d exhausted", m.maxSteps)
	}

	t, err := template.CheckTerm(term)
	if err != nil {
		return nil, m.fail("%v", err)
	}

	switch t.Tag() {
	case template.TermConst:
		return t.Field(0), nil

	case template.TermVar:
		name, err := template.TermName(t.Field(0))
		if err != nil {
			return nil, m.fail("%v", err)
		}
		v, ok := scope.lookup(name)
		if !ok {
			return nil, m.fail("unbound variable %s", name)
		}
		return v, nil

	case template.TermHole:
		name, _ := template.TermName(t.Field(0))
		return nil, m.fail("unbound parameter %s", name)

	case template.TermApply:
		return m.apply(t, scope)

	case template.TermIf:
		cond, err := m.eval(t.Field(0), scope)
		if err != nil {
			return nil, err
		}
		b, ok := plutus.AsBool(cond)
		if !ok {
			return nil, m.fail("condition is %s, expected a boolean", cond)
		}
		if b {
			return m.eval(t.Field(1), scope)
		}
		return m.eval(t.Field(2), scope)

	case template.TermLet:
		name, err := template.TermName(t.Field(0))
		if err != nil {
			return nil, m.fail("%v", err)
		}
		v, err := m.eval(t.Field(1), scope)
		if err != nil {
			return nil, err
		}
		return m.eval(t.Field(2), scope.bind(name, v))

	case template.TermEach:
		return m.each(t, scope)

	case template.TermTrace:
		message, err := template.TermName(t.Field(0))
		if err != nil {
			return nil, m.fail("%v", err)
		}
		v, err := m.eval(t.Field(1), scope)
		if err != nil {
			return nil, err
		}
		m.trace(message, v)
		return v, nil

	case template.TermError:
		message, err := template.TermName(t.Field(0))
		if err != nil {
			return nil, m.fail("%v", err)
		}
		site, _ := template.TermInt(t.Field(1))
		m.push("error", site)
		return nil, m.fail("%s", message)
	}

	return nil, m.fail("unknown term tag %d", t.Tag())
}

func (m *machine) apply(t plutus.Constr, scope *env) (plutus.Data, error) {
	name, err := template.TermName(t.Field(0))
	if err != nil {
		return nil, m.fail("%v", err)
	}
	argTerms, err := template.TermList(t.Field(1))
	if err != nil {
		return nil, m.fail("%v", err)
	}
	site, err := template.TermInt(t.Field(2))
	if err != nil {
		return nil, m.fail("%v", err)
	}

	m.push(name, site)
	fn, ok := m.builtins[name]
	if !ok {
		return nil, m.fail("unknown builtin %s", name)
	}

	args := make([]plutus.Data, argTerms.Len())
	for i := range args {
		if args[i], err = m.eval(argTerms.At(i), scope); err != nil {
			return nil, err
		}
	}

	v, err := fn(args)
	if err != nil {
		return nil, m.fail("%s: %v", name, err)
	}
	m.pop()
	return v, nil
}

func (m *machine) each(t plutus.Constr, scope *env) (plutus.Data, error) {
	quant, err := template.TermInt(t.Field(0))
	if err != nil {
		return nil, m.fail("%v", err)
	}
	name, err := template.TermName(t.Field(1))
	if err != nil {
		return nil, m.fail("%v", err)
	}
	site, err := template.TermInt(t.Field(4))
	if err != nil {
		return nil, m.fail("%v", err)
	}

	op := "all?"
	if quant == template.QuantAny {
		op = "any?"
	}
	m.push(op, site)

	listValue, err := m.eval(t.Field(2), scope)
	if err != nil {
		return nil, err
	}
	list, ok := listValue.(plutus.List)
	if !ok {
		return nil, m.fail("%s over %s, expected a list", op, kindName(listValue))
	}

	// any? stops at the first true, all? at the first false
	stopOn := quant == template.QuantAny
	for i := 0; i < list.Len(); i++ {
		v, err := m.eval(t.Field(3), scope.bind(name, list.At(i)))
		if err != nil {
			return nil, err
		}
		b, ok := plutus.AsBool(v)
		if !ok {
			return nil, m.fail("%s body returned %s, expected a boolean", op, v)
		}
		if b == stopOn {
			m.pop()
			return plutus.Bool(stopOn), nil
		}
	}
	m.pop()
	return plutus.Bool(!stopOn), nil
}
