// Package script binds template parameters and emits deployable script
// artifacts.
//
// A Handle is immutable. Bind returns a new handle and leaves the receiver
// untouched, so handles derived from a common ancestor can be bound, finalized
// and emitted from different goroutines without coordination.
package script

import (
	"fmt"

	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/template"
)

// Handle is a compiled template together with the parameters bound so far
type Handle struct {
	tmpl  *template.Template
	bound map[string]plutus.Data // never mutated after construction
}

// LoadTemplate compiles template source into a handle with every parameter open
func LoadTemplate(src string) (*Handle, error) {
	tmpl, err := template.Compile(src)
	if err != nil {
		return nil, err
	}
	return NewHandle(tmpl), nil
}

// NewHandle wraps an already compiled template
func NewHandle(tmpl *template.Template) *Handle {
	return &Handle{tmpl: tmpl, bound: map[string]plutus.Data{}}
}

// Template returns the underlying template
func (h *Handle) Template() *template.Template {
	return h.tmpl
}

// Bind returns a new handle with name bound to value. The name may be bare
// (NFT_NAME) or qualified with the template module (minting_policy::NFT_NAME).
func (h *Handle) Bind(name string, value plutus.Data) (*Handle, error) {
	param, ok := h.tmpl.Param(name)
	if !ok {
		return nil, &BindError{Kind: ErrUnknownParameter, Param: name,
			Msg: fmt.Sprintf("template %s declares no such parameter", h.tmpl.Module)}
	}
	if _, done := h.bound[param.Name]; done {
		return nil, &BindError{Kind: ErrAlreadyBound, Param: h.tmpl.QualifiedName(param.Name)}
	}
	if err := param.Type.Check(value); err != nil {
		return nil, &BindError{Kind: ErrTypeMismatch, Param: h.tmpl.QualifiedName(param.Name), Msg: err.Error()}
	}

	bound := make(map[string]plutus.Data, len(h.bound)+1)
	for k, v := range h.bound {
		bound[k] = v
	}
	bound[param.Name] = value
	return &Handle{tmpl: h.tmpl, bound: bound}, nil
}

// Bound returns the value bound to a parameter, if any
func (h *Handle) Bound(name string) (plutus.Data, bool) {
	param, ok := h.tmpl.Param(name)
	if !ok {
		return nil, false
	}
	v, ok := h.bound[param.Name]
	return v, ok
}

// Unbound lists the parameters still open, in declaration order
func (h *Handle) Unbound() []string {
	var open []string
	for _, p := range h.tmpl.Params {
		if _, ok := h.bound[p.Name]; !ok {
			open = append(open, p.Name)
		}
	}
	return open
}

// Complete reports whether every declared parameter is bound
func (h *Handle) Complete() bool {
	return len(h.Unbound()) == 0
}

// Finalize substitutes every bound parameter into the template body. It
// fails with *MissingParameterError when any declared parameter is open.
func Finalize(h *Handle) (*template.Program, error) {
	if open := h.Unbound(); len(open) > 0 {
		names := make([]string, len(open))
		for i, n := range open {
			names[i] = h.tmpl.QualifiedName(n)
		}
		return nil, &MissingParameterError{Names: names}
	}

	body, missing, err := template.ReplaceHoles(h.tmpl.Body, func(name string) (plutus.Data, bool) {
		v, ok := h.bound[name]
		return v, ok
	})
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &MissingParameterError{Names: missing}
	}
	return h.tmpl.Program(body), nil
}
