package template

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/wbrown/janus-plutus/plutus"
)

// Purposes a template may declare. An empty purpose marks a plain function
// program whose result is returned as-is.
const (
	PurposeSpending   = "spending"
	PurposeMinting    = "minting"
	PurposeRewarding  = "rewarding"
	PurposeCertifying = "certifying"
)

var validPurposes = map[string]bool{
	PurposeSpending:   true,
	PurposeMinting:    true,
	PurposeRewarding:  true,
	PurposeCertifying: true,
}

// Site is the source location of a builtin call, quantifier or error form
type Site struct {
	Function string
	Pos      Pos
}

func (s Site) String() string {
	return fmt.Sprintf("%s at %s", s.Function, s.Pos)
}

// Template is compiled template source with its parameters still open
type Template struct {
	Module      string
	Description string
	Purpose     string
	Params      []Param
	Args        []string
	Body        plutus.Data
	Sites       []Site
	SourceHash  [32]byte
}

// QualifiedName returns module::name
func (t *Template) QualifiedName(param string) string {
	return t.Module + "::" + param
}

// Param resolves a parameter by bare or qualified name
func (t *Template) Param(name string) (Param, bool) {
	if prefix := t.Module + "::"; strings.HasPrefix(name, prefix) {
		name = name[len(prefix):]
	}
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Program returns the program for body, which is normally the template body
// after hole substitution
func (t *Template) Program(body plutus.Data) *Program {
	return &Program{
		Version: ProgramVersion,
		Purpose: t.Purpose,
		Args:    append([]string(nil), t.Args...),
		Body:    body,
		Sites:   append([]Site(nil), t.Sites...),
	}
}

// Compile compiles template source against the default builtin registry
func Compile(src string) (*Template, error) {
	return CompileWith(src, DefaultRegistry)
}

// CompileWith compiles template source, validating calls against registry
func CompileWith(src string, registry *Registry) (*Template, error) {
	doc, err := Read(src)
	if err != nil {
		return nil, err
	}
	if doc.Kind != FormMap {
		return nil, compileErrorf(doc.Pos, "template must be a map, got %s", doc.Kind)
	}

	t := &Template{SourceHash: sha256.Sum256([]byte(src))}
	var body *Form
	seen := make(map[string]bool)

	for i := 0; i < len(doc.Items); i += 2 {
		key, value := doc.Items[i], doc.Items[i+1]
		if key.Kind != FormKeyword {
			return nil, compileErrorf(key.Pos, "template key must be a keyword, got %s", key.Kind)
		}
		if seen[key.Text] {
			return nil, compileErrorf(key.Pos, "duplicate template key %s", key.Text)
		}
		seen[key.Text] = true

		switch key.Text {
		case ":module":
			if value.Kind != FormSymbol {
				return nil, compileErrorf(value.Pos, ":module must be a symbol")
			}
			t.Module = value.Text
		case ":description":
			if value.Kind != FormString {
				return nil, compileErrorf(value.Pos, ":description must be a string")
			}
			t.Description = value.Text
		case ":purpose":
			if value.Kind != FormKeyword || !validPurposes[value.Text[1:]] {
				return nil, compileErrorf(value.Pos, "unknown purpose %s", value)
			}
			t.Purpose = value.Text[1:]
		case ":params":
			if t.Params, err = parseParams(value); err != nil {
				return nil, err
			}
		case ":args":
			if t.Args, err = parseArgs(value); err != nil {
				return nil, err
			}
		case ":body":
			v := value
			body = &v
		default:
			return nil, compileErrorf(key.Pos, "unknown template key %s", key.Text)
		}
	}

	if t.Module == "" {
		return nil, compileErrorf(doc.Pos, "template has no :module")
	}
	if body == nil {
		return nil, compileErrorf(doc.Pos, "template has no :body")
	}

	c := &compiler{registry: registry, params: make(map[string]Param)}
	for _, p := range t.Params {
		c.params[p.Name] = p
	}
	for _, a := range t.Args {
		if _, clash := c.params[a]; clash {
			return nil, compileErrorf(doc.Pos, "argument %s shadows a parameter", a)
		}
	}

	if t.Body, err = c.expr(*body, t.Args); err != nil {
		return nil, err
	}
	t.Sites = c.sites
	return t, nil
}

func parseParams(f Form) ([]Param, error) {
	if f.Kind != FormVector {
		return nil, compileErrorf(f.Pos, ":params must be a vector")
	}
	params := make([]Param, 0, len(f.Items))
	seen := make(map[string]bool)
	for _, item := range f.Items {
		if item.Kind != FormVector || len(item.Items) != 2 ||
			item.Items[0].Kind != FormSymbol || item.Items[1].Kind != FormKeyword {
			return nil, compileErrorf(item.Pos, "parameter must be [NAME :type], got %s", item)
		}
		name := item.Items[0].Text
		if strings.Contains(name, "::") {
			return nil, compileErrorf(item.Pos, "parameter name %s cannot be qualified", name)
		}
		if seen[name] {
			return nil, compileErrorf(item.Pos, "duplicate parameter %s", name)
		}
		seen[name] = true
		typ, ok := ParseParamType(item.Items[1].Text)
		if !ok {
			return nil, compileErrorf(item.Items[1].Pos, "unknown parameter type %s", item.Items[1].Text)
		}
		params = append(params, Param{Name: name, Type: typ, Pos: item.Pos})
	}
	return params, nil
}

func parseArgs(f Form) ([]string, error) {
	if f.Kind != FormVector {
		return nil, compileErrorf(f.Pos, ":args must be a vector")
	}
	args := make([]string, 0, len(f.Items))
	seen := make(map[string]bool)
	for _, item := range f.Items {
		if item.Kind != FormSymbol {
			return nil, compileErrorf(item.Pos, "argument must be a symbol, got %s", item.Kind)
		}
		if seen[item.Text] {
			return nil, compileErrorf(item.Pos, "duplicate argument %s", item.Text)
		}
		seen[item.Text] = true
		args = append(args, item.Text)
	}
	return args, nil
}

// compiler turns forms into terms
type compiler struct {
	registry *Registry
	params   map[string]Param
	sites    []Site
}

func (c *compiler) site(function string, pos Pos) int64 {
	c.sites = append(c.sites, Site{Function: function, Pos: pos})
	return int64(len(c.sites) - 1)
}

// expr compiles f with env holding the local names in scope, innermost last
func (c *compiler) expr(f Form, env []string) (plutus.Data, error) {
	switch f.Kind {
	case FormBool:
		return Const(plutus.Bool(f.Bool)), nil
	case FormInt:
		return Const(plutus.NewBigInt(f.Int)), nil
	case FormString:
		return Const(plutus.BytesFromString(f.Text)), nil
	case FormTagged:
		return c.tagged(f)
	case FormKeyword:
		return nil, compileErrorf(f.Pos, "keyword %s is not an expression", f.Text)
	case FormSymbol:
		return c.symbol(f, env)
	case FormVector:
		return c.call("list", f.Items, f.Pos, env)
	case FormMap:
		return c.call("map", f.Items, f.Pos, env)
	case FormList:
		return c.list(f, env)
	}
	return nil, compileErrorf(f.Pos, "unsupported form %s", f.Kind)
}

func (c *compiler) tagged(f Form) (plutus.Data, error) {
	inner := f.Items[0]
	switch f.Text {
	case "hex":
		if inner.Kind != FormString {
			return nil, compileErrorf(inner.Pos, "#hex needs a string")
		}
		b, err := plutus.BytesFromHex(inner.Text)
		if err != nil {
			return nil, compileErrorf(inner.Pos, "%v", err)
		}
		return Const(b), nil
	}
	return nil, compileErrorf(f.Pos, "unknown tag #%s", f.Text)
}

func (c *compiler) symbol(f Form, env []string) (plutus.Data, error) {
	for i := len(env) - 1; i >= 0; i-- {
		if env[i] == f.Text {
			return Var(f.Text), nil
		}
	}
	if _, ok := c.params[f.Text]; ok {
		return Hole(f.Text), nil
	}
	return nil, compileErrorf(f.Pos, "unresolved symbol %s", f.Text)
}

func (c *compiler) list(f Form, env []string) (plutus.Data, error) {
	if len(f.Items) == 0 {
		return nil, compileErrorf(f.Pos, "empty call")
	}
	head := f.Items[0]
	if head.Kind != FormSymbol {
		return nil, compileErrorf(head.Pos, "call head must be a symbol, got %s", head.Kind)
	}
	args := f.Items[1:]

	switch head.Text {
	case "and":
		return c.and(args, env)
	case "or":
		return c.or(args, env)
	case "if":
		return c.ifForm(f, args, env)
	case "let":
		return c.let(f, args, env)
	case "any?":
		return c.each(QuantAny, f, args, env)
	case "all?":
		return c.each(QuantAll, f, args, env)
	case "trace":
		return c.trace(f, args, env)
	case "error":
		if len(args) != 1 || args[0].Kind != FormString {
			return nil, compileErrorf(f.Pos, "error needs a message string")
		}
		return Fail(args[0].Text, c.site("error", f.Pos)), nil
	}

	return c.call(head.Text, args, head.Pos, env)
}

func (c *compiler) call(fn string, argForms []Form, pos Pos, env []string) (plutus.Data, error) {
	if err := c.registry.Validate(fn, len(argForms)); err != nil {
		return nil, compileErrorf(pos, "%v", err)
	}
	args := make([]plutus.Data, len(argForms))
	for i, a := range argForms {
		t, err := c.expr(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	return Apply(fn, args, c.site(fn, pos)), nil
}

// and compiles to a chain of conditionals that stops at the first false
func (c *compiler) and(args []Form, env []string) (plutus.Data, error) {
	if len(args) == 0 {
		return Const(plutus.Bool(true)), nil
	}
	first, err := c.expr(args[0], env)
	if err != nil || len(args) == 1 {
		return first, err
	}
	rest, err := c.and(args[1:], env)
	if err != nil {
		return nil, err
	}
	return If(first, rest, Const(plutus.Bool(false))), nil
}

// or compiles to a chain of conditionals that stops at the first true
func (c *compiler) or(args []Form, env []string) (plutus.Data, error) {
	if len(args) == 0 {
		return Const(plutus.Bool(false)), nil
	}
	first, err := c.expr(args[0], env)
	if err != nil || len(args) == 1 {
		return first, err
	}
	rest, err := c.or(args[1:], env)
	if err != nil {
		return nil, err
	}
	return If(first, Const(plutus.Bool(true)), rest), nil
}

func (c *compiler) ifForm(f Form, args []Form, env []string) (plutus.Data, error) {
	if len(args) != 3 {
		return nil, compileErrorf(f.Pos, "if needs a condition and two branches, got %d forms", len(args))
	}
	terms := make([]plutus.Data, 3)
	for i, a := range args {
		t, err := c.expr(a, env)
		if err != nil {
			return nil, err
		}
		terms[i] = t
	}
	return If(terms[0], terms[1], terms[2]), nil
}

func (c *compiler) let(f Form, args []Form, env []string) (plutus.Data, error) {
	if len(args) != 2 || args[0].Kind != FormVector || len(args[0].Items)%2 != 0 {
		return nil, compileErrorf(f.Pos, "let needs a binding vector of name/value pairs and a body")
	}
	bindings := args[0].Items

	type binding struct {
		name  string
		value plutus.Data
	}
	compiled := make([]binding, 0, len(bindings)/2)
	scope := append([]string(nil), env...)
	for i := 0; i < len(bindings); i += 2 {
		nameForm := bindings[i]
		if nameForm.Kind != FormSymbol {
			return nil, compileErrorf(nameForm.Pos, "let binding name must be a symbol, got %s", nameForm.Kind)
		}
		value, err := c.expr(bindings[i+1], scope)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, binding{name: nameForm.Text, value: value})
		scope = append(scope, nameForm.Text)
	}

	body, err := c.expr(args[1], scope)
	if err != nil {
		return nil, err
	}
	for i := len(compiled) - 1; i >= 0; i-- {
		body = Let(compiled[i].name, compiled[i].value, body)
	}
	return body, nil
}

func (c *compiler) each(quant int64, f Form, args []Form, env []string) (plutus.Data, error) {
	op := f.Items[0].Text
	if len(args) != 2 || args[0].Kind != FormVector || len(args[0].Items) != 2 || args[0].Items[0].Kind != FormSymbol {
		return nil, compileErrorf(f.Pos, "%s needs [name list] and a body", op)
	}
	n := args[0].Items[0].Text
	list, err := c.expr(args[0].Items[1], env)
	if err != nil {
		return nil, err
	}
	site := c.site(op, f.Pos)
	body, err := c.expr(args[1], append(append([]string(nil), env...), n))
	if err != nil {
		return nil, err
	}
	return Each(quant, n, list, body, site), nil
}

func (c *compiler) trace(f Form, args []Form, env []string) (plutus.Data, error) {
	if len(args) != 2 || args[0].Kind != FormString {
		return nil, compileErrorf(f.Pos, "trace needs a message string and an expression")
	}
	expr, err := c.expr(args[1], env)
	if err != nil {
		return nil, err
	}
	return Trace(args[0].Text, expr), nil
}
