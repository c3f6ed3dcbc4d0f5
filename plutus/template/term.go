package template

import (
	"github.com/wbrown/janus-plutus/plutus"
)

// Term tags. A compiled program body is a tree of constructors using these
// tags, so it encodes with the same canonical codec as any other data.
//
//	Const [value]
//	Var   [name]
//	Hole  [name]
//	Apply [function, args, site]
//	If    [cond, then, else]
//	Let   [name, value, body]
//	Each  [quantifier, name, list, body, site]
//	Trace [message, expr]
//	Error [message, site]
const (
	TermConst uint64 = iota
	TermVar
	TermHole
	TermApply
	TermIf
	TermLet
	TermEach
	TermTrace
	TermError
)

// Quantifiers of an Each term
const (
	QuantAny int64 = 0
	QuantAll int64 = 1
)

// NoSite marks a term without a recorded source position
const NoSite int64 = -1

func name(s string) plutus.Bytes {
	return plutus.BytesFromString(s)
}

// Const wraps a literal value
func Const(v plutus.Data) plutus.Constr {
	return plutus.MustConstr(int64(TermConst), v)
}

// Var references an argument or a local binding
func Var(n string) plutus.Constr {
	return plutus.MustConstr(int64(TermVar), name(n))
}

// Hole references an unbound template parameter
func Hole(n string) plutus.Constr {
	return plutus.MustConstr(int64(TermHole), name(n))
}

// Apply calls a builtin
func Apply(fn string, args []plutus.Data, site int64) plutus.Constr {
	return plutus.MustConstr(int64(TermApply), name(fn), plutus.NewList(args...), plutus.NewInt(site))
}

// If is a conditional
func If(cond, then, otherwise plutus.Data) plutus.Constr {
	return plutus.MustConstr(int64(TermIf), cond, then, otherwise)
}

// Let binds a value for the body
func Let(n string, value, body plutus.Data) plutus.Constr {
	return plutus.MustConstr(int64(TermLet), name(n), value, body)
}

// Each quantifies body over the elements of list
func Each(quant int64, n string, list, body plutus.Data, site int64) plutus.Constr {
	return plutus.MustConstr(int64(TermEach), plutus.NewInt(quant), name(n), list, body, plutus.NewInt(site))
}

// Trace logs message with the value of expr, then yields expr
func Trace(message string, expr plutus.Data) plutus.Constr {
	return plutus.MustConstr(int64(TermTrace), name(message), expr)
}

// Fail aborts evaluation with message
func Fail(message string, site int64) plutus.Constr {
	return plutus.MustConstr(int64(TermError), name(message), plutus.NewInt(site))
}

// termArity is the field count of every term tag
var termArity = map[uint64]int{
	TermConst: 1,
	TermVar:   1,
	TermHole:  1,
	TermApply: 3,
	TermIf:    3,
	TermLet:   3,
	TermEach:  5,
	TermTrace: 2,
	TermError: 2,
}

// CheckTerm validates the shape of a term node (not its children)
func CheckTerm(t plutus.Data) (plutus.Constr, error) {
	c, ok := t.(plutus.Constr)
	if !ok {
		return plutus.Constr{}, invalidProgramf("term must be a constructor, got %s", kindOf(t))
	}
	arity, ok := termArity[c.Tag()]
	if !ok {
		return plutus.Constr{}, invalidProgramf("unknown term tag %d", c.Tag())
	}
	if c.Len() != arity {
		return plutus.Constr{}, invalidProgramf("term %d needs %d fields, has %d", c.Tag(), arity, c.Len())
	}
	return c, nil
}

// TermName reads a name field of a term
func TermName(d plutus.Data) (string, error) {
	b, ok := d.(plutus.Bytes)
	if !ok {
		return "", invalidProgramf("term name must be bytes, got %s", kindOf(d))
	}
	return string(b.Bytes()), nil
}

// TermInt reads an integer field of a term
func TermInt(d plutus.Data) (int64, error) {
	i, ok := d.(plutus.Int)
	if !ok {
		return 0, invalidProgramf("term field must be an int, got %s", kindOf(d))
	}
	n, ok := i.Int64()
	if !ok {
		return 0, invalidProgramf("term field %s out of range", i)
	}
	return n, nil
}

// TermList reads a list field of a term
func TermList(d plutus.Data) (plutus.List, error) {
	l, ok := d.(plutus.List)
	if !ok {
		return plutus.List{}, invalidProgramf("term field must be a list, got %s", kindOf(d))
	}
	return l, nil
}

func kindOf(d plutus.Data) string {
	if d == nil {
		return "nil"
	}
	return d.Kind().String()
}

// ReplaceHoles returns a copy of term with every Hole whose name lookup
// resolves replaced by a Const of the resolved value. The names of holes left
// unresolved are returned in first-seen order.
func ReplaceHoles(term plutus.Data, lookup func(name string) (plutus.Data, bool)) (plutus.Data, []string, error) {
	var missing []string
	seen := make(map[string]bool)

	var walk func(t plutus.Data) (plutus.Data, error)
	walk = func(t plutus.Data) (plutus.Data, error) {
		c, err := CheckTerm(t)
		if err != nil {
			return nil, err
		}

		switch c.Tag() {
		case TermConst, TermVar, TermError:
			return c, nil

		case TermHole:
			n, err := TermName(c.Field(0))
			if err != nil {
				return nil, err
			}
			if v, ok := lookup(n); ok {
				return Const(v), nil
			}
			if !seen[n] {
				seen[n] = true
				missing = append(missing, n)
			}
			return c, nil

		case TermApply:
			args, err := TermList(c.Field(1))
			if err != nil {
				return nil, err
			}
			replaced := make([]plutus.Data, args.Len())
			for i := 0; i < args.Len(); i++ {
				if replaced[i], err = walk(args.At(i)); err != nil {
					return nil, err
				}
			}
			return plutus.MustConstr(int64(TermApply), c.Field(0), plutus.NewList(replaced...), c.Field(2)), nil

		case TermIf:
			return rebuild(c, walk, 0, 1, 2)
		case TermLet:
			return rebuild(c, walk, 1, 2)
		case TermEach:
			return rebuild(c, walk, 2, 3)
		case TermTrace:
			return rebuild(c, walk, 1)
		}
		return nil, invalidProgramf("unknown term tag %d", c.Tag())
	}

	out, err := walk(term)
	if err != nil {
		return nil, nil, err
	}
	return out, missing, nil
}

// rebuild applies walk to the listed child positions of c
func rebuild(c plutus.Constr, walk func(plutus.Data) (plutus.Data, error), children ...int) (plutus.Data, error) {
	fields := c.Fields()
	for _, i := range children {
		child, err := walk(fields[i])
		if err != nil {
			return nil, err
		}
		fields[i] = child
	}
	return plutus.MustConstr(int64(c.Tag()), fields...), nil
}

// Holes lists the hole names referenced by term in first-seen order
func Holes(term plutus.Data) ([]string, error) {
	_, missing, err := ReplaceHoles(term, func(string) (plutus.Data, bool) { return nil, false })
	return missing, err
}
