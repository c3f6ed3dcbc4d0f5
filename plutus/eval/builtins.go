package eval

import (
	"fmt"
	"math/big"

	"github.com/wbrown/janus-plutus/plutus"
)

// builtinFunc implements a builtin. Arity is checked again at call time for
// programs decoded from binaries.
type builtinFunc func(args []plutus.Data) (plutus.Data, error)

var builtins = map[string]builtinFunc{
	"=":  arity(2, func(a []plutus.Data) (plutus.Data, error) { return plutus.Bool(plutus.Equal(a[0], a[1])), nil }),
	"!=": arity(2, func(a []plutus.Data) (plutus.Data, error) { return plutus.Bool(!plutus.Equal(a[0], a[1])), nil }),
	"<":  compareInts(func(c int) bool { return c < 0 }),
	"<=": compareInts(func(c int) bool { return c <= 0 }),
	">":  compareInts(func(c int) bool { return c > 0 }),
	">=": compareInts(func(c int) bool { return c >= 0 }),
	"not": arity(1, func(a []plutus.Data) (plutus.Data, error) {
		b, ok := plutus.AsBool(a[0])
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %s", a[0])
		}
		return plutus.Bool(!b), nil
	}),

	"+": fold(func(acc, n *big.Int) { acc.Add(acc, n) }),
	"*": fold(func(acc, n *big.Int) { acc.Mul(acc, n) }),
	"-": minArity(1, func(a []plutus.Data) (plutus.Data, error) {
		first, err := asInt(a[0])
		if err != nil {
			return nil, err
		}
		acc := new(big.Int).Set(first)
		if len(a) == 1 {
			return plutus.NewBigInt(acc.Neg(acc)), nil
		}
		for _, d := range a[1:] {
			n, err := asInt(d)
			if err != nil {
				return nil, err
			}
			acc.Sub(acc, n)
		}
		return plutus.NewBigInt(acc), nil
	}),

	"constr": minArity(1, func(a []plutus.Data) (plutus.Data, error) {
		tag, err := asInt(a[0])
		if err != nil {
			return nil, err
		}
		if !tag.IsUint64() {
			return nil, fmt.Errorf("invalid constructor tag %s", tag)
		}
		return plutus.ConstrFromUint(tag.Uint64(), a[1:]...), nil
	}),
	"tag": arity(1, func(a []plutus.Data) (plutus.Data, error) {
		c, err := asConstr(a[0])
		if err != nil {
			return nil, err
		}
		return plutus.NewBigInt(new(big.Int).SetUint64(c.Tag())), nil
	}),
	"field": arity(2, func(a []plutus.Data) (plutus.Data, error) {
		c, err := asConstr(a[0])
		if err != nil {
			return nil, err
		}
		i, err := asIndex(a[1], c.Len())
		if err != nil {
			return nil, err
		}
		return c.Field(i), nil
	}),
	"fields": arity(1, func(a []plutus.Data) (plutus.Data, error) {
		c, err := asConstr(a[0])
		if err != nil {
			return nil, err
		}
		return plutus.NewList(c.Fields()...), nil
	}),
	"unit": arity(0, func([]plutus.Data) (plutus.Data, error) { return plutus.Unit(), nil }),

	"list": func(a []plutus.Data) (plutus.Data, error) { return plutus.NewList(a...), nil },
	"nth": arity(2, func(a []plutus.Data) (plutus.Data, error) {
		l, ok := a[0].(plutus.List)
		if !ok {
			return nil, fmt.Errorf("expected a list, got %s", kindName(a[0]))
		}
		i, err := asIndex(a[1], l.Len())
		if err != nil {
			return nil, err
		}
		return l.At(i), nil
	}),
	"len": arity(1, func(a []plutus.Data) (plutus.Data, error) {
		n, err := length(a[0])
		if err != nil {
			return nil, err
		}
		return plutus.NewInt(int64(n)), nil
	}),
	"empty?": arity(1, func(a []plutus.Data) (plutus.Data, error) {
		n, err := length(a[0])
		if err != nil {
			return nil, err
		}
		return plutus.Bool(n == 0), nil
	}),

	"map": func(a []plutus.Data) (plutus.Data, error) {
		if len(a)%2 != 0 {
			return nil, fmt.Errorf("map needs key/value pairs, got %d arguments", len(a))
		}
		pairs := make([]plutus.Pair, 0, len(a)/2)
		for i := 0; i < len(a); i += 2 {
			pairs = append(pairs, plutus.Pair{Key: a[i], Value: a[i+1]})
		}
		return plutus.NewMap(pairs...), nil
	},
	"lookup": arity(2, func(a []plutus.Data) (plutus.Data, error) {
		m, err := asMap(a[0])
		if err != nil {
			return nil, err
		}
		v, ok := m.Lookup(a[1])
		if !ok {
			return nil, fmt.Errorf("key %s not found", a[1])
		}
		return v, nil
	}),
	"lookup-or": arity(3, func(a []plutus.Data) (plutus.Data, error) {
		m, err := asMap(a[0])
		if err != nil {
			return nil, err
		}
		if v, ok := m.Lookup(a[1]); ok {
			return v, nil
		}
		return a[2], nil
	}),
	"has-key?": arity(2, func(a []plutus.Data) (plutus.Data, error) {
		m, err := asMap(a[0])
		if err != nil {
			return nil, err
		}
		_, ok := m.Lookup(a[1])
		return plutus.Bool(ok), nil
	}),
	"keys": arity(1, func(a []plutus.Data) (plutus.Data, error) {
		m, err := asMap(a[0])
		if err != nil {
			return nil, err
		}
		keys := make([]plutus.Data, m.Len())
		for i := range keys {
			keys[i] = m.At(i).Key
		}
		return plutus.NewList(keys...), nil
	}),
	"values": arity(1, func(a []plutus.Data) (plutus.Data, error) {
		m, err := asMap(a[0])
		if err != nil {
			return nil, err
		}
		values := make([]plutus.Data, m.Len())
		for i := range values {
			values[i] = m.At(i).Value
		}
		return plutus.NewList(values...), nil
	}),

	// (quantity bundle policy name) reads a nested asset bundle
	"quantity": arity(3, func(a []plutus.Data) (plutus.Data, error) {
		bundle, err := asMap(a[0])
		if err != nil {
			return nil, err
		}
		tokens, ok := bundle.Lookup(a[1])
		if !ok {
			return plutus.NewInt(0), nil
		}
		inner, err := asMap(tokens)
		if err != nil {
			return nil, fmt.Errorf("policy entry: %w", err)
		}
		q, ok := inner.Lookup(a[2])
		if !ok {
			return plutus.NewInt(0), nil
		}
		if _, err := asInt(q); err != nil {
			return nil, fmt.Errorf("quantity: %w", err)
		}
		return q, nil
	}),
}

// Names lists the implemented builtins
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}

func arity(n int, fn builtinFunc) builtinFunc {
	return func(a []plutus.Data) (plutus.Data, error) {
		if len(a) != n {
			return nil, fmt.Errorf("expected %d arguments, got %d", n, len(a))
		}
		return fn(a)
	}
}

func minArity(n int, fn builtinFunc) builtinFunc {
	return func(a []plutus.Data) (plutus.Data, error) {
		if len(a) < n {
			return nil, fmt.Errorf("expected at least %d arguments, got %d", n, len(a))
		}
		return fn(a)
	}
}

func compareInts(accept func(int) bool) builtinFunc {
	return arity(2, func(a []plutus.Data) (plutus.Data, error) {
		x, err := asInt(a[0])
		if err != nil {
			return nil, err
		}
		y, err := asInt(a[1])
		if err != nil {
			return nil, err
		}
		return plutus.Bool(accept(x.Cmp(y))), nil
	})
}

func fold(step func(acc, n *big.Int)) builtinFunc {
	return minArity(1, func(a []plutus.Data) (plutus.Data, error) {
		first, err := asInt(a[0])
		if err != nil {
			return nil, err
		}
		acc := new(big.Int).Set(first)
		for _, d := range a[1:] {
			n, err := asInt(d)
			if err != nil {
				return nil, err
			}
			step(acc, n)
		}
		return plutus.NewBigInt(acc), nil
	})
}

func asInt(d plutus.Data) (*big.Int, error) {
	i, ok := d.(plutus.Int)
	if !ok {
		return nil, fmt.Errorf("expected an int, got %s", kindName(d))
	}
	return i.Big(), nil
}

func asIndex(d plutus.Data, n int) (int, error) {
	i, err := asInt(d)
	if err != nil {
		return 0, err
	}
	if i.Sign() < 0 || !i.IsInt64() || i.Int64() >= int64(n) {
		return 0, fmt.Errorf("index %s out of range [0, %d)", i, n)
	}
	return int(i.Int64()), nil
}

func asConstr(d plutus.Data) (plutus.Constr, error) {
	c, ok := d.(plutus.Constr)
	if !ok {
		return plutus.Constr{}, fmt.Errorf("expected a constructor, got %s", kindName(d))
	}
	return c, nil
}

func asMap(d plutus.Data) (plutus.Map, error) {
	m, ok := d.(plutus.Map)
	if !ok {
		return plutus.Map{}, fmt.Errorf("expected a map, got %s", kindName(d))
	}
	return m, nil
}

func length(d plutus.Data) (int, error) {
	switch v := d.(type) {
	case plutus.List:
		return v.Len(), nil
	case plutus.Map:
		return v.Len(), nil
	case plutus.Bytes:
		return v.Len(), nil
	}
	return 0, fmt.Errorf("expected a list, map or byte string, got %s", kindName(d))
}

func kindName(d plutus.Data) string {
	if d == nil {
		return "nil"
	}
	return d.Kind().String()
}
