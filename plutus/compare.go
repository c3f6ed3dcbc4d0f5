package plutus

import (
	"bytes"
)

// Equal reports whether two values are structurally equal.
// Map equality is positional: the same pairs in a different order are not
// equal, matching the encoding.
func Equal(a, b Data) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case Int:
		y, ok := b.(Int)
		return ok && x.Cmp(y) == 0
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x.b, y.b)
	case List:
		y, ok := b.(List)
		if !ok || len(x.items) != len(y.items) {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case Map:
		y, ok := b.(Map)
		if !ok || len(x.pairs) != len(y.pairs) {
			return false
		}
		for i := range x.pairs {
			if !Equal(x.pairs[i].Key, y.pairs[i].Key) || !Equal(x.pairs[i].Value, y.pairs[i].Value) {
				return false
			}
		}
		return true
	case Constr:
		y, ok := b.(Constr)
		if !ok || x.tag != y.tag || len(x.fields) != len(y.fields) {
			return false
		}
		for i := range x.fields {
			if !Equal(x.fields[i], y.fields[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
