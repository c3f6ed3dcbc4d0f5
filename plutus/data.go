// Package plutus defines the Plutus data model: the recursive tagged value
// used to describe on-chain state, script parameters and script arguments.
package plutus

import (
	"math/big"
)

// Data is any Plutus data value.
// The set of implementations is closed: Int, Bytes, List, Map and Constr.
// Values are immutable once constructed and may be shared freely.
type Data interface {
	Kind() Kind
	String() string
	isData()
}

// Kind identifies the variant of a Data value
type Kind byte

const (
	KindInt Kind = iota
	KindBytes
	KindList
	KindMap
	KindConstr
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindConstr:
		return "constr"
	default:
		return "unknown"
	}
}

// Int is an arbitrary-precision signed integer
type Int struct {
	v *big.Int
}

// NewInt creates an integer value
func NewInt(n int64) Int {
	return Int{v: big.NewInt(n)}
}

// NewBigInt creates an integer value from a big.Int. The argument is copied;
// a nil pointer yields zero.
func NewBigInt(n *big.Int) Int {
	if n == nil {
		return Int{v: new(big.Int)}
	}
	return Int{v: new(big.Int).Set(n)}
}

func (Int) Kind() Kind { return KindInt }
func (Int) isData()    {}

// Big returns a copy of the integer
func (i Int) Big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

// Int64 returns the integer if it fits in an int64
func (i Int) Int64() (int64, bool) {
	if i.v == nil {
		return 0, true
	}
	if !i.v.IsInt64() {
		return 0, false
	}
	return i.v.Int64(), true
}

// Sign returns -1, 0 or +1
func (i Int) Sign() int {
	if i.v == nil {
		return 0
	}
	return i.v.Sign()
}

// Cmp compares two integers
func (i Int) Cmp(other Int) int {
	return i.Big().Cmp(other.Big())
}

// Bytes is an immutable byte string
type Bytes struct {
	b []byte
}

// NewBytes creates a byte string value; the slice is copied
func NewBytes(b []byte) Bytes {
	return Bytes{b: append([]byte(nil), b...)}
}

// BytesFromString creates a byte string from the UTF-8 bytes of s
func BytesFromString(s string) Bytes {
	return Bytes{b: []byte(s)}
}

func (Bytes) Kind() Kind { return KindBytes }
func (Bytes) isData()    {}

// Bytes returns a copy of the underlying bytes
func (b Bytes) Bytes() []byte {
	return append([]byte(nil), b.b...)
}

// Len returns the number of bytes
func (b Bytes) Len() int {
	return len(b.b)
}

// List is an ordered sequence of values; elements may be heterogeneous
type List struct {
	items []Data
}

// NewList creates a list value; the slice is copied
func NewList(items ...Data) List {
	return List{items: append([]Data(nil), items...)}
}

func (List) Kind() Kind { return KindList }
func (List) isData()    {}

// Len returns the number of elements
func (l List) Len() int {
	return len(l.items)
}

// At returns the i-th element
func (l List) At(i int) Data {
	return l.items[i]
}

// Items returns a copy of the elements
func (l List) Items() []Data {
	return append([]Data(nil), l.items...)
}

// Pair is a single map entry
type Pair struct {
	Key   Data
	Value Data
}

// Map is an ordered sequence of key/value pairs.
// Insertion order is preserved and is part of the encoding; keys are not
// de-duplicated.
type Map struct {
	pairs []Pair
}

// NewMap creates a map value; the pairs are copied in order
func NewMap(pairs ...Pair) Map {
	return Map{pairs: append([]Pair(nil), pairs...)}
}

func (Map) Kind() Kind { return KindMap }
func (Map) isData()    {}

// Len returns the number of pairs
func (m Map) Len() int {
	return len(m.pairs)
}

// At returns the i-th pair
func (m Map) At(i int) Pair {
	return m.pairs[i]
}

// Pairs returns a copy of the pairs in construction order
func (m Map) Pairs() []Pair {
	return append([]Pair(nil), m.pairs...)
}

// Lookup returns the value of the first pair whose key equals key
func (m Map) Lookup(key Data) (Data, bool) {
	for _, p := range m.pairs {
		if Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return nil, false
}

// Constr is a sum-type alternative: a non-negative tag plus ordered fields.
// The field schema of a tag is a caller concern.
type Constr struct {
	tag    uint64
	fields []Data
}

// NewConstr creates a constructor value. Negative tags are rejected.
func NewConstr(tag int64, fields ...Data) (Constr, error) {
	if tag < 0 {
		return Constr{}, negativeTag(tag)
	}
	return Constr{tag: uint64(tag), fields: append([]Data(nil), fields...)}, nil
}

// MustConstr is NewConstr for compile-time constant tags
func MustConstr(tag int64, fields ...Data) Constr {
	c, err := NewConstr(tag, fields...)
	if err != nil {
		panic(err)
	}
	return c
}

// ConstrFromUint creates a constructor from an unsigned tag, used by decoders
// that may see tags beyond the int64 range
func ConstrFromUint(tag uint64, fields ...Data) Constr {
	return Constr{tag: tag, fields: append([]Data(nil), fields...)}
}

func (Constr) Kind() Kind { return KindConstr }
func (Constr) isData()    {}

// Tag returns the constructor tag
func (c Constr) Tag() uint64 {
	return c.tag
}

// Len returns the number of fields
func (c Constr) Len() int {
	return len(c.fields)
}

// Field returns the i-th field
func (c Constr) Field(i int) Data {
	return c.fields[i]
}

// Fields returns a copy of the fields
func (c Constr) Fields() []Data {
	return append([]Data(nil), c.fields...)
}

// Unit is the zero-field constructor returned by a successful validator
func Unit() Constr {
	return Constr{tag: 0}
}

// Bool encodes a boolean the way the runtime does: Constr 1 [] is true,
// Constr 0 [] is false
func Bool(b bool) Constr {
	if b {
		return Constr{tag: 1}
	}
	return Constr{tag: 0}
}

// AsBool reports whether d is a boolean constructor and its value
func AsBool(d Data) (value bool, ok bool) {
	c, isConstr := d.(Constr)
	if !isConstr || len(c.fields) != 0 || c.tag > 1 {
		return false, false
	}
	return c.tag == 1, true
}
