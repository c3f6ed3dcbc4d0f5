package plutus

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstrRejectsNegativeTag(t *testing.T) {
	_, err := NewConstr(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNegativeTag))

	c, err := NewConstr(7, NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), c.Tag())
	assert.Equal(t, 1, c.Len())
}

func TestBytesFromHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "lowercase", input: "54657374", want: "54657374"},
		{name: "uppercase", input: "54657374546F6B656E", want: "54657374546f6b656e"},
		{name: "0x prefix", input: "0xdeadbeef", want: "deadbeef"},
		{name: "empty", input: "", want: ""},
		{name: "odd length", input: "abc", wantErr: true},
		{name: "non hex", input: "WrongNFT", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := BytesFromHex(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Hex())
		})
	}
}

func TestValuesAreImmutable(t *testing.T) {
	raw := []byte{1, 2, 3}
	b := NewBytes(raw)
	raw[0] = 9
	assert.Equal(t, "010203", b.Hex())

	out := b.Bytes()
	out[1] = 9
	assert.Equal(t, "010203", b.Hex())

	n := big.NewInt(5)
	i := NewBigInt(n)
	n.SetInt64(6)
	assert.Equal(t, "5", i.String())

	items := []Data{NewInt(1), NewInt(2)}
	l := NewList(items...)
	items[0] = NewInt(3)
	assert.True(t, Equal(l.At(0), NewInt(1)))

	got := l.Items()
	got[1] = NewInt(4)
	assert.True(t, Equal(l.At(1), NewInt(2)))
}

func TestEqual(t *testing.T) {
	a := NewMap(Pair{Key: BytesFromString("a"), Value: NewInt(1)}, Pair{Key: BytesFromString("b"), Value: NewInt(2)})
	b := NewMap(Pair{Key: BytesFromString("b"), Value: NewInt(2)}, Pair{Key: BytesFromString("a"), Value: NewInt(1)})
	c := NewMap(Pair{Key: BytesFromString("a"), Value: NewInt(1)}, Pair{Key: BytesFromString("b"), Value: NewInt(2)})

	assert.False(t, Equal(a, b), "map equality is positional")
	assert.True(t, Equal(a, c))

	assert.True(t, Equal(NewBigInt(big.NewInt(10)), NewInt(10)))
	assert.False(t, Equal(NewInt(1), BytesFromString("1")))
	assert.False(t, Equal(MustConstr(0), MustConstr(1)))
	assert.True(t, Equal(MustConstr(2, NewList()), MustConstr(2, NewList())))
	assert.False(t, Equal(NewList(NewInt(1)), NewList(NewInt(1), NewInt(2))))
	assert.False(t, Equal(nil, NewInt(0)))
}

func TestMapLookupReturnsFirstMatch(t *testing.T) {
	m := NewMap(
		Pair{Key: NewInt(1), Value: BytesFromString("first")},
		Pair{Key: NewInt(1), Value: BytesFromString("second")},
	)
	v, ok := m.Lookup(NewInt(1))
	require.True(t, ok)
	assert.True(t, Equal(v, BytesFromString("first")))

	_, ok = m.Lookup(NewInt(2))
	assert.False(t, ok)
}

func TestBoolAndUnit(t *testing.T) {
	v, ok := AsBool(Bool(true))
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = AsBool(Bool(false))
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = AsBool(MustConstr(1, NewInt(0)))
	assert.False(t, ok)

	_, ok = AsBool(NewInt(1))
	assert.False(t, ok)

	assert.True(t, Equal(Unit(), MustConstr(0)))
}

func TestString(t *testing.T) {
	d := MustConstr(0,
		NewList(NewInt(1), NewInt(-2)),
		NewMap(Pair{Key: MustBytesFromHex("aa"), Value: NewInt(1)}),
	)
	assert.Equal(t, "Constr 0 [[1, -2], {#aa: 1}]", d.String())
	assert.Equal(t, "constr", d.Kind().String())
}
