// Package codec implements the canonical CBOR encoding of Plutus data.
//
// The encoding follows the conventions of the on-chain runtime so that the
// bytes produced here hash identically to the ones the ledger computes:
//
//   - integers that fit in 64 bits of magnitude use major types 0/1, larger
//     ones are tag 2/3 bignums
//   - byte strings longer than 64 bytes are split into 64-byte chunks
//   - non-empty lists are indefinite-length, the empty list is 0x80
//   - maps are definite-length with pairs in construction order
//   - constructor tags 0-6 map to CBOR tags 121-127, 7-127 to 1280-1400,
//     everything else to tag 102 over [tag, fields]
package codec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/wbrown/janus-plutus/plutus"
)

// CBOR major types
const (
	majorUint   byte = 0
	majorNegInt byte = 1
	majorBytes  byte = 2
	majorArray  byte = 4
	majorMap    byte = 5
	majorTag    byte = 6
	majorSimple byte = 7
)

const (
	indefiniteBytes byte = 0x5f
	indefiniteArray byte = 0x9f
	breakByte       byte = 0xff

	// bytesChunkSize is the largest byte string written in one piece
	bytesChunkSize = 64

	tagPositiveBignum = 2
	tagNegativeBignum = 3
	tagConstrGeneral  = 102
	tagConstrSmall    = 121  // constructors 0-6
	tagConstrMedium   = 1280 // constructors 7-127
)

// ErrInvalidData is returned for values or bytes that cannot be represented.
// On the encode side it signals a programming error: a nil value that slipped
// past construction.
var ErrInvalidData = errors.New("invalid plutus data")

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// Encode returns the canonical CBOR encoding of d
func Encode(d plutus.Data) ([]byte, error) {
	buf := make([]byte, 0, 64)
	return appendData(buf, d)
}

// MustEncode is Encode for values built from constructors, where failure is
// a programming error
func MustEncode(d plutus.Data) []byte {
	b, err := Encode(d)
	if err != nil {
		panic(err)
	}
	return b
}

// EncodeHex returns the lowercase hex of the canonical encoding
func EncodeHex(d plutus.Data) (string, error) {
	b, err := Encode(d)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func appendData(buf []byte, d plutus.Data) ([]byte, error) {
	switch v := d.(type) {
	case plutus.Int:
		return appendInt(buf, v.Big()), nil
	case plutus.Bytes:
		return appendBytes(buf, v.Bytes()), nil
	case plutus.List:
		return appendList(buf, v.Items())
	case plutus.Map:
		return appendMap(buf, v)
	case plutus.Constr:
		return appendConstr(buf, v)
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrInvalidData)
	default:
		return nil, fmt.Errorf("%w: unknown value type %T", ErrInvalidData, d)
	}
}

// appendHead writes a major type with its argument in the shortest form
func appendHead(buf []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(buf, m|byte(n))
	case n <= 0xff:
		return append(buf, m|24, byte(n))
	case n <= 0xffff:
		return append(buf, m|25, byte(n>>8), byte(n))
	case n <= 0xffffffff:
		return append(buf, m|26, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	default:
		return append(buf, m|27,
			byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
			byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
}

func appendInt(buf []byte, n *big.Int) []byte {
	if n.Sign() >= 0 {
		if n.Cmp(maxUint64) <= 0 {
			return appendHead(buf, majorUint, n.Uint64())
		}
		buf = appendHead(buf, majorTag, tagPositiveBignum)
		return appendBytes(buf, n.Bytes())
	}

	// negative values carry -1-n
	mag := new(big.Int).Neg(n)
	mag.Sub(mag, big.NewInt(1))
	if mag.Cmp(maxUint64) <= 0 {
		return appendHead(buf, majorNegInt, mag.Uint64())
	}
	buf = appendHead(buf, majorTag, tagNegativeBignum)
	return appendBytes(buf, mag.Bytes())
}

func appendBytes(buf []byte, b []byte) []byte {
	if len(b) <= bytesChunkSize {
		buf = appendHead(buf, majorBytes, uint64(len(b)))
		return append(buf, b...)
	}

	buf = append(buf, indefiniteBytes)
	for len(b) > 0 {
		n := bytesChunkSize
		if len(b) < n {
			n = len(b)
		}
		buf = appendHead(buf, majorBytes, uint64(n))
		buf = append(buf, b[:n]...)
		b = b[n:]
	}
	return append(buf, breakByte)
}

func appendList(buf []byte, items []plutus.Data) ([]byte, error) {
	if len(items) == 0 {
		return appendHead(buf, majorArray, 0), nil
	}

	var err error
	buf = append(buf, indefiniteArray)
	for i, item := range items {
		buf, err = appendData(buf, item)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
	}
	return append(buf, breakByte), nil
}

func appendMap(buf []byte, m plutus.Map) ([]byte, error) {
	var err error
	buf = appendHead(buf, majorMap, uint64(m.Len()))
	for i := 0; i < m.Len(); i++ {
		p := m.At(i)
		buf, err = appendData(buf, p.Key)
		if err != nil {
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		buf, err = appendData(buf, p.Value)
		if err != nil {
			return nil, fmt.Errorf("map value %d: %w", i, err)
		}
	}
	return buf, nil
}

func appendConstr(buf []byte, c plutus.Constr) ([]byte, error) {
	tag := c.Tag()
	switch {
	case tag <= 6:
		buf = appendHead(buf, majorTag, tagConstrSmall+tag)
	case tag <= 127:
		buf = appendHead(buf, majorTag, tagConstrMedium+tag-7)
	default:
		buf = appendHead(buf, majorTag, tagConstrGeneral)
		buf = appendHead(buf, majorArray, 2)
		buf = appendHead(buf, majorUint, tag)
	}

	buf, err := appendList(buf, c.Fields())
	if err != nil {
		return nil, fmt.Errorf("constr %d: %w", tag, err)
	}
	return buf, nil
}
