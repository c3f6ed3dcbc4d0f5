package codec

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/wbrown/janus-plutus/plutus"
)

// maxDepth bounds nesting on decode
const maxDepth = 512

// Decode parses a CBOR encoding of Plutus data. Any well-formed encoding is
// accepted, canonical or not: definite or indefinite lists and arrays,
// chunked byte strings and all three constructor tag ranges.
func Decode(data []byte) (plutus.Data, error) {
	d := &decoder{data: data}
	v, err := d.readData(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidData, len(d.data)-d.pos)
	}
	return v, nil
}

// DecodeHex parses the hex form of an encoding
func DecodeHex(s string) (plutus.Data, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plutus.ErrMalformedInput, err)
	}
	return Decode(b)
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w at offset %d: %s", ErrInvalidData, d.pos, fmt.Sprintf(format, args...))
}

func (d *decoder) peek() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, d.errorf("unexpected end of input")
	}
	return d.data[d.pos], nil
}

// readHead reads an initial byte and its argument. indefinite is set for
// additional info 31.
func (d *decoder) readHead() (major byte, arg uint64, indefinite bool, err error) {
	b, err := d.peek()
	if err != nil {
		return 0, 0, false, err
	}
	d.pos++

	major = b >> 5
	info := b & 0x1f
	switch {
	case info < 24:
		return major, uint64(info), false, nil
	case info == 31:
		return major, 0, true, nil
	case info > 27:
		return 0, 0, false, d.errorf("reserved additional info %d", info)
	}

	size := 1 << (info - 24)
	if d.pos+size > len(d.data) {
		return 0, 0, false, d.errorf("truncated argument")
	}
	for i := 0; i < size; i++ {
		arg = arg<<8 | uint64(d.data[d.pos+i])
	}
	d.pos += size
	return major, arg, false, nil
}

func (d *decoder) atBreak() bool {
	return d.pos < len(d.data) && d.data[d.pos] == breakByte
}

func (d *decoder) readData(depth int) (plutus.Data, error) {
	if depth > maxDepth {
		return nil, d.errorf("nesting deeper than %d", maxDepth)
	}

	major, arg, indefinite, err := d.readHead()
	if err != nil {
		return nil, err
	}

	switch major {
	case majorUint:
		if indefinite {
			return nil, d.errorf("indefinite integer")
		}
		return plutus.NewBigInt(new(big.Int).SetUint64(arg)), nil

	case majorNegInt:
		if indefinite {
			return nil, d.errorf("indefinite integer")
		}
		n := new(big.Int).SetUint64(arg)
		n.Add(n, big.NewInt(1))
		return plutus.NewBigInt(n.Neg(n)), nil

	case majorBytes:
		b, err := d.readBytesBody(arg, indefinite)
		if err != nil {
			return nil, err
		}
		return plutus.NewBytes(b), nil

	case majorArray:
		items, err := d.readArrayBody(arg, indefinite, depth)
		if err != nil {
			return nil, err
		}
		return plutus.NewList(items...), nil

	case majorMap:
		return d.readMapBody(arg, indefinite, depth)

	case majorTag:
		if indefinite {
			return nil, d.errorf("indefinite tag")
		}
		return d.readTagged(arg, depth)

	default:
		return nil, d.errorf("unsupported major type %d", major)
	}
}

func (d *decoder) readBytesBody(n uint64, indefinite bool) ([]byte, error) {
	if !indefinite {
		if n > uint64(len(d.data)-d.pos) {
			return nil, d.errorf("truncated byte string")
		}
		b := d.data[d.pos : d.pos+int(n)]
		d.pos += int(n)
		return append([]byte(nil), b...), nil
	}

	var out []byte
	for !d.atBreak() {
		major, size, chunkIndef, err := d.readHead()
		if err != nil {
			return nil, err
		}
		if major != majorBytes || chunkIndef {
			return nil, d.errorf("invalid byte string chunk")
		}
		chunk, err := d.readBytesBody(size, false)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	if _, err := d.peek(); err != nil {
		return nil, err
	}
	d.pos++ // break
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func (d *decoder) readArrayBody(n uint64, indefinite bool, depth int) ([]plutus.Data, error) {
	var items []plutus.Data
	if !indefinite {
		// each element needs at least one byte
		if n > uint64(len(d.data)-d.pos) {
			return nil, d.errorf("array length %d exceeds input", n)
		}
		items = make([]plutus.Data, 0, n)
		for i := uint64(0); i < n; i++ {
			item, err := d.readData(depth + 1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}

	for {
		if _, err := d.peek(); err != nil {
			return nil, err
		}
		if d.atBreak() {
			d.pos++
			return items, nil
		}
		item, err := d.readData(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (d *decoder) readMapBody(n uint64, indefinite bool, depth int) (plutus.Data, error) {
	var pairs []plutus.Pair
	readPair := func() error {
		k, err := d.readData(depth + 1)
		if err != nil {
			return err
		}
		v, err := d.readData(depth + 1)
		if err != nil {
			return err
		}
		pairs = append(pairs, plutus.Pair{Key: k, Value: v})
		return nil
	}

	if !indefinite {
		if n > uint64(len(d.data)-d.pos) {
			return nil, d.errorf("map length %d exceeds input", n)
		}
		for i := uint64(0); i < n; i++ {
			if err := readPair(); err != nil {
				return nil, err
			}
		}
		return plutus.NewMap(pairs...), nil
	}

	for {
		if _, err := d.peek(); err != nil {
			return nil, err
		}
		if d.atBreak() {
			d.pos++
			return plutus.NewMap(pairs...), nil
		}
		if err := readPair(); err != nil {
			return nil, err
		}
	}
}

func (d *decoder) readTagged(tag uint64, depth int) (plutus.Data, error) {
	switch {
	case tag == tagPositiveBignum || tag == tagNegativeBignum:
		major, n, indefinite, err := d.readHead()
		if err != nil {
			return nil, err
		}
		if major != majorBytes {
			return nil, d.errorf("bignum content must be a byte string")
		}
		b, err := d.readBytesBody(n, indefinite)
		if err != nil {
			return nil, err
		}
		v := new(big.Int).SetBytes(b)
		if tag == tagNegativeBignum {
			v.Add(v, big.NewInt(1))
			v.Neg(v)
		}
		return plutus.NewBigInt(v), nil

	case tag >= tagConstrSmall && tag <= tagConstrSmall+6:
		fields, err := d.readFields(depth)
		if err != nil {
			return nil, err
		}
		return plutus.ConstrFromUint(tag-tagConstrSmall, fields...), nil

	case tag >= tagConstrMedium && tag <= tagConstrMedium+120:
		fields, err := d.readFields(depth)
		if err != nil {
			return nil, err
		}
		return plutus.ConstrFromUint(tag-tagConstrMedium+7, fields...), nil

	case tag == tagConstrGeneral:
		major, n, indefinite, err := d.readHead()
		if err != nil {
			return nil, err
		}
		if major != majorArray || indefinite || n != 2 {
			return nil, d.errorf("tag 102 content must be a 2-element array")
		}
		major, alt, indefinite, err := d.readHead()
		if err != nil {
			return nil, err
		}
		if major != majorUint || indefinite {
			return nil, d.errorf("tag 102 constructor index must be an unsigned integer")
		}
		fields, err := d.readFields(depth)
		if err != nil {
			return nil, err
		}
		return plutus.ConstrFromUint(alt, fields...), nil

	default:
		return nil, d.errorf("unsupported tag %d", tag)
	}
}

func (d *decoder) readFields(depth int) ([]plutus.Data, error) {
	major, n, indefinite, err := d.readHead()
	if err != nil {
		return nil, err
	}
	if major != majorArray {
		return nil, d.errorf("constructor fields must be an array")
	}
	return d.readArrayBody(n, indefinite, depth)
}
