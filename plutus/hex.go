package plutus

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// BytesFromHex decodes a hex string into a byte string value.
// An optional 0x prefix is accepted, digits may be either case.
func BytesFromHex(s string) (Bytes, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(clean)%2 != 0 {
		return Bytes{}, fmt.Errorf("%w: odd length hex string %q", ErrMalformedInput, s)
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return Bytes{}, fmt.Errorf("%w: %q: %v", ErrMalformedInput, s, err)
	}
	return Bytes{b: b}, nil
}

// MustBytesFromHex is BytesFromHex for literals known to be valid
func MustBytesFromHex(s string) Bytes {
	b, err := BytesFromHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Hex returns the lowercase hex encoding of the bytes
func (b Bytes) Hex() string {
	return hex.EncodeToString(b.b)
}
