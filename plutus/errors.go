package plutus

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is returned when text cannot be decoded into bytes
	ErrMalformedInput = errors.New("malformed input")

	// ErrNegativeTag is returned when a constructor tag is negative
	ErrNegativeTag = errors.New("negative constructor tag")
)

func negativeTag(tag int64) error {
	return fmt.Errorf("%w: %d", ErrNegativeTag, tag)
}
