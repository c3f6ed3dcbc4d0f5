package template

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/codec"
)

// ProgramVersion is the binary format version written by MarshalBinary
const ProgramVersion uint64 = 1

// Program is an evaluable script: a term tree over named arguments
type Program struct {
	Version uint64
	Purpose string
	Args    []string
	Body    plutus.Data
	Sites   []Site // source positions, not part of the binary form
}

// envelope is the binary layout of a Program
type envelope struct {
	_       struct{} `cbor:",toarray"`
	Version uint64
	Purpose string
	Args    []string
	Body    cbor.RawMessage
}

// Indefinite lengths must stay allowed: the raw body uses them for lists.
var envelopeEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Sort: cbor.SortCoreDeterministic}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalBinary encodes the program as [version, purpose, args, body]
func (p *Program) MarshalBinary() ([]byte, error) {
	body, err := codec.Encode(p.Body)
	if err != nil {
		return nil, fmt.Errorf("encoding program body: %w", err)
	}
	args := p.Args
	if args == nil {
		args = []string{}
	}
	return envelopeEncMode.Marshal(envelope{
		Version: p.Version,
		Purpose: p.Purpose,
		Args:    args,
		Body:    body,
	})
}

// DecodeProgram reverses MarshalBinary and validates the term tree
func DecodeProgram(data []byte) (*Program, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, invalidProgramf("%v", err)
	}
	if env.Version != ProgramVersion {
		return nil, invalidProgramf("unsupported version %d", env.Version)
	}
	body, err := codec.Decode(env.Body)
	if err != nil {
		return nil, invalidProgramf("body: %v", err)
	}
	if _, err := Holes(body); err != nil {
		return nil, err
	}
	return &Program{
		Version: env.Version,
		Purpose: env.Purpose,
		Args:    env.Args,
		Body:    body,
	}, nil
}

// Holes lists the parameters the program still references unbound
func (p *Program) Holes() ([]string, error) {
	return Holes(p.Body)
}

// Site returns the source location recorded for a site index
func (p *Program) Site(i int64) (Site, bool) {
	if i < 0 || i >= int64(len(p.Sites)) {
		return Site{}, false
	}
	return p.Sites[i], true
}
