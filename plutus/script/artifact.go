package script

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/wbrown/janus-plutus/plutus/template"
)

// TypePlutusScriptV2 is the format tag of emitted artifacts
const TypePlutusScriptV2 = "PlutusScriptV2"

// scriptHashPrefix is the language byte hashed ahead of a V2 script
const scriptHashPrefix = 0x02

// ScriptHashSize is the length of a script hash (and so of a policy id)
const ScriptHashSize = 28

// ScriptArtifact is the distributable record of a fully bound program
type ScriptArtifact struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CBORHex     string `json:"cborHex"`
}

// Emit finalizes h and packages the program as an artifact
func Emit(h *Handle, description string) (*ScriptArtifact, error) {
	prog, err := Finalize(h)
	if err != nil {
		return nil, err
	}
	return EmitProgram(prog, description)
}

// EmitProgram packages a program. The payload is the program binary wrapped
// as a CBOR byte string.
func EmitProgram(prog *template.Program, description string) (*ScriptArtifact, error) {
	bin, err := prog.MarshalBinary()
	if err != nil {
		return nil, err
	}
	wrapped, err := cbor.Marshal(bin)
	if err != nil {
		return nil, fmt.Errorf("wrapping script: %w", err)
	}
	return &ScriptArtifact{
		Type:        TypePlutusScriptV2,
		Description: description,
		CBORHex:     hex.EncodeToString(wrapped),
	}, nil
}

// WriteJSON writes the artifact as one line of JSON
func (a *ScriptArtifact) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(a)
}

// JSON returns the compact JSON form without a trailing newline
func (a *ScriptArtifact) JSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.WriteJSON(&buf); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ParseArtifact reads an artifact record and checks its payload
func ParseArtifact(data []byte) (*ScriptArtifact, error) {
	var a ScriptArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if a.Type != TypePlutusScriptV2 {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidArtifact, a.Type)
	}
	if _, err := a.ScriptBytes(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ScriptBytes returns the program binary carried by the artifact
func (a *ScriptArtifact) ScriptBytes() ([]byte, error) {
	wrapped, err := hex.DecodeString(a.CBORHex)
	if err != nil {
		return nil, fmt.Errorf("%w: cborHex: %v", ErrInvalidArtifact, err)
	}
	var script []byte
	if err := cbor.Unmarshal(wrapped, &script); err != nil {
		return nil, fmt.Errorf("%w: cborHex: %v", ErrInvalidArtifact, err)
	}
	return script, nil
}

// Hash returns the script hash, which is also the policy id of a minting
// script: blake2b-224 over the language prefix and the script bytes.
func (a *ScriptArtifact) Hash() ([]byte, error) {
	script, err := a.ScriptBytes()
	if err != nil {
		return nil, err
	}
	h, err := blake2b.New(ScriptHashSize, nil)
	if err != nil {
		return nil, err
	}
	h.Write([]byte{scriptHashPrefix})
	h.Write(script)
	return h.Sum(nil), nil
}

// PolicyID is the hex of Hash
func (a *ScriptArtifact) PolicyID() (string, error) {
	sum, err := a.Hash()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// Program decodes the program carried by the artifact
func (a *ScriptArtifact) Program() (*template.Program, error) {
	script, err := a.ScriptBytes()
	if err != nil {
		return nil, err
	}
	return template.DecodeProgram(script)
}
