package template

import (
	"fmt"

	"github.com/wbrown/janus-plutus/plutus"
)

// ParamType is the declared domain of a template parameter
type ParamType int

const (
	TypeData ParamType = iota
	TypeInt
	TypeBytes
	TypeList
	TypeMap
	TypeConstr
	TypePolicyID
)

// PolicyIDSize is the length of a minting policy hash
const PolicyIDSize = 28

var paramTypeNames = map[ParamType]string{
	TypeData:     ":data",
	TypeInt:      ":int",
	TypeBytes:    ":bytes",
	TypeList:     ":list",
	TypeMap:      ":map",
	TypeConstr:   ":constr",
	TypePolicyID: ":policy-id",
}

func (t ParamType) String() string {
	if name, ok := paramTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

// ParseParamType resolves a type keyword such as :bytes
func ParseParamType(keyword string) (ParamType, bool) {
	for t, name := range paramTypeNames {
		if name == keyword {
			return t, true
		}
	}
	return 0, false
}

// Check reports why d is not a member of the type, or nil
func (t ParamType) Check(d plutus.Data) error {
	if d == nil {
		return fmt.Errorf("expected %s, got nil", t)
	}

	var want plutus.Kind
	switch t {
	case TypeData:
		return nil
	case TypeInt:
		want = plutus.KindInt
	case TypeBytes, TypePolicyID:
		want = plutus.KindBytes
	case TypeList:
		want = plutus.KindList
	case TypeMap:
		want = plutus.KindMap
	case TypeConstr:
		want = plutus.KindConstr
	default:
		return fmt.Errorf("unknown parameter type %s", t)
	}

	if d.Kind() != want {
		return fmt.Errorf("expected %s, got %s", t, d.Kind())
	}
	if t == TypePolicyID {
		if n := d.(plutus.Bytes).Len(); n != PolicyIDSize {
			return fmt.Errorf("expected %s of %d bytes, got %d bytes", t, PolicyIDSize, n)
		}
	}
	return nil
}

// Param is a declared template hole
type Param struct {
	Name string
	Type ParamType
	Pos  Pos
}
