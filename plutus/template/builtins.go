package template

import (
	"fmt"
	"sort"
)

// BuiltinMetadata describes a builtin callable from template source
type BuiltinMetadata struct {
	Name        string
	MinArgs     int
	MaxArgs     int // -1 for unlimited
	Description string
}

// Registry tracks which builtins exist so bad calls fail at compile time
// rather than during evaluation
type Registry struct {
	builtins map[string]BuiltinMetadata
}

// DefaultRegistry holds every builtin the evaluator implements
var DefaultRegistry = NewRegistry()

// NewRegistry returns a registry with the standard builtins
func NewRegistry() *Registry {
	r := &Registry{builtins: make(map[string]BuiltinMetadata)}

	// Comparison
	r.Register(BuiltinMetadata{Name: "=", MinArgs: 2, MaxArgs: 2, Description: "Structural equality"})
	r.Register(BuiltinMetadata{Name: "!=", MinArgs: 2, MaxArgs: 2, Description: "Structural inequality"})
	r.Register(BuiltinMetadata{Name: "<", MinArgs: 2, MaxArgs: 2, Description: "Integer less than"})
	r.Register(BuiltinMetadata{Name: "<=", MinArgs: 2, MaxArgs: 2, Description: "Integer less than or equal"})
	r.Register(BuiltinMetadata{Name: ">", MinArgs: 2, MaxArgs: 2, Description: "Integer greater than"})
	r.Register(BuiltinMetadata{Name: ">=", MinArgs: 2, MaxArgs: 2, Description: "Integer greater than or equal"})
	r.Register(BuiltinMetadata{Name: "not", MinArgs: 1, MaxArgs: 1, Description: "Boolean negation"})

	// Arithmetic
	r.Register(BuiltinMetadata{Name: "+", MinArgs: 1, MaxArgs: -1, Description: "Integer sum"})
	r.Register(BuiltinMetadata{Name: "-", MinArgs: 1, MaxArgs: -1, Description: "Integer difference, or negation with one argument"})
	r.Register(BuiltinMetadata{Name: "*", MinArgs: 1, MaxArgs: -1, Description: "Integer product"})

	// Constructors
	r.Register(BuiltinMetadata{Name: "constr", MinArgs: 1, MaxArgs: -1, Description: "Build a constructor from a tag and fields"})
	r.Register(BuiltinMetadata{Name: "tag", MinArgs: 1, MaxArgs: 1, Description: "Constructor tag"})
	r.Register(BuiltinMetadata{Name: "field", MinArgs: 2, MaxArgs: 2, Description: "Constructor field by index"})
	r.Register(BuiltinMetadata{Name: "fields", MinArgs: 1, MaxArgs: 1, Description: "Constructor fields as a list"})
	r.Register(BuiltinMetadata{Name: "unit", MinArgs: 0, MaxArgs: 0, Description: "The unit constructor"})

	// Lists
	r.Register(BuiltinMetadata{Name: "list", MinArgs: 0, MaxArgs: -1, Description: "Build a list"})
	r.Register(BuiltinMetadata{Name: "nth", MinArgs: 2, MaxArgs: 2, Description: "List element by index"})
	r.Register(BuiltinMetadata{Name: "len", MinArgs: 1, MaxArgs: 1, Description: "Length of a list, map or byte string"})
	r.Register(BuiltinMetadata{Name: "empty?", MinArgs: 1, MaxArgs: 1, Description: "True for an empty list, map or byte string"})

	// Maps
	r.Register(BuiltinMetadata{Name: "map", MinArgs: 0, MaxArgs: -1, Description: "Build a map from alternating keys and values"})
	r.Register(BuiltinMetadata{Name: "lookup", MinArgs: 2, MaxArgs: 2, Description: "Value of the first matching key; fails when absent"})
	r.Register(BuiltinMetadata{Name: "lookup-or", MinArgs: 3, MaxArgs: 3, Description: "Value of the first matching key, or a default"})
	r.Register(BuiltinMetadata{Name: "has-key?", MinArgs: 2, MaxArgs: 2, Description: "True when the map contains the key"})
	r.Register(BuiltinMetadata{Name: "keys", MinArgs: 1, MaxArgs: 1, Description: "Map keys in order"})
	r.Register(BuiltinMetadata{Name: "values", MinArgs: 1, MaxArgs: 1, Description: "Map values in order"})

	// Ledger
	r.Register(BuiltinMetadata{Name: "quantity", MinArgs: 3, MaxArgs: 3, Description: "Quantity of policy/name in an asset bundle, 0 when absent"})

	return r
}

// Register adds a builtin to the registry
func (r *Registry) Register(meta BuiltinMetadata) {
	r.builtins[meta.Name] = meta
}

// IsRegistered checks if a builtin name is registered
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.builtins[name]
	return ok
}

// Validate checks a call's arity
func (r *Registry) Validate(name string, argCount int) error {
	meta, ok := r.builtins[name]
	if !ok {
		return fmt.Errorf("unknown function: %s", name)
	}
	if argCount < meta.MinArgs {
		return fmt.Errorf("%s requires at least %d arguments, got %d", name, meta.MinArgs, argCount)
	}
	if meta.MaxArgs >= 0 && argCount > meta.MaxArgs {
		return fmt.Errorf("%s accepts at most %d arguments, got %d", name, meta.MaxArgs, argCount)
	}
	return nil
}

// Names returns the registered builtin names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metadata returns the metadata of a builtin
func (r *Registry) Metadata(name string) (BuiltinMetadata, bool) {
	meta, ok := r.builtins[name]
	return meta, ok
}
