package template

import (
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-plutus/plutus"
)

const sampleSource = `
; sample validator
{:module sample
 :description "checks a redeemer"
 :purpose :minting
 :params [[LIMIT :int] [OWNER :bytes]]
 :args [redeemer ctx]
 :body (and (<= redeemer LIMIT)
            (= (nth [OWNER #hex "0xAB"] 0) OWNER))}
`

func TestReadForms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`42`, "42"},
		{`-7`, "-7"},
		{`123456789012345678901234567890N`, "123456789012345678901234567890"},
		{`"a\"b"`, `"a\"b"`},
		{`(f [1 2] {:a 1})`, `(f [1 2] {:a 1})`},
		{`[1 #_ 2 3]`, "[1 3]"},
		{`#hex "ff"`, `#hex "ff"`},
		{`true`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f, err := Read(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
		})
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		pos  Pos
	}{
		{"unterminated list", "(a b", Pos{1, 1}},
		{"unterminated string", "\n  \"abc", Pos{2, 3}},
		{"stray close", "  )", Pos{1, 3}},
		{"odd map", "{:a}", Pos{1, 1}},
		{"nil", "nil", Pos{1, 1}},
		{"bad escape", `"\q"`, Pos{1, 3}},
		{"digit symbol", "1abc", Pos{1, 1}},
		{"two forms", "1 2", Pos{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCompile))
			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.pos, ce.Pos)
		})
	}
}

func TestCompileHeader(t *testing.T) {
	tmpl, err := Compile(sampleSource)
	require.NoError(t, err)

	assert.Equal(t, "sample", tmpl.Module)
	assert.Equal(t, "checks a redeemer", tmpl.Description)
	assert.Equal(t, PurposeMinting, tmpl.Purpose)
	assert.Equal(t, []string{"redeemer", "ctx"}, tmpl.Args)
	require.Len(t, tmpl.Params, 2)
	assert.Equal(t, "LIMIT", tmpl.Params[0].Name)
	assert.Equal(t, TypeInt, tmpl.Params[0].Type)
	assert.Equal(t, TypeBytes, tmpl.Params[1].Type)
	assert.Equal(t, "sample::OWNER", tmpl.QualifiedName("OWNER"))

	p, ok := tmpl.Param("sample::LIMIT")
	require.True(t, ok)
	assert.Equal(t, "LIMIT", p.Name)
	_, ok = tmpl.Param("other::LIMIT")
	assert.False(t, ok)

	holes, err := Holes(tmpl.Body)
	require.NoError(t, err)
	assert.Equal(t, []string{"LIMIT", "OWNER"}, holes)
}

func TestCompileRecordsSites(t *testing.T) {
	tmpl, err := Compile(sampleSource)
	require.NoError(t, err)

	var fns []string
	for _, s := range tmpl.Sites {
		fns = append(fns, s.Function)
	}
	assert.ElementsMatch(t, []string{"<=", "=", "nth", "list"}, fns)
	for _, s := range tmpl.Sites {
		assert.Greater(t, s.Pos.Line, 1)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	a, err := Compile(sampleSource)
	require.NoError(t, err)
	b, err := Compile(sampleSource)
	require.NoError(t, err)
	assert.True(t, plutus.Equal(a.Body, b.Body))
	assert.Equal(t, a.SourceHash, b.SourceHash)
}

func TestCompileAndOrShape(t *testing.T) {
	tmpl, err := Compile(`{:module m :args [a b] :body (and a b)}`)
	require.NoError(t, err)
	want := If(Var("a"), Var("b"), Const(plutus.Bool(false)))
	assert.True(t, plutus.Equal(want, tmpl.Body), "got %s", tmpl.Body)

	tmpl, err = Compile(`{:module m :args [a b] :body (or a b)}`)
	require.NoError(t, err)
	want = If(Var("a"), Const(plutus.Bool(true)), Var("b"))
	assert.True(t, plutus.Equal(want, tmpl.Body), "got %s", tmpl.Body)

	tmpl, err = Compile(`{:module m :body (and)}`)
	require.NoError(t, err)
	assert.True(t, plutus.Equal(Const(plutus.Bool(true)), tmpl.Body))
}

func TestCompileScoping(t *testing.T) {
	// let bindings shadow parameters inside their body
	tmpl, err := Compile(`{:module m :params [[X :int]] :body (let [X 1 y X] y)}`)
	require.NoError(t, err)
	holes, err := Holes(tmpl.Body)
	require.NoError(t, err)
	assert.Empty(t, holes)

	tmpl, err = Compile(`{:module m :args [xs] :body (any? [x xs] (= x 1))}`)
	require.NoError(t, err)
	c, err := CheckTerm(tmpl.Body)
	require.NoError(t, err)
	assert.Equal(t, TermEach, c.Tag())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"not a map", `[1]`, "template must be a map"},
		{"no module", `{:body 1}`, "no :module"},
		{"no body", `{:module m}`, "no :body"},
		{"unknown key", `{:module m :body 1 :extra 2}`, "unknown template key"},
		{"duplicate key", `{:module m :body 1 :body 2}`, "duplicate template key"},
		{"bad purpose", `{:module m :purpose :voting :body 1}`, "unknown purpose"},
		{"bad param type", `{:module m :params [[A :float]] :body 1}`, "unknown parameter type"},
		{"duplicate param", `{:module m :params [[A :int] [A :int]] :body 1}`, "duplicate parameter"},
		{"qualified param", `{:module m :params [[m::A :int]] :body 1}`, "cannot be qualified"},
		{"arg shadows param", `{:module m :params [[A :int]] :args [A] :body 1}`, "shadows a parameter"},
		{"unresolved", `{:module m :body (= x 1)}`, "unresolved symbol x"},
		{"unknown function", `{:module m :body (frobnicate 1)}`, "unknown function"},
		{"arity", `{:module m :body (= 1)}`, "at least 2"},
		{"keyword expr", `{:module m :body :k}`, "not an expression"},
		{"bad hex", `{:module m :body #hex "abc"}`, "malformed"},
		{"unknown tag", `{:module m :body #inst "2020"}`, "unknown tag"},
		{"bad if", `{:module m :body (if true 1)}`, "if needs"},
		{"bad let", `{:module m :body (let [a] a)}`, "let needs"},
		{"bad trace", `{:module m :body (trace 1 2)}`, "trace needs"},
		{"empty call", `{:module m :body ()}`, "empty call"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCompile))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReplaceHoles(t *testing.T) {
	tmpl, err := Compile(sampleSource)
	require.NoError(t, err)

	body, missing, err := ReplaceHoles(tmpl.Body, func(name string) (plutus.Data, bool) {
		if name == "LIMIT" {
			return plutus.NewInt(10), true
		}
		return nil, false
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"OWNER"}, missing)

	// the input tree is untouched
	holes, err := Holes(tmpl.Body)
	require.NoError(t, err)
	assert.Equal(t, []string{"LIMIT", "OWNER"}, holes)

	holes, err = Holes(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"OWNER"}, holes)
}

func TestReplaceHolesRejectsMalformedTerms(t *testing.T) {
	_, _, err := ReplaceHoles(plutus.NewInt(1), func(string) (plutus.Data, bool) { return nil, false })
	assert.True(t, errors.Is(err, ErrInvalidProgram))

	_, _, err = ReplaceHoles(plutus.MustConstr(99), func(string) (plutus.Data, bool) { return nil, false })
	assert.True(t, errors.Is(err, ErrInvalidProgram))

	_, _, err = ReplaceHoles(plutus.MustConstr(int64(TermIf), Var("a")), func(string) (plutus.Data, bool) { return nil, false })
	assert.True(t, errors.Is(err, ErrInvalidProgram))
}

func TestProgramBinaryRoundTrip(t *testing.T) {
	tmpl, err := Compile(sampleSource)
	require.NoError(t, err)
	prog := tmpl.Program(tmpl.Body)

	bin, err := prog.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, cbor.Wellformed(bin))
	assert.Equal(t, byte(0x84), bin[0])

	again, err := prog.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, bin, again)

	decoded, err := DecodeProgram(bin)
	require.NoError(t, err)
	assert.Equal(t, ProgramVersion, decoded.Version)
	assert.Equal(t, PurposeMinting, decoded.Purpose)
	assert.Equal(t, tmpl.Args, decoded.Args)
	assert.True(t, plutus.Equal(tmpl.Body, decoded.Body))
	assert.Nil(t, decoded.Sites)
}

func TestDecodeProgramErrors(t *testing.T) {
	_, err := DecodeProgram([]byte{0x01})
	assert.True(t, errors.Is(err, ErrInvalidProgram))

	p := &Program{Version: 9, Body: Const(plutus.NewInt(1))}
	bin, err := p.MarshalBinary()
	require.NoError(t, err)
	_, err = DecodeProgram(bin)
	assert.True(t, errors.Is(err, ErrInvalidProgram))

	p = &Program{Version: ProgramVersion, Body: plutus.NewInt(1)}
	bin, err = p.MarshalBinary()
	require.NoError(t, err)
	_, err = DecodeProgram(bin)
	assert.True(t, errors.Is(err, ErrInvalidProgram))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.IsRegistered("quantity"))
	assert.False(t, r.IsRegistered("and"))
	assert.NoError(t, r.Validate("+", 5))
	assert.Error(t, r.Validate("not", 2))
	assert.Error(t, r.Validate("unit", 1))

	names := r.Names()
	assert.IsIncreasing(t, names)
	meta, ok := r.Metadata("lookup-or")
	require.True(t, ok)
	assert.Equal(t, 3, meta.MinArgs)
}

func TestParamTypeCheck(t *testing.T) {
	policy := plutus.NewBytes(make([]byte, PolicyIDSize))

	assert.NoError(t, TypeData.Check(plutus.NewInt(1)))
	assert.NoError(t, TypeInt.Check(plutus.NewInt(1)))
	assert.Error(t, TypeInt.Check(plutus.NewBytes(nil)))
	assert.NoError(t, TypePolicyID.Check(policy))
	assert.Error(t, TypePolicyID.Check(plutus.NewBytes([]byte{1})))
	assert.Error(t, TypeBytes.Check(nil))

	typ, ok := ParseParamType(":policy-id")
	require.True(t, ok)
	assert.Equal(t, TypePolicyID, typ)
	assert.Equal(t, ":policy-id", typ.String())
}
