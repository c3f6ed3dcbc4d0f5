package eval

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-plutus/contracts"
	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/annotations"
	"github.com/wbrown/janus-plutus/plutus/ledger"
	"github.com/wbrown/janus-plutus/plutus/script"
	"github.com/wbrown/janus-plutus/plutus/template"
)

var (
	nftPolicy     = plutus.MustBytesFromHex("14b249936a64cbc96bde5a46e04174e7fb58b565103d0c3a32f8d61f")
	nftName       = plutus.MustBytesFromHex("54657374546F6B656E")
	mintingPolicy = plutus.MustBytesFromHex("14b249936a64cbc96bde5a46e04174e7fb58b565103d0c3a32f8d61e")
)

func mintProgram(t *testing.T) *template.Program {
	t.Helper()
	h, err := script.LoadTemplate(contracts.MintValidator)
	require.NoError(t, err)
	h, err = h.Bind(contracts.ParamNFTPolicy, nftPolicy)
	require.NoError(t, err)
	h, err = h.Bind(contracts.ParamNFTName, nftName)
	require.NoError(t, err)
	p, err := script.Finalize(h)
	require.NoError(t, err)
	return p
}

func scenarios() []ledger.Scenario {
	return ledger.NFTScenarios(ledger.NFTScenarioConfig{
		NFTPolicy:     nftPolicy,
		NFTName:       nftName,
		MintingPolicy: mintingPolicy,
		Redeemer:      plutus.NewInt(contracts.Redeemer),
		WrongRedeemer: plutus.NewInt(5),
	})
}

// compile builds an unbound program from template source
func compile(t *testing.T, src string) *template.Program {
	t.Helper()
	tmpl, err := template.Compile(src)
	require.NoError(t, err)
	return tmpl.Program(tmpl.Body)
}

func TestMintValidatorScenarios(t *testing.T) {
	prog := mintProgram(t)
	ev := New(DefaultOptions())

	for _, s := range scenarios() {
		t.Run(s.Name, func(t *testing.T) {
			res, err := ev.Evaluate(prog, s.Args())
			if s.ExpectSuccess {
				require.NoError(t, err)
				assert.True(t, plutus.Equal(plutus.Unit(), res.Value))
				assert.Greater(t, res.Steps, 0)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrEvaluationFailure))
			var f *Failure
			require.True(t, errors.As(err, &f))
			assert.NotEmpty(t, f.Logs)
		})
	}
}

func TestMintValidatorFromArtifact(t *testing.T) {
	// a program read back from its artifact has no site table but evaluates the same
	art, err := script.EmitProgram(mintProgram(t), "")
	require.NoError(t, err)
	prog, err := art.Program()
	require.NoError(t, err)

	outcomes := New(DefaultOptions()).RunScenarios(prog, scenarios())
	require.Len(t, outcomes, 6)
	for _, o := range outcomes {
		assert.True(t, o.Matches(), "scenario %s: %v", o.Scenario.Name, o.Err)
	}
}

func TestFailureLogsPointAtTheFailedCondition(t *testing.T) {
	prog := mintProgram(t)
	byName := map[string]ledger.Scenario{}
	for _, s := range scenarios() {
		byName[s.Name] = s
	}

	tests := []struct {
		scenario string
		lastLog  string
	}{
		{"wrong redeemer", "redeemer: false"},
		{"nft missing from input", "nft in input: false"},
		{"nft missing from output", "nft in output: false"},
		{"wrong nft name", "nft in input: false"},
	}
	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			_, err := Evaluate(prog, byName[tt.scenario].Args())
			var f *Failure
			require.True(t, errors.As(err, &f))
			require.NotEmpty(t, f.Logs)
			assert.Equal(t, tt.lastLog, f.Logs[len(f.Logs)-1])
			assert.Equal(t, "validation failed", f.Message)
		})
	}
}

func TestUnboundParameterFails(t *testing.T) {
	h, err := script.LoadTemplate(contracts.MintValidator)
	require.NoError(t, err)
	prog := h.Template().Program(h.Template().Body)

	s := scenarios()[0]
	_, err = Evaluate(prog, s.Args())
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Contains(t, f.Message, "unbound parameter NFT_POLICY")
	require.NotEmpty(t, f.CallSites)
	assert.Equal(t, "any?", f.CallSites[0].Function)
	assert.True(t, f.CallSites[0].Known)
}

func TestArgumentCountMismatch(t *testing.T) {
	prog := mintProgram(t)
	_, err := Evaluate(prog, []plutus.Data{plutus.NewInt(4)})
	assert.True(t, errors.Is(err, ErrEvaluationFailure))
	assert.Contains(t, err.Error(), "expects 2 arguments, got 1")

	_, err = Evaluate(prog, []plutus.Data{plutus.NewInt(4), nil})
	assert.True(t, errors.Is(err, ErrEvaluationFailure))
}

func TestCallSitesAreOutermostFirst(t *testing.T) {
	prog := compile(t, `{:module m :args [x]
 :body (+ 1
          (field x 3))}`)

	_, err := Evaluate(prog, []plutus.Data{plutus.MustConstr(0, plutus.NewInt(1))})
	var f *Failure
	require.True(t, errors.As(err, &f))
	require.Len(t, f.CallSites, 2)
	assert.Equal(t, "+", f.CallSites[0].Function)
	assert.Equal(t, template.Pos{Line: 2, Col: 9}, f.CallSites[0].Pos)
	assert.Equal(t, "field", f.CallSites[1].Function)
	assert.Equal(t, template.Pos{Line: 3, Col: 12}, f.CallSites[1].Pos)
	assert.Contains(t, f.Message, "out of range")
	assert.Contains(t, err.Error(), "field at 3:12")

	table := FormatCallSites(f.CallSites)
	assert.Contains(t, table, "field")
	assert.Contains(t, table, "3:12")
}

func TestErrorForm(t *testing.T) {
	prog := compile(t, `{:module m :args [x] :body (if (= x 1) (error "x must not be 1") x)}`)

	res, err := Evaluate(prog, []plutus.Data{plutus.NewInt(2)})
	require.NoError(t, err)
	assert.True(t, plutus.Equal(plutus.NewInt(2), res.Value))

	_, err = Evaluate(prog, []plutus.Data{plutus.NewInt(1)})
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "x must not be 1", f.Message)
	require.Len(t, f.CallSites, 1)
	assert.Equal(t, "error", f.CallSites[0].Function)
}

func TestValidatorMustReturnBoolean(t *testing.T) {
	prog := compile(t, `{:module m :purpose :spending :args [x] :body x}`)

	_, err := Evaluate(prog, []plutus.Data{plutus.NewInt(1)})
	assert.True(t, errors.Is(err, ErrEvaluationFailure))

	res, err := Evaluate(prog, []plutus.Data{plutus.Bool(true)})
	require.NoError(t, err)
	assert.True(t, plutus.Equal(plutus.Unit(), res.Value))

	_, err = Evaluate(prog, []plutus.Data{plutus.Bool(false)})
	assert.True(t, errors.Is(err, ErrEvaluationFailure))
}

func TestStepLimit(t *testing.T) {
	prog := compile(t, `{:module m :args [xs] :body (all? [x xs] (>= x 0))}`)
	xs := make([]plutus.Data, 100)
	for i := range xs {
		xs[i] = plutus.NewInt(int64(i))
	}

	res, err := New(Options{}).Evaluate(prog, []plutus.Data{plutus.NewList(xs...)})
	require.NoError(t, err)
	assert.True(t, plutus.Equal(plutus.Bool(true), res.Value))

	_, err = New(Options{MaxSteps: 50}).Evaluate(prog, []plutus.Data{plutus.NewList(xs...)})
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Contains(t, f.Message, "step limit")
}

func TestShortCircuit(t *testing.T) {
	// the second operand would fail if evaluated
	prog := compile(t, `{:module m :args [x] :body (or (= x 1) (field x 0))}`)
	res, err := Evaluate(prog, []plutus.Data{plutus.NewInt(1)})
	require.NoError(t, err)
	assert.True(t, plutus.Equal(plutus.Bool(true), res.Value))

	prog = compile(t, `{:module m :args [xs] :body (any? [x xs] (= (field x 0) 1))}`)
	list := plutus.NewList(plutus.MustConstr(0, plutus.NewInt(1)), plutus.NewInt(7))
	res, err = Evaluate(prog, []plutus.Data{list})
	require.NoError(t, err)
	assert.True(t, plutus.Equal(plutus.Bool(true), res.Value))
}

func TestBuiltins(t *testing.T) {
	bundle := ledger.SingleAsset(nftPolicy, nftName, 3)

	tests := []struct {
		body string
		want plutus.Data
	}{
		{`(= [1 2] [1 2])`, plutus.Bool(true)},
		{`(!= 1 2)`, plutus.Bool(true)},
		{`(< 1 2)`, plutus.Bool(true)},
		{`(<= 2 2)`, plutus.Bool(true)},
		{`(> 1 2)`, plutus.Bool(false)},
		{`(>= 1 2)`, plutus.Bool(false)},
		{`(not false)`, plutus.Bool(true)},
		{`(+ 1 2 3)`, plutus.NewInt(6)},
		{`(- 5)`, plutus.NewInt(-5)},
		{`(- 10 3 2)`, plutus.NewInt(5)},
		{`(* 2 3 4)`, plutus.NewInt(24)},
		{`(constr 2 1 "a")`, plutus.MustConstr(2, plutus.NewInt(1), plutus.BytesFromString("a"))},
		{`(tag (constr 200))`, plutus.NewInt(200)},
		{`(field (constr 0 7 8) 1)`, plutus.NewInt(8)},
		{`(fields (constr 0 7 8))`, plutus.NewList(plutus.NewInt(7), plutus.NewInt(8))},
		{`(unit)`, plutus.Unit()},
		{`(list)`, plutus.NewList()},
		{`(nth [4 5 6] 2)`, plutus.NewInt(6)},
		{`(len #hex "aabb")`, plutus.NewInt(2)},
		{`(empty? {})`, plutus.Bool(true)},
		{`(map 1 2)`, plutus.NewMap(plutus.Pair{Key: plutus.NewInt(1), Value: plutus.NewInt(2)})},
		{`(lookup {1 2, 1 3} 1)`, plutus.NewInt(2)},
		{`(lookup-or {1 2} 9 0)`, plutus.NewInt(0)},
		{`(has-key? {1 2} 1)`, plutus.Bool(true)},
		{`(keys {1 2, 3 4})`, plutus.NewList(plutus.NewInt(1), plutus.NewInt(3))},
		{`(values {1 2, 3 4})`, plutus.NewList(plutus.NewInt(2), plutus.NewInt(4))},
		{`(quantity bundle #hex "14b249936a64cbc96bde5a46e04174e7fb58b565103d0c3a32f8d61f" "TestToken")`, plutus.NewInt(3)},
		{`(quantity bundle #hex "00" "TestToken")`, plutus.NewInt(0)},
		{`(let [a 1 b (+ a 1)] (* a b))`, plutus.NewInt(2)},
		{`(+ 18446744073709551615 1)`, plutus.NewBigInt(bigPow2(64))},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			prog := compile(t, `{:module m :args [bundle] :body `+tt.body+`}`)
			res, err := Evaluate(prog, []plutus.Data{bundle})
			require.NoError(t, err)
			assert.True(t, plutus.Equal(tt.want, res.Value), "got %s, want %s", res.Value, tt.want)
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []string{
		`(< 1 "a")`,
		`(not 1)`,
		`(field 1 0)`,
		`(nth [1] 1)`,
		`(nth [1] -1)`,
		`(len 1)`,
		`(lookup {1 2} 3)`,
		`(keys [1])`,
		`(constr -1)`,
		`(map 1)`,
		`(quantity {1 2} 1 1)`,
		`(if 1 2 3)`,
		`(any? [x 1] true)`,
		`(all? [x [1]] x)`,
	}
	for _, body := range tests {
		t.Run(body, func(t *testing.T) {
			prog := compile(t, `{:module m :body `+body+`}`)
			_, err := Evaluate(prog, nil)
			assert.True(t, errors.Is(err, ErrEvaluationFailure), "got %v", err)
		})
	}
}

func TestEveryRegisteredBuiltinIsImplemented(t *testing.T) {
	assert.ElementsMatch(t, template.DefaultRegistry.Names(), Names())
}

func TestMalformedTermFails(t *testing.T) {
	prog := &template.Program{Version: template.ProgramVersion, Body: plutus.NewInt(1)}
	_, err := Evaluate(prog, nil)
	assert.True(t, errors.Is(err, ErrEvaluationFailure))

	prog = &template.Program{Version: template.ProgramVersion, Body: template.Apply("nope", nil, template.NoSite)}
	_, err = Evaluate(prog, nil)
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Contains(t, f.Message, "unknown builtin nope")
	require.Len(t, f.CallSites, 1)
	assert.False(t, f.CallSites[0].Known)
}

func TestAnnotations(t *testing.T) {
	var names []string
	c := annotations.NewCollector(func(e annotations.Event) { names = append(names, e.Name) })
	ev := New(Options{Collector: c})

	_, err := ev.Evaluate(mintProgram(t), scenarios()[0].Args())
	require.NoError(t, err)

	traces := c.Named(annotations.EvalTrace)
	assert.Len(t, traces, 3)
	assert.Equal(t, annotations.EvalCompleted, names[len(names)-1])
	done := c.Named(annotations.EvalCompleted)[0]
	assert.Equal(t, plutus.Unit(), done.Data["value"])
	assert.Empty(t, c.Named(annotations.ErrorEval))
}

func TestFailureIsAnnotated(t *testing.T) {
	c := annotations.NewCollector(func(annotations.Event) {})
	ev := New(Options{Collector: c})

	wrong := scenarios()[len(scenarios())-1]
	_, err := ev.Evaluate(mintProgram(t), wrong.Args())
	require.Error(t, err)

	assert.Empty(t, c.Named(annotations.EvalCompleted))
	failed := c.Named(annotations.ErrorEval)
	require.Len(t, failed, 1)
	assert.Equal(t, err, failed[0].Data["error"])
	assert.Greater(t, failed[0].Data["steps"].(int), 0)
}

func TestFormatOutcomes(t *testing.T) {
	outcomes := New(DefaultOptions()).RunScenarios(mintProgram(t), scenarios())
	report := NewTableFormatter().FormatOutcomes(outcomes)

	for _, s := range scenarios() {
		assert.Contains(t, report, s.Name)
	}
	assert.NotContains(t, report, "MISMATCH")
	assert.Contains(t, report, "expected")
}

func TestTruncateKeepsRunes(t *testing.T) {
	tf := &TableFormatter{MaxWidth: 5, TruncateString: "..."}

	tests := []struct {
		in   string
		want string
	}{
		{"abc", "abc"},
		{"ééééé", "ééééé"},
		{"éééééé", "éé..."},
		{"a✗✗✗✗✗✗", "a✗..."},
	}
	for _, tt := range tests {
		got := tf.truncate(tt.in)
		assert.Equal(t, tt.want, got)
		assert.True(t, utf8.ValidString(got))
	}

	table := tf.FormatTable([]string{"detail"}, [][]string{{strings.Repeat("✗", 20)}})
	assert.True(t, utf8.ValidString(table))
	assert.Contains(t, table, "✗✗...")
}

func bigPow2(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}
