package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/codec"
)

var (
	testPolicy  = plutus.MustBytesFromHex("14b249936a64cbc96bde5a46e04174e7fb58b565103d0c3a32f8d61f")
	testName    = plutus.MustBytesFromHex("54657374546F6B656E")
	testMinting = plutus.MustBytesFromHex("14b249936a64cbc96bde5a46e04174e7fb58b565103d0c3a32f8d61e")
)

func TestSingleAssetShape(t *testing.T) {
	bundle := SingleAsset(testPolicy, testName, 1)
	require.Equal(t, 1, bundle.Len())

	outer := bundle.At(0)
	assert.True(t, plutus.Equal(outer.Key, testPolicy))

	inner, ok := outer.Value.(plutus.Map)
	require.True(t, ok, "inner value must be a map")
	require.Equal(t, 1, inner.Len())
	assert.True(t, plutus.Equal(inner.At(0).Key, testName))
	assert.True(t, plutus.Equal(inner.At(0).Value, plutus.NewInt(1)))

	// {policy: {name: 1}}
	want := "a1581c" + testPolicy.Hex() + "a149" + testName.Hex() + "01"
	got, err := codec.EncodeHex(bundle)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAssetsGroupsByPolicyInOrder(t *testing.T) {
	other := plutus.MustBytesFromHex("00")
	bundle := Assets(
		Asset{Policy: testPolicy, Name: plutus.BytesFromString("b"), Quantity: 2},
		Asset{Policy: other, Name: plutus.BytesFromString("x"), Quantity: 5},
		Asset{Policy: testPolicy, Name: plutus.BytesFromString("a"), Quantity: 1},
	)

	want := plutus.NewMap(
		plutus.Pair{Key: testPolicy, Value: plutus.NewMap(
			plutus.Pair{Key: plutus.BytesFromString("b"), Value: plutus.NewInt(2)},
			plutus.Pair{Key: plutus.BytesFromString("a"), Value: plutus.NewInt(1)},
		)},
		plutus.Pair{Key: other, Value: plutus.NewMap(
			plutus.Pair{Key: plutus.BytesFromString("x"), Value: plutus.NewInt(5)},
		)},
	)
	assert.True(t, plutus.Equal(want, bundle), "got %s", bundle)
	assert.Equal(t, 0, NoAssets().Len())
}

func TestTxInfoShape(t *testing.T) {
	nft := SingleAsset(testPolicy, testName, 1)
	info := TxInfo(nft, DefaultTxInfoOptions())

	require.Equal(t, 8, info.Len())
	assert.Equal(t, uint64(0), info.Tag())

	inputs := info.Field(TxInfoInputs).(plutus.List)
	require.Equal(t, 1, inputs.Len())
	txIn := inputs.At(0).(plutus.Constr)
	require.Equal(t, 2, txIn.Len())
	ref := txIn.Field(0).(plutus.Constr)
	assert.Equal(t, 2, ref.Len())
	spent := txIn.Field(1).(plutus.Constr)
	require.Equal(t, 3, spent.Len())
	assert.True(t, plutus.Equal(spent.Field(1), nft))

	outputs := info.Field(TxInfoOutputs).(plutus.List)
	require.Equal(t, 1, outputs.Len())
	assert.True(t, plutus.Equal(outputs.At(0).(plutus.Constr).Field(1), nft))

	assert.True(t, plutus.Equal(info.Field(TxInfoMint), nft))
	assert.True(t, plutus.Equal(info.Field(TxInfoFee), NoAssets()))
	assert.True(t, plutus.Equal(info.Field(TxInfoValidRange), plutus.MustConstr(0, plutus.NewInt(0), plutus.NewInt(1000))))
}

// differingFields returns the TxInfo field positions where a and b differ
func differingFields(a, b plutus.Constr) []int {
	var diff []int
	for i := 0; i < a.Len(); i++ {
		if !plutus.Equal(a.Field(i), b.Field(i)) {
			diff = append(diff, i)
		}
	}
	return diff
}

func TestOmitTogglesAreIsolated(t *testing.T) {
	nft := SingleAsset(testPolicy, testName, 1)
	base := TxInfo(nft, DefaultTxInfoOptions())

	noInput := DefaultTxInfoOptions()
	noInput.OmitAssetFromInput = true
	withoutInput := TxInfo(nft, noInput)
	assert.Equal(t, []int{TxInfoInputs}, differingFields(base, withoutInput))
	spent := withoutInput.Field(TxInfoInputs).(plutus.List).At(0).(plutus.Constr).Field(1).(plutus.Constr)
	assert.True(t, plutus.Equal(spent.Field(1), NoAssets()))

	noOutput := DefaultTxInfoOptions()
	noOutput.OmitAssetFromOutput = true
	withoutOutput := TxInfo(nft, noOutput)
	assert.Equal(t, []int{TxInfoOutputs}, differingFields(base, withoutOutput))
	created := withoutOutput.Field(TxInfoOutputs).(plutus.List).At(0).(plutus.Constr)
	assert.True(t, plutus.Equal(created.Field(1), NoAssets()))
}

func TestPurposes(t *testing.T) {
	p := MintingPurpose(testMinting)
	assert.Equal(t, uint64(PurposeMinting), p.Tag())
	require.Equal(t, 1, p.Len())
	assert.True(t, plutus.Equal(p.Field(0), testMinting))

	_, err := Purpose(-1)
	assert.ErrorIs(t, err, plutus.ErrNegativeTag)

	rewarding, err := Purpose(PurposeRewarding, plutus.BytesFromString("stake"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rewarding.Tag())

	ctx := ScriptContext(TxInfo(NoAssets(), DefaultTxInfoOptions()), p)
	assert.Equal(t, 2, ctx.Len())
	assert.True(t, plutus.Equal(ctx.Field(1), p))
}

func TestNFTScenariosDifferInOnePlace(t *testing.T) {
	scenarios := NFTScenarios(NFTScenarioConfig{
		NFTPolicy:     testPolicy,
		NFTName:       testName,
		MintingPolicy: testMinting,
		Redeemer:      plutus.NewInt(4),
		WrongRedeemer: plutus.NewInt(5),
	})
	require.Len(t, scenarios, 6)

	success := scenarios[0]
	assert.True(t, success.ExpectSuccess)
	assert.Len(t, success.Args(), 2)

	for _, s := range scenarios[1:] {
		assert.False(t, s.ExpectSuccess, s.Name)
		sameRedeemer := plutus.Equal(s.Redeemer, success.Redeemer)
		sameContext := plutus.Equal(s.Context, success.Context)
		assert.True(t, sameRedeemer != sameContext, "%s must differ from the positive case in exactly one argument", s.Name)
	}
}
