package ledger

import (
	"github.com/wbrown/janus-plutus/plutus"
)

// Scenario is one validator invocation with its expected outcome
type Scenario struct {
	Name          string
	Redeemer      plutus.Data
	Context       plutus.Data
	ExpectSuccess bool
}

// Args returns the evaluator argument list [redeemer, context]
func (s Scenario) Args() []plutus.Data {
	return []plutus.Data{s.Redeemer, s.Context}
}

// NFTScenarioConfig describes the gating NFT and the redeemers of an
// NFT-gated minting policy
type NFTScenarioConfig struct {
	NFTPolicy     plutus.Bytes
	NFTName       plutus.Bytes
	MintingPolicy plutus.Bytes
	Redeemer      plutus.Data
	WrongRedeemer plutus.Data
}

// WrongNFTName is the asset name used by the wrong-name scenario
var WrongNFTName = plutus.BytesFromString("WrongName")

// NFTScenarios returns the positive path and one negative path per condition
// the policy checks. Every negative case differs from the positive one in a
// single place.
func NFTScenarios(cfg NFTScenarioConfig) []Scenario {
	nft := SingleAsset(cfg.NFTPolicy, cfg.NFTName, 1)
	purpose := MintingPurpose(cfg.MintingPolicy)

	context := func(value plutus.Map, opts TxInfoOptions) plutus.Data {
		return ScriptContext(TxInfo(value, opts), purpose)
	}

	noInput := DefaultTxInfoOptions()
	noInput.OmitAssetFromInput = true

	noOutput := DefaultTxInfoOptions()
	noOutput.OmitAssetFromOutput = true

	return []Scenario{
		{
			Name:          "nft in input and output",
			Redeemer:      cfg.Redeemer,
			Context:       context(nft, DefaultTxInfoOptions()),
			ExpectSuccess: true,
		},
		{
			Name:     "nft missing from output",
			Redeemer: cfg.Redeemer,
			Context:  context(nft, noOutput),
		},
		{
			Name:     "nft missing from input",
			Redeemer: cfg.Redeemer,
			Context:  context(nft, noInput),
		},
		{
			Name:     "wrong nft name",
			Redeemer: cfg.Redeemer,
			Context:  context(SingleAsset(cfg.NFTPolicy, WrongNFTName, 1), DefaultTxInfoOptions()),
		},
		{
			Name:     "empty bundle",
			Redeemer: cfg.Redeemer,
			Context:  context(NoAssets(), DefaultTxInfoOptions()),
		},
		{
			Name:     "wrong redeemer",
			Redeemer: cfg.WrongRedeemer,
			Context:  context(nft, DefaultTxInfoOptions()),
		},
	}
}
