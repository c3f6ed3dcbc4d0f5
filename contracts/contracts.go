// Package contracts embeds the template sources shipped with the tools.
package contracts

import (
	_ "embed"
)

// MintValidator is the NFT-gated minting policy template. Its parameters are
// minting_policy::NFT_POLICY and minting_policy::NFT_NAME.
//
//go:embed mint_validator.edn
var MintValidator string

// Parameter names of MintValidator
const (
	ParamNFTPolicy = "minting_policy::NFT_POLICY"
	ParamNFTName   = "minting_policy::NFT_NAME"
)

// Redeemer is the redeemer value MintValidator accepts
const Redeemer = 4
