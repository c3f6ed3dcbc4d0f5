package ledger

import (
	"bytes"

	"github.com/wbrown/janus-plutus/plutus"
)

var (
	// placeholderTxID is the id of the single spent output
	placeholderTxID = plutus.NewBytes(bytes.Repeat([]byte{0xaa}, 32))

	// placeholderAddress stands in for a real address
	placeholderAddress = plutus.NewBytes([]byte{1})
)

// OutRef references a transaction output: Constr 0 [txId, index]
func OutRef(txID plutus.Bytes, index int64) plutus.Constr {
	return plutus.MustConstr(0, txID, plutus.NewInt(index))
}

// TxOut is the minimal output shape: Constr 0 [address, value, datum]
func TxOut(value plutus.Data) plutus.Constr {
	return plutus.MustConstr(0, placeholderAddress, value, plutus.NewInt(0))
}

// TxIn pairs an output reference with the output it resolves to:
// Constr 0 [outRef, txOut]
func TxIn(ref plutus.Constr, out plutus.Constr) plutus.Constr {
	return plutus.MustConstr(0, ref, out)
}

// TxInfoOptions control how TxInfo places the asset bundle.
// Each toggle affects exactly one field so a failing scenario can be
// attributed to it.
type TxInfoOptions struct {
	// OmitAssetFromInput puts an empty bundle in the spent output
	OmitAssetFromInput bool
	// OmitAssetFromOutput puts an empty bundle in the created output
	OmitAssetFromOutput bool
	// ValidFrom and ValidTo bound the validity interval
	ValidFrom int64
	ValidTo   int64
}

// DefaultTxInfoOptions keeps the bundle in both input and output
func DefaultTxInfoOptions() TxInfoOptions {
	return TxInfoOptions{
		ValidFrom: 0,
		ValidTo:   1000,
	}
}

// Field positions inside the TxInfo constructor
const (
	TxInfoInputs = iota
	TxInfoReferenceInputs
	TxInfoOutputs
	TxInfoFee
	TxInfoMint
	TxInfoCertificates
	TxInfoWithdrawals
	TxInfoValidRange
)

// TxInfo builds the transaction info record:
//
//	Constr 0 [inputs, referenceInputs, outputs, fee, mint,
//	          certificates, withdrawals, validRange]
//
// value is placed in the single input, the single output and the mint field.
func TxInfo(value plutus.Map, opts TxInfoOptions) plutus.Constr {
	inValue, outValue := value, value
	if opts.OmitAssetFromInput {
		inValue = NoAssets()
	}
	if opts.OmitAssetFromOutput {
		outValue = NoAssets()
	}

	inputs := plutus.NewList(TxIn(OutRef(placeholderTxID, 0), TxOut(inValue)))
	referenceInputs := plutus.NewList()
	outputs := plutus.NewList(TxOut(outValue))
	fee := NoAssets()
	certificates := plutus.NewList()
	withdrawals := plutus.NewMap()
	validRange := plutus.MustConstr(0, plutus.NewInt(opts.ValidFrom), plutus.NewInt(opts.ValidTo))

	return plutus.MustConstr(0,
		inputs,
		referenceInputs,
		outputs,
		fee,
		value,
		certificates,
		withdrawals,
		validRange,
	)
}
