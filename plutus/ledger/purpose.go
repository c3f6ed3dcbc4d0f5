package ledger

import (
	"github.com/wbrown/janus-plutus/plutus"
)

// Purpose tags. Nothing in the data model checks these; callers and the
// validator must agree on them.
const (
	PurposeSpending   int64 = 0
	PurposeMinting    int64 = 1
	PurposeRewarding  int64 = 2
	PurposeCertifying int64 = 3
)

// Purpose builds a script purpose with an explicit tag
func Purpose(tag int64, fields ...plutus.Data) (plutus.Constr, error) {
	return plutus.NewConstr(tag, fields...)
}

// MintingPurpose is Constr 1 [policy]
func MintingPurpose(policy plutus.Bytes) plutus.Constr {
	return plutus.MustConstr(PurposeMinting, policy)
}

// SpendingPurpose is Constr 0 [outRef]
func SpendingPurpose(ref plutus.Constr) plutus.Constr {
	return plutus.MustConstr(PurposeSpending, ref)
}

// ScriptContext is Constr 0 [txInfo, purpose]
func ScriptContext(txInfo plutus.Constr, purpose plutus.Constr) plutus.Constr {
	return plutus.MustConstr(0, txInfo, purpose)
}
