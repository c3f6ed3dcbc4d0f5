// Package ledger builds the minimal ledger shapes needed to exercise a
// validator: multi-asset bundles, transaction inputs and outputs, the
// transaction info record, script purposes and the script context.
//
// Field counts and orders are fixed here; the data model itself does not
// check them.
package ledger

import (
	"github.com/wbrown/janus-plutus/plutus"
)

// Asset is one entry of a multi-asset bundle
type Asset struct {
	Policy   plutus.Bytes
	Name     plutus.Bytes
	Quantity int64
}

// Assets builds the nested bundle map policy -> (name -> quantity).
// Entries are grouped by policy; policies keep the order in which they first
// appear and names keep their order within a policy.
func Assets(entries ...Asset) plutus.Map {
	type group struct {
		policy plutus.Bytes
		names  []plutus.Pair
	}

	var groups []*group
	for _, e := range entries {
		var g *group
		for _, existing := range groups {
			if plutus.Equal(existing.policy, e.Policy) {
				g = existing
				break
			}
		}
		if g == nil {
			g = &group{policy: e.Policy}
			groups = append(groups, g)
		}
		g.names = append(g.names, plutus.Pair{Key: e.Name, Value: plutus.NewInt(e.Quantity)})
	}

	outer := make([]plutus.Pair, len(groups))
	for i, g := range groups {
		outer[i] = plutus.Pair{Key: g.policy, Value: plutus.NewMap(g.names...)}
	}
	return plutus.NewMap(outer...)
}

// SingleAsset is the singleton bundle {policy: {name: quantity}}
func SingleAsset(policy, name plutus.Bytes, quantity int64) plutus.Map {
	return Assets(Asset{Policy: policy, Name: name, Quantity: quantity})
}

// NoAssets is the empty bundle
func NoAssets() plutus.Map {
	return plutus.NewMap()
}
