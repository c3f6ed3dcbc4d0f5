package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-plutus/contracts"
	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/script"
)

const (
	policyHex = "14b249936a64cbc96bde5a46e04174e7fb58b565103d0c3a32f8d61f"
	nameHex   = "54657374546F6B656E"
)

func TestRunArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "missing NFT_POLICY_ID, NFT_NAME_HEX"},
		{"no name", []string{policyHex}, "missing NFT_NAME_HEX"},
		{"extra argument", []string{policyHex, nameHex, "00"}, "expected 2 arguments, got 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(&out, tt.args, contracts.MintValidator, "", "", false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errUsage))
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, out.Len())
		})
	}
}

func TestRunRejectsMalformedHex(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"xyz", nameHex}, contracts.MintValidator, "", "", false)
	assert.True(t, errors.Is(err, plutus.ErrMalformedInput), "got %v", err)
	assert.False(t, errors.Is(err, errUsage))
	assert.Zero(t, out.Len())
}

func TestRunPrintsArtifact(t *testing.T) {
	var out bytes.Buffer
	dbPath := filepath.Join(t.TempDir(), "artifacts")
	require.NoError(t, run(&out, []string{policyHex, nameHex}, contracts.MintValidator, "nft gated", dbPath, false))

	art, err := script.ParseArtifact(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, script.TypePlutusScriptV2, art.Type)
	assert.Equal(t, "nft gated", art.Description)
	assert.NotEmpty(t, art.CBORHex)
}
