// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package secp256k1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeypairFromSeed(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	assert.NotEmpty(t, kp.PublicKey())
	assert.NotEmpty(t, kp.Address())
}

func TestNewKeypairFromString(t *testing.T) {
	kp, err := NewKeypairFromString("8e3785aa20927146c22ca9f6a76a923d3ac9c6e3f919b1e3bb6d0c71a5d6774f")
	require.NoError(t, err)
	assert.NotEqual(t, Alice().Address(), kp.Address())

	again, err := NewKeypairFromPrivateKey(kp.PrivateKey().D.FillBytes(make([]byte, PrivateKeyLength)))
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), again.Address())
}

func TestAccountIDPadsAddress(t *testing.T) {
	kp := Alice()

	id := kp.AccountID()
	assert.Equal(t, make([]byte, 12), id[:12])
	assert.Equal(t, kp.CommonAddress().Bytes(), id[12:])
	assert.NotEqual(t, Alice().AccountID(), Bob().AccountID())
}
