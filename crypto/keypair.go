// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
Package crypto provides the keypairs used to sign lane transactions.
The supported types are sr25519 (Substrate chains) and secp256k1 (EVM chains).

# Keypairs

Every Keypair exposes its address and public key. AccountID returns the 32
byte relayer account under which the chain records rewards for this key.
*/
package crypto

type KeyType = string

const Sr25519Type KeyType = "sr25519"
const Secp256k1Type KeyType = "secp256k1"

type Keypair interface {
	// Address provides the address for the keypair
	Address() string
	// PublicKey returns the keypair's public key an encoded a string
	PublicKey() string
	// AccountID returns the relayer account, EVM addresses left padded
	AccountID() [32]byte
}
