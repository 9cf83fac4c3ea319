// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/snowfork/lane-relayer/chain/lanes"
)

type HeaderID struct {
	Number uint64
	Hash   common.Hash
}

func (h HeaderID) String() string {
	return fmt.Sprintf("%d/%s", h.Number, h.Hash.Hex())
}

// TxID identifies a finalized submission.
type TxID struct {
	Hash      common.Hash
	BlockHash common.Hash
}

// StorageKey is a raw key in the chain's state, as accepted by its proof RPC.
type StorageKey []byte

type LaneReader interface {
	// OutboundLaneData reads the outbound lane at the given block, or at the
	// best block when at is nil.
	OutboundLaneData(ctx context.Context, lane lanes.LaneID, at *common.Hash) (*lanes.OutboundLaneData, error)
	InboundLaneData(ctx context.Context, lane lanes.LaneID, at *common.Hash) (*lanes.InboundLaneData, error)
	// OutboundMessages returns the messages with nonces in [begin, end], in nonce order.
	OutboundMessages(ctx context.Context, lane lanes.LaneID, begin, end uint64, at common.Hash) ([]lanes.Message, error)
}

type KeyBuilder interface {
	// MessageKeys are the keys proving one message with the given payload.
	MessageKeys(lane lanes.LaneID, nonce uint64, payload []byte) ([]StorageKey, error)
	OutboundLaneKey(lane lanes.LaneID) (StorageKey, error)
	InboundLaneKey(lane lanes.LaneID) (StorageKey, error)
}

type ProofReader interface {
	// ReadProof returns the trie nodes proving keys at the given block.
	ReadProof(ctx context.Context, keys []StorageKey, at common.Hash) ([][]byte, error)
}

type PayloadDecoder interface {
	DecodeMessagePayload(raw []byte) (*lanes.MessagePayload, error)
}

// Submitter signs and submits proofs, returning once the transaction is
// finalized.
type Submitter interface {
	SubmitMessagesProof(
		ctx context.Context,
		relayerAtSource lanes.AccountID,
		proof *lanes.MessagesProof,
		messagesCount uint32,
		dispatchWeight lanes.Weight,
	) (*TxID, error)
	SubmitDeliveryProof(
		ctx context.Context,
		proof *lanes.MessagesDeliveryProof,
		relayersState lanes.UnrewardedRelayersState,
	) (*TxID, error)
}

type FinalityReader interface {
	// BestFinalized returns this chain's own best finalized block.
	BestFinalized(ctx context.Context) (*HeaderID, error)
	// BestBridgedFinalized returns the newest header of the bridged chain
	// accepted by this chain's light client, or nil if there is none yet.
	BestBridgedFinalized(ctx context.Context) (*HeaderID, error)
}

// MessagesChain is everything the message relay needs from one side of a
// bridge. One implementation exists per chain family.
type MessagesChain interface {
	LaneReader
	KeyBuilder
	ProofReader
	PayloadDecoder
	Submitter
	FinalityReader

	Name() string
	// RelayerAccount is the account this relayer signs with on this chain.
	RelayerAccount() lanes.AccountID
	// Reconnect replaces a broken client connection.
	Reconnect(ctx context.Context) error
}
