// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package lanes

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/snowfork/go-substrate-rpc-client/v4/scale"
)

const LaneIDLength = 4

// LaneID names a logical channel between a source and a target chain.
type LaneID [LaneIDLength]byte

func (l LaneID) Hex() string {
	return "0x" + hex.EncodeToString(l[:])
}

func (l LaneID) String() string {
	return l.Hex()
}

// ParseLaneID accepts a hex string, with or without 0x prefix.
func ParseLaneID(s string) (LaneID, error) {
	var lane LaneID
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return lane, fmt.Errorf("decode lane id %q: %w", s, err)
	}
	if len(raw) != LaneIDLength {
		return lane, fmt.Errorf("lane id %q: expected %d bytes, got %d", s, LaneIDLength, len(raw))
	}
	copy(lane[:], raw)
	return lane, nil
}

// Direction of a lane task.
type Direction uint8

const (
	// Delivery moves messages from the source outbound lane to the target inbound lane.
	Delivery Direction = iota
	// Confirmation proves delivery back to the source chain.
	Confirmation
)

func (d Direction) String() string {
	switch d {
	case Delivery:
		return "delivery"
	case Confirmation:
		return "confirmation"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// AccountID is a relayer account, 32 bytes wide on every chain family.
// EVM addresses are left padded with zeros.
type AccountID [32]byte

func AccountIDFromAddress(address common.Address) AccountID {
	var id AccountID
	copy(id[12:], address[:])
	return id
}

func (a AccountID) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// OutboundLaneData is the source-side lane ledger.
type OutboundLaneData struct {
	OldestUnprunedNonce  uint64
	LatestReceivedNonce  uint64
	LatestGeneratedNonce uint64
}

// Valid checks latest_received_nonce <= latest_generated_nonce.
func (d *OutboundLaneData) Valid() bool {
	return d.LatestReceivedNonce <= d.LatestGeneratedNonce
}

// DeliveredMessages is an inclusive nonce range.
type DeliveredMessages struct {
	Begin uint64
	End   uint64
}

// Len returns the number of nonces in the range, 0 if the range is degenerate.
func (m DeliveredMessages) Len() uint64 {
	if m.End < m.Begin {
		return 0
	}
	return m.End - m.Begin + 1
}

type UnrewardedRelayer struct {
	Relayer  AccountID
	Messages DeliveredMessages
}

// InboundLaneData is the target-side lane ledger. Field order follows the
// on-chain encoding.
type InboundLaneData struct {
	Relayers           []UnrewardedRelayer
	LastConfirmedNonce uint64
}

// Valid checks that unrewarded entries are non-empty, ascending and past the
// last confirmed nonce.
func (d *InboundLaneData) Valid() bool {
	last := d.LastConfirmedNonce
	for _, relayer := range d.Relayers {
		if relayer.Messages.Begin <= last || relayer.Messages.End < relayer.Messages.Begin {
			return false
		}
		last = relayer.Messages.End
	}
	return true
}

// LastDeliveredNonce is the end of the newest unrewarded entry, or the last
// confirmed nonce when nothing is waiting for confirmation.
func (d *InboundLaneData) LastDeliveredNonce() uint64 {
	if len(d.Relayers) == 0 {
		return d.LastConfirmedNonce
	}
	return d.Relayers[len(d.Relayers)-1].Messages.End
}

// UnrewardedRelayersState summarises the unrewarded window of an inbound lane.
type UnrewardedRelayersState struct {
	UnrewardedRelayerEntries uint64
	MessagesInOldestEntry    uint64
	TotalMessages            uint64
}

// RelayersState computes the unrewarded window. An empty window yields
// {0, 0, 0}; a window whose back end precedes its front begin counts as
// zero messages.
func (d *InboundLaneData) RelayersState() UnrewardedRelayersState {
	if len(d.Relayers) == 0 {
		return UnrewardedRelayersState{}
	}

	front := d.Relayers[0].Messages
	back := d.Relayers[len(d.Relayers)-1].Messages

	var total uint64
	if back.End >= front.Begin {
		total = back.End - front.Begin + 1
	}

	return UnrewardedRelayersState{
		UnrewardedRelayerEntries: uint64(len(d.Relayers)),
		MessagesInOldestEntry:    front.Len(),
		TotalMessages:            total,
	}
}

// MessageKey identifies a message in the outbound lane storage.
type MessageKey struct {
	LaneID LaneID
	Nonce  uint64
}

// Message is an outbound message as stored on the source chain.
type Message struct {
	Key     MessageKey
	Payload []byte
}

// Weight is a two dimensional dispatch weight.
type Weight struct {
	RefTime   uint64
	ProofSize uint64
}

// Add sums two weights, saturating at the maximum.
func (w Weight) Add(other Weight) Weight {
	return Weight{
		RefTime:   saturatingAdd(w.RefTime, other.RefTime),
		ProofSize: saturatingAdd(w.ProofSize, other.ProofSize),
	}
}

func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func (w Weight) Encode(encoder scale.Encoder) error {
	err := encoder.EncodeUintCompact(*new(big.Int).SetUint64(w.RefTime))
	if err != nil {
		return err
	}
	return encoder.EncodeUintCompact(*new(big.Int).SetUint64(w.ProofSize))
}

func (w *Weight) Decode(decoder scale.Decoder) error {
	decoded, err := decoder.DecodeUintCompact()
	if err != nil {
		return err
	}
	w.RefTime = decoded.Uint64()
	decoded, err = decoder.DecodeUintCompact()
	if err != nil {
		return err
	}
	w.ProofSize = decoded.Uint64()
	return nil
}

// MessagePayload is the decoded content of a message.
type MessagePayload struct {
	SourceAccount AccountID
	TargetAccount AccountID
	Weight        Weight
	Call          []byte
}

// MessagesProof proves a nonce range of an outbound lane.
type MessagesProof struct {
	BridgedHeaderHash common.Hash
	StorageProof      [][]byte
	Lane              LaneID
	NoncesStart       uint64
	NoncesEnd         uint64
}

// MessagesDeliveryProof proves the inbound lane state of the target chain.
type MessagesDeliveryProof struct {
	BridgedHeaderHash common.Hash
	StorageProof      [][]byte
	Lane              LaneID
}

func (p *MessagesProof) Size() int {
	return proofSize(p.StorageProof)
}

func (p *MessagesDeliveryProof) Size() int {
	return proofSize(p.StorageProof)
}

func proofSize(nodes [][]byte) int {
	size := 0
	for _, node := range nodes {
		size += len(node)
	}
	return size
}
