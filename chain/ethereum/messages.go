// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	goEthereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/snowfork/lane-relayer/chain"
	"github.com/snowfork/lane-relayer/chain/lanes"
	"github.com/snowfork/lane-relayer/config"
	"github.com/snowfork/lane-relayer/contracts"

	log "github.com/sirupsen/logrus"
)

type MessagesConfig struct {
	config.EthereumConfig `mapstructure:",squash"`
	// Address of the lane contract
	Contract string `mapstructure:"contract"`
	// Storage slots of the contract mappings, from the solc storage layout
	OutboundLanesSlot uint64 `mapstructure:"outbound-lanes-slot"`
	InboundLanesSlot  uint64 `mapstructure:"inbound-lanes-slot"`
	MessagesSlot      uint64 `mapstructure:"messages-slot"`
}

func (c MessagesConfig) Validate() error {
	err := c.EthereumConfig.Validate()
	if err != nil {
		return err
	}
	if !common.IsHexAddress(c.Contract) {
		return fmt.Errorf("contract %q is not a valid address", c.Contract)
	}
	return nil
}

var payloadArguments = mustPayloadArguments()

// Message payloads are ABI encoded as (bytes32,bytes32,uint64,uint64,bytes).
func mustPayloadArguments() abi.Arguments {
	bytes32, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	uint64Ty, err := abi.NewType("uint64", "", nil)
	if err != nil {
		panic(err)
	}
	bytesTy, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "sourceAccount", Type: bytes32},
		{Name: "targetAccount", Type: bytes32},
		{Name: "refTime", Type: uint64Ty},
		{Name: "proofSize", Type: uint64Ty},
		{Name: "call", Type: bytesTy},
	}
}

var _ chain.MessagesChain = &MessagesClient{}

// MessagesClient implements the message relay capabilities for EVM chains
// hosting the lane contract.
type MessagesClient struct {
	name     string
	config   *MessagesConfig
	conn     *Connection
	address  common.Address
	// rebound on Reconnect
	contract atomic.Pointer[contracts.MessagesLane]
	// serializes nonce assignment of outgoing transactions
	sendMu sync.Mutex
}

func NewMessagesClient(name string, config *MessagesConfig, conn *Connection) *MessagesClient {
	return &MessagesClient{
		name:    name,
		config:  config,
		conn:    conn,
		address: common.HexToAddress(config.Contract),
	}
}

func (mc *MessagesClient) Start(ctx context.Context) error {
	err := mc.conn.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", mc.name, err)
	}
	return mc.bind()
}

func (mc *MessagesClient) bind() error {
	contract, err := contracts.NewMessagesLane(mc.address, mc.conn.Client())
	if err != nil {
		return fmt.Errorf("bind lane contract %s: %w", mc.address.Hex(), err)
	}
	mc.contract.Store(contract)
	return nil
}

func (mc *MessagesClient) Close() {
	mc.conn.Close()
}

func (mc *MessagesClient) Name() string {
	return mc.name
}

func (mc *MessagesClient) RelayerAccount() lanes.AccountID {
	if mc.conn.Keypair() == nil {
		return lanes.AccountID{}
	}
	return lanes.AccountID(mc.conn.Keypair().AccountID())
}

func (mc *MessagesClient) Reconnect(ctx context.Context) error {
	err := mc.conn.Reconnect(ctx)
	if err != nil {
		return err
	}
	return mc.bind()
}

// laneSlot is the base slot of mapping(bytes4 => ...) entry lane.
func laneSlot(lane lanes.LaneID, slot uint64) common.Hash {
	return crypto.Keccak256Hash(
		common.RightPadBytes(lane[:], 32),
		common.LeftPadBytes(new(big.Int).SetUint64(slot).Bytes(), 32),
	)
}

func (mc *MessagesClient) OutboundLaneKey(lane lanes.LaneID) (chain.StorageKey, error) {
	return laneSlot(lane, mc.config.OutboundLanesSlot).Bytes(), nil
}

func (mc *MessagesClient) InboundLaneKey(lane lanes.LaneID) (chain.StorageKey, error) {
	return laneSlot(lane, mc.config.InboundLanesSlot).Bytes(), nil
}

// messageSlot is the slot of messages[lane][nonce] in a
// mapping(bytes4 => mapping(uint64 => bytes)).
func (mc *MessagesClient) messageSlot(lane lanes.LaneID, nonce uint64) common.Hash {
	inner := laneSlot(lane, mc.config.MessagesSlot)
	return crypto.Keccak256Hash(
		common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 32),
		inner.Bytes(),
	)
}

// MessageKeys proves a bytes value under the solc layout. Values shorter than
// 32 bytes share the slot with their length. Longer values keep only the
// length there and their content in consecutive words from keccak256(slot).
func (mc *MessagesClient) MessageKeys(lane lanes.LaneID, nonce uint64, payload []byte) ([]chain.StorageKey, error) {
	slot := mc.messageSlot(lane, nonce)
	keys := []chain.StorageKey{slot.Bytes()}
	if len(payload) < 32 {
		return keys, nil
	}

	data := new(big.Int).SetBytes(crypto.Keccak256(slot.Bytes()))
	words := (len(payload) + 31) / 32
	for i := 0; i < words; i++ {
		word := new(big.Int).Add(data, big.NewInt(int64(i)))
		word.And(word, maxSlot)
		keys = append(keys, common.BigToHash(word).Bytes())
	}
	return keys, nil
}

// Slot arithmetic wraps modulo 2^256.
var maxSlot = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func (mc *MessagesClient) callOpts(ctx context.Context, at *common.Hash) (*bind.CallOpts, error) {
	opts := bind.CallOpts{Context: ctx}
	if at == nil {
		return &opts, nil
	}
	header, err := mc.conn.Client().HeaderByHash(ctx, *at)
	if err != nil {
		return nil, fmt.Errorf("fetch header %s: %w", at.Hex(), err)
	}
	opts.BlockNumber = header.Number
	return &opts, nil
}

func (mc *MessagesClient) OutboundLaneData(ctx context.Context, lane lanes.LaneID, at *common.Hash) (*lanes.OutboundLaneData, error) {
	opts, err := mc.callOpts(ctx, at)
	if err != nil {
		return nil, err
	}
	data, err := mc.contract.Load().OutboundLaneData(opts, lane)
	if err != nil {
		return nil, fmt.Errorf("call outboundLaneData(%s): %w", lane, err)
	}
	return &lanes.OutboundLaneData{
		OldestUnprunedNonce:  data.OldestUnprunedNonce,
		LatestReceivedNonce:  data.LatestReceivedNonce,
		LatestGeneratedNonce: data.LatestGeneratedNonce,
	}, nil
}

func (mc *MessagesClient) InboundLaneData(ctx context.Context, lane lanes.LaneID, at *common.Hash) (*lanes.InboundLaneData, error) {
	opts, err := mc.callOpts(ctx, at)
	if err != nil {
		return nil, err
	}
	data, err := mc.contract.Load().InboundLaneData(opts, lane)
	if err != nil {
		return nil, fmt.Errorf("call inboundLaneData(%s): %w", lane, err)
	}

	relayers := make([]lanes.UnrewardedRelayer, len(data.Relayers))
	for i, r := range data.Relayers {
		relayers[i] = lanes.UnrewardedRelayer{
			Relayer:  lanes.AccountID(r.Relayer),
			Messages: lanes.DeliveredMessages{Begin: r.Begin, End: r.End},
		}
	}

	return &lanes.InboundLaneData{
		Relayers:           relayers,
		LastConfirmedNonce: data.LastConfirmedNonce,
	}, nil
}

func (mc *MessagesClient) OutboundMessages(
	ctx context.Context,
	lane lanes.LaneID,
	begin, end uint64,
	at common.Hash,
) ([]lanes.Message, error) {
	if end < begin {
		return nil, nil
	}

	opts, err := mc.callOpts(ctx, &at)
	if err != nil {
		return nil, err
	}

	messages := make([]lanes.Message, 0, end-begin+1)
	for nonce := begin; nonce <= end; nonce++ {
		payload, err := mc.contract.Load().OutboundMessage(opts, lane, nonce)
		if err != nil {
			return nil, fmt.Errorf("call outboundMessage(%s, %d): %w", lane, nonce, err)
		}
		if len(payload) == 0 {
			return nil, fmt.Errorf("message %d of lane %s not found at block %s", nonce, lane, at.Hex())
		}
		messages = append(messages, lanes.Message{
			Key:     lanes.MessageKey{LaneID: lane, Nonce: nonce},
			Payload: payload,
		})
	}

	return messages, nil
}

func (mc *MessagesClient) DecodeMessagePayload(raw []byte) (*lanes.MessagePayload, error) {
	values, err := payloadArguments.Unpack(raw)
	if err != nil {
		return nil, err
	}
	if len(values) != len(payloadArguments) {
		return nil, fmt.Errorf("expected %d payload fields, got %d", len(payloadArguments), len(values))
	}

	return &lanes.MessagePayload{
		SourceAccount: lanes.AccountID(*abi.ConvertType(values[0], new([32]byte)).(*[32]byte)),
		TargetAccount: lanes.AccountID(*abi.ConvertType(values[1], new([32]byte)).(*[32]byte)),
		Weight: lanes.Weight{
			RefTime:   *abi.ConvertType(values[2], new(uint64)).(*uint64),
			ProofSize: *abi.ConvertType(values[3], new(uint64)).(*uint64),
		},
		Call: *abi.ConvertType(values[4], new([]byte)).(*[]byte),
	}, nil
}

// ReadProof returns the account proof of the lane contract followed by the
// storage proofs of keys, without duplicate nodes.
func (mc *MessagesClient) ReadProof(ctx context.Context, keys []chain.StorageKey, at common.Hash) ([][]byte, error) {
	header, err := mc.conn.Client().HeaderByHash(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("fetch header %s: %w", at.Hex(), err)
	}

	hexKeys := make([]string, len(keys))
	for i, key := range keys {
		hexKeys[i] = hexutil.Encode(key)
	}

	result, err := mc.conn.Geth().GetProof(ctx, mc.address, hexKeys, header.Number)
	if err != nil {
		return nil, fmt.Errorf("eth_getProof at %s: %w", at.Hex(), err)
	}

	var nodes [][]byte
	seen := make(map[string]struct{})
	add := func(encoded []string) error {
		for _, node := range encoded {
			if _, ok := seen[node]; ok {
				continue
			}
			seen[node] = struct{}{}
			decoded, err := hexutil.Decode(node)
			if err != nil {
				return fmt.Errorf("decode proof node: %w", err)
			}
			nodes = append(nodes, decoded)
		}
		return nil
	}

	err = add(result.AccountProof)
	if err != nil {
		return nil, err
	}
	for _, storage := range result.StorageProof {
		err = add(storage.Proof)
		if err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"chain": mc.name,
		"keys":  len(keys),
		"nodes": len(nodes),
		"at":    at.Hex(),
	}).Trace("Read storage proof")

	return nodes, nil
}

func (mc *MessagesClient) BestFinalized(ctx context.Context) (*chain.HeaderID, error) {
	header, err := mc.conn.FinalizedHeader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch finalized header: %w", err)
	}
	return &chain.HeaderID{
		Number: header.Number.Uint64(),
		Hash:   header.Hash(),
	}, nil
}

func (mc *MessagesClient) BestBridgedFinalized(ctx context.Context) (*chain.HeaderID, error) {
	header, err := mc.contract.Load().BestFinalizedBridgedHeader(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("call bestFinalizedBridgedHeader: %w", err)
	}
	if header.Number == 0 && header.Hash == (common.Hash{}) {
		return nil, nil
	}
	return &chain.HeaderID{Number: header.Number, Hash: header.Hash}, nil
}

func (mc *MessagesClient) SubmitMessagesProof(
	ctx context.Context,
	relayerAtSource lanes.AccountID,
	proof *lanes.MessagesProof,
	messagesCount uint32,
	dispatchWeight lanes.Weight,
) (*chain.TxID, error) {
	relayer := [32]byte(relayerAtSource)
	messagesProof := contracts.LaneMessagesProof{
		BridgedHeaderHash: proof.BridgedHeaderHash,
		StorageProof:      proof.StorageProof,
		Lane:              proof.Lane,
		NoncesStart:       proof.NoncesStart,
		NoncesEnd:         proof.NoncesEnd,
	}
	weight := contracts.LaneWeight{
		RefTime:   dispatchWeight.RefTime,
		ProofSize: dispatchWeight.ProofSize,
	}

	args := []interface{}{relayer, messagesProof, messagesCount, weight}
	return mc.submit(ctx, "receiveMessagesProof", args, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return mc.contract.Load().ReceiveMessagesProof(opts, relayer, messagesProof, messagesCount, weight)
	})
}

func (mc *MessagesClient) SubmitDeliveryProof(
	ctx context.Context,
	proof *lanes.MessagesDeliveryProof,
	relayersState lanes.UnrewardedRelayersState,
) (*chain.TxID, error) {
	deliveryProof := contracts.LaneDeliveryProof{
		BridgedHeaderHash: proof.BridgedHeaderHash,
		StorageProof:      proof.StorageProof,
		Lane:              proof.Lane,
	}
	state := contracts.LaneRelayersState{
		UnrewardedRelayerEntries: relayersState.UnrewardedRelayerEntries,
		MessagesInOldestEntry:    relayersState.MessagesInOldestEntry,
		TotalMessages:            relayersState.TotalMessages,
	}

	args := []interface{}{deliveryProof, state}
	return mc.submit(ctx, "receiveMessagesDeliveryProof", args, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return mc.contract.Load().ReceiveMessagesDeliveryProof(opts, deliveryProof, state)
	})
}

func (mc *MessagesClient) submit(
	ctx context.Context,
	method string,
	args []interface{},
	send func(opts *bind.TransactOpts) (*types.Transaction, error),
) (*chain.TxID, error) {
	if mc.conn.Keypair() == nil {
		return nil, fmt.Errorf("%s: no signing key configured for %s", method, mc.name)
	}

	tx, err := mc.send(ctx, method, args, send)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"chain":  mc.name,
		"method": method,
		"txHash": tx.Hash().Hex(),
		"nonce":  tx.Nonce(),
	})
	logger.Info("Sent transaction")

	receipt, err := mc.conn.WatchTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	logger.WithField("block", receipt.BlockHash.Hex()).Debug("Transaction finalized")

	return &chain.TxID{Hash: tx.Hash(), BlockHash: receipt.BlockHash}, nil
}

func (mc *MessagesClient) send(
	ctx context.Context,
	method string,
	args []interface{},
	send func(opts *bind.TransactOpts) (*types.Transaction, error),
) (*types.Transaction, error) {
	mc.sendMu.Lock()
	defer mc.sendMu.Unlock()

	opts := mc.conn.MakeTxOpts(ctx)

	if opts.GasLimit == 0 {
		parsed, err := contracts.MessagesLaneMetaData.GetAbi()
		if err != nil {
			return nil, err
		}
		data, err := parsed.Pack(method, args...)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		gas, err := mc.conn.Client().EstimateGas(ctx, goEthereum.CallMsg{
			From: opts.From,
			To:   &mc.address,
			Data: data,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas for %s: %w", method, err)
		}
		opts.GasLimit = gas * (100 + mc.config.GasMargin) / 100
	}

	tx, err := send(opts)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}
	return tx, nil
}
