// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package parachain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/snowfork/go-substrate-rpc-client/v4/types"

	"github.com/snowfork/lane-relayer/chain"
	"github.com/snowfork/lane-relayer/chain/lanes"
	"github.com/snowfork/lane-relayer/config"

	log "github.com/sirupsen/logrus"
)

type MessagesConfig struct {
	config.ParachainConfig `mapstructure:",squash"`
	// Name of the bridge messages pallet instance, e.g. BridgeRococoMessages
	MessagesPallet string `mapstructure:"messages-pallet"`
	// Name of the bridged chain finality pallet instance, e.g. BridgeRococoGrandpa
	FinalityPallet string `mapstructure:"finality-pallet"`
}

func (c MessagesConfig) Validate() error {
	err := c.ParachainConfig.Validate()
	if err != nil {
		return err
	}
	if c.MessagesPallet == "" {
		return fmt.Errorf("messages-pallet is not set")
	}
	if c.FinalityPallet == "" {
		return fmt.Errorf("finality-pallet is not set")
	}
	return nil
}

var _ chain.MessagesChain = &MessagesClient{}

// MessagesClient implements the message relay capabilities for
// Substrate-based chains running the bridge messages pallet.
type MessagesClient struct {
	name   string
	config *MessagesConfig
	conn   *Connection
	writer *ParachainWriter
}

func NewMessagesClient(name string, config *MessagesConfig, conn *Connection) *MessagesClient {
	return &MessagesClient{
		name:   name,
		config: config,
		conn:   conn,
		writer: NewParachainWriter(
			conn,
			config.MaxWatchedExtrinsics,
			config.MortalEraPeriod,
			time.Duration(config.FinalityTimeout)*time.Second,
		),
	}
}

func (mc *MessagesClient) Start(ctx context.Context) error {
	err := mc.conn.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", mc.name, err)
	}
	if mc.conn.Keypair() == nil {
		return nil
	}
	return mc.writer.Start(ctx)
}

func (mc *MessagesClient) Name() string {
	return mc.name
}

func (mc *MessagesClient) RelayerAccount() lanes.AccountID {
	var id lanes.AccountID
	if mc.conn.Keypair() != nil {
		copy(id[:], mc.conn.Keypair().PublicKey)
	}
	return id
}

func (mc *MessagesClient) Reconnect(ctx context.Context) error {
	err := mc.conn.Reconnect(ctx)
	if err != nil {
		return err
	}
	if mc.conn.Keypair() == nil {
		return nil
	}
	return mc.writer.Start(ctx)
}

func (mc *MessagesClient) Close() {
	mc.conn.Close()
}

func (mc *MessagesClient) OutboundLaneKey(lane lanes.LaneID) (chain.StorageKey, error) {
	return mc.storageKey("OutboundLanes", lane[:])
}

func (mc *MessagesClient) InboundLaneKey(lane lanes.LaneID) (chain.StorageKey, error) {
	return mc.storageKey("InboundLanes", lane[:])
}

// MessageKeys is the single OutboundMessages entry; the payload lives in the
// trie value.
func (mc *MessagesClient) MessageKeys(lane lanes.LaneID, nonce uint64, _ []byte) ([]chain.StorageKey, error) {
	key, err := mc.messageKey(lane, nonce)
	if err != nil {
		return nil, err
	}
	return []chain.StorageKey{key}, nil
}

func (mc *MessagesClient) messageKey(lane lanes.LaneID, nonce uint64) (chain.StorageKey, error) {
	encoded, err := types.EncodeToBytes(lanes.MessageKey{LaneID: lane, Nonce: nonce})
	if err != nil {
		return nil, fmt.Errorf("encode message key: %w", err)
	}
	return mc.storageKey("OutboundMessages", encoded)
}

func (mc *MessagesClient) storageKey(item string, arg []byte) (chain.StorageKey, error) {
	key, err := types.CreateStorageKey(mc.conn.Metadata(), mc.config.MessagesPallet, item, arg)
	if err != nil {
		return nil, fmt.Errorf("create storage key for %s.%s: %w", mc.config.MessagesPallet, item, err)
	}
	return chain.StorageKey(key), nil
}

func (mc *MessagesClient) OutboundLaneData(_ context.Context, lane lanes.LaneID, at *common.Hash) (*lanes.OutboundLaneData, error) {
	key, err := mc.OutboundLaneKey(lane)
	if err != nil {
		return nil, err
	}

	var data lanes.OutboundLaneData
	_, err = mc.conn.GetStorage(types.StorageKey(key), &data, toHash(at))
	if err != nil {
		return nil, fmt.Errorf("fetch %s.OutboundLanes(%s): %w", mc.config.MessagesPallet, lane, err)
	}

	// A missing entry decodes to the default, empty lane.
	return &data, nil
}

func (mc *MessagesClient) InboundLaneData(_ context.Context, lane lanes.LaneID, at *common.Hash) (*lanes.InboundLaneData, error) {
	key, err := mc.InboundLaneKey(lane)
	if err != nil {
		return nil, err
	}

	var data lanes.InboundLaneData
	_, err = mc.conn.GetStorage(types.StorageKey(key), &data, toHash(at))
	if err != nil {
		return nil, fmt.Errorf("fetch %s.InboundLanes(%s): %w", mc.config.MessagesPallet, lane, err)
	}

	return &data, nil
}

func (mc *MessagesClient) OutboundMessages(
	_ context.Context,
	lane lanes.LaneID,
	begin, end uint64,
	at common.Hash,
) ([]lanes.Message, error) {
	if end < begin {
		return nil, nil
	}

	messages := make([]lanes.Message, 0, end-begin+1)
	hash := types.Hash(at)
	for nonce := begin; nonce <= end; nonce++ {
		key, err := mc.messageKey(lane, nonce)
		if err != nil {
			return nil, err
		}

		var payload types.Bytes
		ok, err := mc.conn.GetStorage(types.StorageKey(key), &payload, &hash)
		if err != nil {
			return nil, fmt.Errorf("fetch %s.OutboundMessages(%s, %d): %w", mc.config.MessagesPallet, lane, nonce, err)
		}
		if !ok {
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
	var payload lanes.MessagePayload
	err := types.DecodeFromBytes(raw, &payload)
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

type readProofResponse struct {
	At    string   `json:"at"`
	Proof []string `json:"proof"`
}

func (mc *MessagesClient) ReadProof(_ context.Context, keys []chain.StorageKey, at common.Hash) ([][]byte, error) {
	hexKeys := make([]string, len(keys))
	for i, key := range keys {
		hexKeys[i] = hexutil.Encode(key)
	}

	var response readProofResponse
	err := mc.conn.API().Client.Call(&response, "state_getReadProof", hexKeys, at.Hex())
	if err != nil {
		return nil, fmt.Errorf("state_getReadProof at %s: %w", at.Hex(), err)
	}

	nodes := make([][]byte, len(response.Proof))
	for i, node := range response.Proof {
		nodes[i], err = hexutil.Decode(node)
		if err != nil {
			return nil, fmt.Errorf("decode proof node %d: %w", i, err)
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

func (mc *MessagesClient) BestFinalized(_ context.Context) (*chain.HeaderID, error) {
	hash, header, err := mc.conn.GetFinalizedHeader()
	if err != nil {
		return nil, fmt.Errorf("fetch finalized header: %w", err)
	}
	return &chain.HeaderID{
		Number: uint64(header.Number),
		Hash:   common.Hash(hash),
	}, nil
}

// bridgedHeaderID is the encoding of bp_runtime::HeaderId: number first.
type bridgedHeaderID struct {
	Number types.U32
	Hash   types.H256
}

func (mc *MessagesClient) BestBridgedFinalized(_ context.Context) (*chain.HeaderID, error) {
	key, err := types.CreateStorageKey(mc.conn.Metadata(), mc.config.FinalityPallet, "BestFinalized", nil)
	if err != nil {
		return nil, fmt.Errorf("create storage key for %s.BestFinalized: %w", mc.config.FinalityPallet, err)
	}

	var best bridgedHeaderID
	ok, err := mc.conn.GetStorage(key, &best, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s.BestFinalized: %w", mc.config.FinalityPallet, err)
	}
	if !ok {
		return nil, nil
	}

	return &chain.HeaderID{
		Number: uint64(best.Number),
		Hash:   common.Hash(best.Hash),
	}, nil
}

func (mc *MessagesClient) SubmitMessagesProof(
	ctx context.Context,
	relayerAtSource lanes.AccountID,
	proof *lanes.MessagesProof,
	messagesCount uint32,
	dispatchWeight lanes.Weight,
) (*chain.TxID, error) {
	return mc.writer.WriteToParachainAndWatch(
		ctx,
		mc.config.MessagesPallet+".receive_messages_proof",
		relayerAtSource,
		*proof,
		types.NewU32(messagesCount),
		dispatchWeight,
	)
}

func (mc *MessagesClient) SubmitDeliveryProof(
	ctx context.Context,
	proof *lanes.MessagesDeliveryProof,
	relayersState lanes.UnrewardedRelayersState,
) (*chain.TxID, error) {
	return mc.writer.WriteToParachainAndWatch(
		ctx,
		mc.config.MessagesPallet+".receive_messages_delivery_proof",
		*proof,
		relayersState,
	)
}

func toHash(at *common.Hash) *types.Hash {
	if at == nil {
		return nil
	}
	hash := types.Hash(*at)
	return &hash
}
