package messages

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/snowfork/lane-relayer/chain"
	"github.com/snowfork/lane-relayer/chain/lanes"
)

type mockChain struct {
	mock.Mock
	name string
}

var _ chain.MessagesChain = &mockChain{}

func newMockChain(name string) *mockChain {
	return &mockChain{name: name}
}

func (m *mockChain) Name() string {
	return m.name
}

func (m *mockChain) RelayerAccount() lanes.AccountID {
	return lanes.AccountID{0xaa}
}

func (m *mockChain) Reconnect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockChain) OutboundLaneData(ctx context.Context, lane lanes.LaneID, at *common.Hash) (*lanes.OutboundLaneData, error) {
	args := m.Called(ctx, lane, at)
	data, _ := args.Get(0).(*lanes.OutboundLaneData)
	return data, args.Error(1)
}

func (m *mockChain) InboundLaneData(ctx context.Context, lane lanes.LaneID, at *common.Hash) (*lanes.InboundLaneData, error) {
	args := m.Called(ctx, lane, at)
	data, _ := args.Get(0).(*lanes.InboundLaneData)
	return data, args.Error(1)
}

func (m *mockChain) OutboundMessages(ctx context.Context, lane lanes.LaneID, begin, end uint64, at common.Hash) ([]lanes.Message, error) {
	args := m.Called(ctx, lane, begin, end, at)
	messages, _ := args.Get(0).([]lanes.Message)
	return messages, args.Error(1)
}

// Keys are derived locally so tests can predict them.
func (m *mockChain) MessageKeys(lane lanes.LaneID, nonce uint64, _ []byte) ([]chain.StorageKey, error) {
	return []chain.StorageKey{append(append([]byte("msg"), lane[:]...), byte(nonce))}, nil
}

func (m *mockChain) OutboundLaneKey(lane lanes.LaneID) (chain.StorageKey, error) {
	return chain.StorageKey(append([]byte("out"), lane[:]...)), nil
}

func (m *mockChain) InboundLaneKey(lane lanes.LaneID) (chain.StorageKey, error) {
	return chain.StorageKey(append([]byte("in"), lane[:]...)), nil
}

func (m *mockChain) ReadProof(ctx context.Context, keys []chain.StorageKey, at common.Hash) ([][]byte, error) {
	args := m.Called(ctx, keys, at)
	nodes, _ := args.Get(0).([][]byte)
	return nodes, args.Error(1)
}

func (m *mockChain) DecodeMessagePayload(raw []byte) (*lanes.MessagePayload, error) {
	args := m.Called(raw)
	payload, _ := args.Get(0).(*lanes.MessagePayload)
	return payload, args.Error(1)
}

func (m *mockChain) SubmitMessagesProof(
	ctx context.Context,
	relayerAtSource lanes.AccountID,
	proof *lanes.MessagesProof,
	messagesCount uint32,
	dispatchWeight lanes.Weight,
) (*chain.TxID, error) {
	args := m.Called(ctx, relayerAtSource, proof, messagesCount, dispatchWeight)
	tx, _ := args.Get(0).(*chain.TxID)
	return tx, args.Error(1)
}

func (m *mockChain) SubmitDeliveryProof(
	ctx context.Context,
	proof *lanes.MessagesDeliveryProof,
	relayersState lanes.UnrewardedRelayersState,
) (*chain.TxID, error) {
	args := m.Called(ctx, proof, relayersState)
	tx, _ := args.Get(0).(*chain.TxID)
	return tx, args.Error(1)
}

func (m *mockChain) BestFinalized(ctx context.Context) (*chain.HeaderID, error) {
	args := m.Called(ctx)
	header, _ := args.Get(0).(*chain.HeaderID)
	return header, args.Error(1)
}

func (m *mockChain) BestBridgedFinalized(ctx context.Context) (*chain.HeaderID, error) {
	args := m.Called(ctx)
	header, _ := args.Get(0).(*chain.HeaderID)
	return header, args.Error(1)
}

// staticFinality always reports the same header.
type staticFinality struct {
	header *chain.HeaderID
	err    error
}

func (s *staticFinality) BestTargetFinalized(context.Context) (*chain.HeaderID, error) {
	return s.header, s.err
}

type gateFunc func(BatchDescriptor) bool

func (f gateFunc) Decide(_ context.Context, batch BatchDescriptor) (bool, error) {
	return f(batch), nil
}
