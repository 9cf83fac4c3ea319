package ethereum

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/lane-relayer/chain/lanes"
	"github.com/snowfork/lane-relayer/config"
	"github.com/snowfork/lane-relayer/contracts"
)

func newTestClient() *MessagesClient {
	return NewMessagesClient("test", &MessagesConfig{
		EthereumConfig:    config.EthereumConfig{Endpoint: "ws://localhost:8546"},
		Contract:          "0xEDa338E4dC46038493b885327842fD3E301CaB39",
		OutboundLanesSlot: 1,
		InboundLanesSlot:  2,
		MessagesSlot:      3,
	}, nil)
}

func TestLaneStorageKeys(t *testing.T) {
	client := newTestClient()
	lane := lanes.LaneID{0, 0, 0, 1}

	preimage := make([]byte, 64)
	copy(preimage, lane[:])
	preimage[63] = 1

	key, err := client.OutboundLaneKey(lane)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256(preimage), []byte(key))

	inbound, err := client.InboundLaneKey(lane)
	require.NoError(t, err)
	assert.NotEqual(t, key, inbound)
	assert.Len(t, inbound, 32)
}

func TestMessageStorageKey(t *testing.T) {
	client := newTestClient()
	lane := lanes.LaneID{0, 0, 0, 1}

	inner := make([]byte, 64)
	copy(inner, lane[:])
	inner[63] = 3

	outer := make([]byte, 64)
	outer[31] = 7
	copy(outer[32:], crypto.Keccak256(inner))

	keys, err := client.MessageKeys(lane, 7, []byte{0x01})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, crypto.Keccak256(outer), []byte(keys[0]))

	next, err := client.MessageKeys(lane, 8, []byte{0x01})
	require.NoError(t, err)
	assert.NotEqual(t, keys, next)
}

func TestMessageStorageKeysOfLongPayload(t *testing.T) {
	client := newTestClient()
	lane := lanes.LaneID{0, 0, 0, 1}

	encoded, err := payloadArguments.Pack([32]byte{1}, [32]byte{2}, uint64(1), uint64(2), []byte{0xde, 0xad})
	require.NoError(t, err)
	require.Len(t, encoded, 224)

	keys, err := client.MessageKeys(lane, 7, encoded)
	require.NoError(t, err)
	require.Len(t, keys, 1+7)

	slot := client.messageSlot(lane, 7)
	assert.Equal(t, slot.Bytes(), []byte(keys[0]))

	data := crypto.Keccak256Hash(slot.Bytes())
	assert.Equal(t, data.Bytes(), []byte(keys[1]))
	for i := 2; i < len(keys); i++ {
		previous := new(big.Int).SetBytes(keys[i-1])
		assert.Equal(t, new(big.Int).Add(previous, big.NewInt(1)), new(big.Int).SetBytes(keys[i]))
	}

	// Exactly one word of content still lives outside the slot.
	keys, err = client.MessageKeys(lane, 7, make([]byte, 32))
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestLaneContractSelectors(t *testing.T) {
	parsed, err := contracts.MessagesLaneMetaData.GetAbi()
	require.NoError(t, err)

	selectors := map[string]string{
		"bestFinalizedBridgedHeader":   "0xceeb4a14",
		"inboundLaneData":              "0xd5b0d388",
		"outboundLaneData":             "0x5d6b0915",
		"outboundMessage":              "0xf0a5aff4",
		"receiveMessagesDeliveryProof": "0xf44ab72d",
		"receiveMessagesProof":         "0x78c7d42a",
	}
	for name, selector := range selectors {
		method, ok := parsed.Methods[name]
		require.True(t, ok, name)
		assert.Equal(t, selector, hexutil.Encode(method.ID), name)
	}

	data, err := parsed.Pack("receiveMessagesProof",
		[32]byte{1},
		contracts.LaneMessagesProof{StorageProof: [][]byte{{0xaa}}, Lane: [4]byte{0, 0, 0, 1}, NoncesStart: 6, NoncesEnd: 7},
		uint32(2),
		contracts.LaneWeight{RefTime: 20, ProofSize: 2},
	)
	require.NoError(t, err)
	assert.Equal(t, "0x78c7d42a", hexutil.Encode(data[:4]))
}

func TestDecodeMessagePayload(t *testing.T) {
	client := newTestClient()

	source := [32]byte{1}
	target := [32]byte{2}
	encoded, err := payloadArguments.Pack(source, target, uint64(1000), uint64(64), []byte{0xde, 0xad})
	require.NoError(t, err)

	payload, err := client.DecodeMessagePayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, lanes.AccountID(source), payload.SourceAccount)
	assert.Equal(t, lanes.AccountID(target), payload.TargetAccount)
	assert.Equal(t, lanes.Weight{RefTime: 1000, ProofSize: 64}, payload.Weight)
	assert.Equal(t, []byte{0xde, 0xad}, payload.Call)
}

func TestDecodeMessagePayloadMalformed(t *testing.T) {
	client := newTestClient()

	_, err := client.DecodeMessagePayload([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestMessagesConfigValidate(t *testing.T) {
	cfg := MessagesConfig{
		EthereumConfig: config.EthereumConfig{Endpoint: "ws://localhost:8546"},
		Contract:       "not-an-address",
	}
	assert.Error(t, cfg.Validate())

	cfg.Contract = common.Address{1}.Hex()
	assert.NoError(t, cfg.Validate())

	cfg.Endpoint = ""
	assert.Error(t, cfg.Validate())
}
