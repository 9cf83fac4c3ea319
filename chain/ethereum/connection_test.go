package ethereum

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/lane-relayer/config"
)

// fakeEth serves the receipt and header queries of the finality wait.
type fakeEth struct {
	mu        sync.Mutex
	receipt   *types.Receipt
	headers   map[uint64]*types.Header
	finalized uint64
	// added to finalized after every finalized query
	step uint64
}

func (f *fakeEth) GetTransactionReceipt(hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receipt == nil || f.receipt.TxHash != hash {
		return nil, nil
	}
	return f.receipt, nil
}

func (f *fakeEth) GetBlockByNumber(number rpc.BlockNumber, _ bool) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := uint64(number.Int64())
	if number == rpc.FinalizedBlockNumber {
		n = f.finalized
		f.finalized += f.step
	}
	return f.headers[n], nil
}

func header(number uint64) *types.Header {
	return &types.Header{
		Number:     new(big.Int).SetUint64(number),
		Difficulty: big.NewInt(0),
		Extra:      []byte{byte(number)},
	}
}

func newFakeConnection(t *testing.T, fake *fakeEth, timeout uint) *Connection {
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", fake))
	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	co := NewConnection(&config.EthereumConfig{FinalityTimeout: timeout}, nil)
	co.client = ethclient.NewClient(client)
	co.pollInterval = time.Millisecond
	return co
}

func chainOf(numbers ...uint64) map[uint64]*types.Header {
	headers := make(map[uint64]*types.Header)
	for _, n := range numbers {
		headers[n] = header(n)
	}
	return headers
}

func receiptIn(tx *types.Transaction, block *types.Header, status uint64) *types.Receipt {
	return &types.Receipt{
		Status:      status,
		Logs:        []*types.Log{},
		TxHash:      tx.Hash(),
		BlockHash:   block.Hash(),
		BlockNumber: block.Number,
	}
}

var testTransaction = types.NewTx(&types.LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000})

func TestWatchTransactionWaitsForFinality(t *testing.T) {
	headers := chainOf(3, 4, 5, 6)
	fake := &fakeEth{
		receipt:   receiptIn(testTransaction, headers[5], types.ReceiptStatusSuccessful),
		headers:   headers,
		finalized: 3,
		step:      1,
	}
	co := newFakeConnection(t, fake, 5)

	receipt, err := co.WatchTransaction(context.Background(), testTransaction)
	require.NoError(t, err)
	assert.Equal(t, headers[5].Hash(), receipt.BlockHash)

	// Returned no earlier than the poll that saw block 5 finalized.
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.GreaterOrEqual(t, fake.finalized, uint64(6))
}

func TestWatchTransactionIgnoresReorgedReceipt(t *testing.T) {
	headers := chainOf(5, 10)
	orphan := header(5)
	orphan.Extra = []byte("orphan")
	fake := &fakeEth{
		receipt:   receiptIn(testTransaction, orphan, types.ReceiptStatusSuccessful),
		headers:   headers,
		finalized: 10,
	}
	co := newFakeConnection(t, fake, 1)

	_, err := co.WatchTransaction(context.Background(), testTransaction)
	assert.ErrorIs(t, err, ErrNotFinalized)
}

func TestWatchTransactionTimesOutWithoutReceipt(t *testing.T) {
	fake := &fakeEth{headers: chainOf(10), finalized: 10}
	co := newFakeConnection(t, fake, 1)

	_, err := co.WatchTransaction(context.Background(), testTransaction)
	assert.ErrorIs(t, err, ErrNotFinalized)
}

func TestWatchTransactionFailedReceipt(t *testing.T) {
	headers := chainOf(5)
	fake := &fakeEth{
		receipt:   receiptIn(testTransaction, headers[5], types.ReceiptStatusFailed),
		headers:   headers,
		finalized: 5,
	}
	co := newFakeConnection(t, fake, 5)

	_, err := co.WatchTransaction(context.Background(), testTransaction)
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestWatchTransactionStopsOnCancel(t *testing.T) {
	fake := &fakeEth{headers: chainOf(10), finalized: 10}
	co := newFakeConnection(t, fake, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := co.WatchTransaction(ctx, testTransaction)
	assert.ErrorIs(t, err, context.Canceled)
}
