package parachain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/snowfork/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(statuses ...types.ExtrinsicStatus) <-chan types.ExtrinsicStatus {
	ch := make(chan types.ExtrinsicStatus, len(statuses))
	for _, status := range statuses {
		ch <- status
	}
	return ch
}

func TestAwaitFinalizedReturnsFinalizedBlock(t *testing.T) {
	pool := NewExtrinsicPool(1, time.Second)
	inBlock := types.NewHash([]byte{0x01})
	finalized := types.NewHash([]byte{0x02})

	hash, err := pool.awaitFinalized(context.Background(), feed(
		types.ExtrinsicStatus{IsReady: true},
		types.ExtrinsicStatus{IsInBlock: true, AsInBlock: inBlock},
		types.ExtrinsicStatus{IsFinalized: true, AsFinalized: finalized},
	), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, finalized, hash)
}

func TestAwaitFinalizedRemovedFromPool(t *testing.T) {
	tests := []struct {
		name   string
		status types.ExtrinsicStatus
		reason string
	}{
		{"dropped", types.ExtrinsicStatus{IsDropped: true}, "Dropped"},
		{"invalid", types.ExtrinsicStatus{IsInvalid: true}, "Invalid"},
		{"usurped", types.ExtrinsicStatus{IsUsurped: true}, "Usurped"},
		{"finality timeout", types.ExtrinsicStatus{IsFinalityTimeout: true}, "FinalityTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewExtrinsicPool(1, time.Second)
			_, err := pool.awaitFinalized(context.Background(), feed(
				types.ExtrinsicStatus{IsInBlock: true},
				tt.status,
			), nil, 1)
			assert.ErrorIs(t, err, ErrExtrinsicRemoved)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestAwaitFinalizedTimesOut(t *testing.T) {
	pool := NewExtrinsicPool(1, 10*time.Millisecond)
	_, err := pool.awaitFinalized(context.Background(), feed(
		types.ExtrinsicStatus{IsInBlock: true},
	), nil, 1)
	assert.ErrorIs(t, err, ErrNotFinalized)
}

func TestAwaitFinalizedSubscriptionError(t *testing.T) {
	pool := NewExtrinsicPool(1, time.Second)
	errs := make(chan error, 1)
	errs <- errors.New("websocket: close 1006")

	_, err := pool.awaitFinalized(context.Background(), nil, errs, 1)
	assert.EqualError(t, err, "websocket: close 1006")
}

func TestAwaitFinalizedCancelled(t *testing.T) {
	pool := NewExtrinsicPool(1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.awaitFinalized(ctx, nil, nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquireBoundsWatchedExtrinsics(t *testing.T) {
	pool := NewExtrinsicPool(1, time.Second)
	release, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release, err = pool.Acquire(context.Background())
	require.NoError(t, err)
	release()
}
