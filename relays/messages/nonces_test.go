package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/lane-relayer/chain/lanes"
)

func nonce(n uint64) *uint64 {
	return &n
}

func outbound(received, generated uint64) *lanes.OutboundLaneData {
	return &lanes.OutboundLaneData{
		OldestUnprunedNonce:  1,
		LatestReceivedNonce:  received,
		LatestGeneratedNonce: generated,
	}
}

func inbound(lastConfirmed uint64, ranges ...lanes.DeliveredMessages) *lanes.InboundLaneData {
	data := &lanes.InboundLaneData{LastConfirmedNonce: lastConfirmed}
	for i, r := range ranges {
		data.Relayers = append(data.Relayers, lanes.UnrewardedRelayer{
			Relayer:  lanes.AccountID{byte(i + 1)},
			Messages: r,
		})
	}
	return data
}

func TestAssembleDeliveryFirstBatch(t *testing.T) {
	r, skip, err := AssembleDelivery(DeliveryInput{Source: outbound(5, 12), Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, None, skip)
	assert.Equal(t, &NonceRange{Start: 6, End: 9}, r)
}

func TestAssembleDeliveryBatchInFlight(t *testing.T) {
	r, skip, err := AssembleDelivery(DeliveryInput{Source: outbound(5, 12), Limit: 4, Watermark: nonce(9)})
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, BatchInFlight, skip)

	// A watermark behind the start does not suppress the batch.
	r, _, err = AssembleDelivery(DeliveryInput{Source: outbound(5, 12), Limit: 4, Watermark: nonce(5)})
	require.NoError(t, err)
	assert.Equal(t, &NonceRange{Start: 6, End: 9}, r)
}

func TestAssembleDeliveryCaughtUp(t *testing.T) {
	r, skip, err := AssembleDelivery(DeliveryInput{Source: outbound(12, 12), Limit: 4})
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, LaneCaughtUp, skip)
}

func TestAssembleDeliveryClampsToGenerated(t *testing.T) {
	r, _, err := AssembleDelivery(DeliveryInput{Source: outbound(10, 12), Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, &NonceRange{Start: 11, End: 12}, r)
}

func TestAssembleDeliveryRejectsZeroLimit(t *testing.T) {
	_, _, err := AssembleDelivery(DeliveryInput{Source: outbound(5, 12), Limit: 0})
	assert.ErrorIs(t, err, ErrInvalidBatchLimit)
}

func TestAssembleDeliveryIsPure(t *testing.T) {
	in := DeliveryInput{
		Source:    outbound(5, 40),
		Target:    inbound(3, lanes.DeliveredMessages{Begin: 4, End: 7}),
		Watermark: nonce(6),
		Limit:     8,
	}
	first, firstSkip, err := AssembleDelivery(in)
	require.NoError(t, err)
	second, secondSkip, err := AssembleDelivery(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, firstSkip, secondSkip)
}

func TestAssembleDeliveryStartsAfterTargetDelivered(t *testing.T) {
	target := inbound(5, lanes.DeliveredMessages{Begin: 6, End: 9})

	r, skip, err := AssembleDelivery(DeliveryInput{
		Source:    outbound(5, 12),
		Target:    target,
		Watermark: nonce(9),
		Limit:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, None, skip)
	assert.Equal(t, &NonceRange{Start: 10, End: 12}, r)
}

func TestAssembleDeliveryTargetAlreadyHasEverything(t *testing.T) {
	target := inbound(5, lanes.DeliveredMessages{Begin: 6, End: 12})

	r, skip, err := AssembleDelivery(DeliveryInput{Source: outbound(5, 12), Target: target, Limit: 4})
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, LaneCaughtUp, skip)
}

func TestAssembleDeliveryWindowLimits(t *testing.T) {
	target := inbound(5,
		lanes.DeliveredMessages{Begin: 6, End: 7},
		lanes.DeliveredMessages{Begin: 8, End: 9},
	)

	r, skip, err := AssembleDelivery(DeliveryInput{
		Source: outbound(5, 20),
		Target: target,
		Limit:  8,
		Limits: DeliveryLimits{MaxUnrewardedRelayerEntries: 2},
	})
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, WindowFull, skip)

	r, skip, err = AssembleDelivery(DeliveryInput{
		Source: outbound(5, 20),
		Target: target,
		Limit:  8,
		Limits: DeliveryLimits{MaxUnconfirmedMessages: 4},
	})
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, WindowFull, skip)

	// Room for two more messages shrinks the batch.
	r, skip, err = AssembleDelivery(DeliveryInput{
		Source: outbound(5, 20),
		Target: target,
		Limit:  8,
		Limits: DeliveryLimits{MaxUnconfirmedMessages: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, None, skip)
	assert.Equal(t, &NonceRange{Start: 10, End: 11}, r)
}

func TestRelayersState(t *testing.T) {
	target := inbound(2,
		lanes.DeliveredMessages{Begin: 3, End: 5},
		lanes.DeliveredMessages{Begin: 6, End: 6},
	)
	assert.Equal(t, lanes.UnrewardedRelayersState{
		UnrewardedRelayerEntries: 2,
		MessagesInOldestEntry:    3,
		TotalMessages:            4,
	}, target.RelayersState())
}

func TestRelayersStateEmpty(t *testing.T) {
	assert.Equal(t, lanes.UnrewardedRelayersState{}, inbound(7).RelayersState())
}

func TestRelayersStateDegenerateWindow(t *testing.T) {
	target := inbound(2,
		lanes.DeliveredMessages{Begin: 9, End: 10},
		lanes.DeliveredMessages{Begin: 3, End: 4},
	)
	state := target.RelayersState()
	assert.Equal(t, uint64(0), state.TotalMessages)
	assert.Equal(t, uint64(2), state.UnrewardedRelayerEntries)
}

func TestAssembleConfirmation(t *testing.T) {
	target := inbound(2,
		lanes.DeliveredMessages{Begin: 3, End: 5},
		lanes.DeliveredMessages{Begin: 6, End: 6},
	)

	c, skip := AssembleConfirmation(outbound(2, 10), target, nil)
	assert.Equal(t, None, skip)
	require.NotNil(t, c)
	assert.Equal(t, NonceRange{Start: 3, End: 6}, c.Range)
	assert.Equal(t, target.RelayersState(), c.RelayersState)
}

func TestAssembleConfirmationFullyConfirmed(t *testing.T) {
	target := inbound(2, lanes.DeliveredMessages{Begin: 3, End: 6})

	c, skip := AssembleConfirmation(outbound(6, 10), target, nil)
	assert.Nil(t, c)
	assert.Equal(t, FullyConfirmed, skip)
}

func TestAssembleConfirmationEmptyWindow(t *testing.T) {
	c, skip := AssembleConfirmation(outbound(2, 10), inbound(2), nil)
	assert.Nil(t, c)
	assert.Equal(t, FullyConfirmed, skip)
}

func TestAssembleConfirmationInFlight(t *testing.T) {
	target := inbound(2, lanes.DeliveredMessages{Begin: 3, End: 6})

	c, skip := AssembleConfirmation(outbound(2, 10), target, nonce(6))
	assert.Nil(t, c)
	assert.Equal(t, BatchInFlight, skip)

	c, skip = AssembleConfirmation(outbound(2, 10), target, nonce(5))
	assert.Equal(t, None, skip)
	require.NotNil(t, c)
	assert.Equal(t, uint64(6), c.Range.End)
}
