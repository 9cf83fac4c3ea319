package messages

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/snowfork/lane-relayer/chain"
	"github.com/snowfork/lane-relayer/chain/lanes"
	"github.com/snowfork/lane-relayer/relays"
	"github.com/snowfork/lane-relayer/store"
)

var (
	testTx = &chain.TxID{
		Hash:      common.HexToHash("0x01"),
		BlockHash: common.HexToHash("0x02"),
	}
	testTargetHead = chain.HeaderID{Number: 200, Hash: common.HexToHash("0xc8")}
)

type deliveryFixture struct {
	source     *mockChain
	target     *mockChain
	watermarks *store.WatermarkStore
	metrics    *Metrics
	runner     *DeliveryRunner
}

func newDeliveryFixture(t *testing.T, gate DecisionGate, oracle *staticFinality) *deliveryFixture {
	return newDeliveryFixtureWithConfig(t, gate, oracle, func(*DeliveryConfig) {})
}

func newDeliveryFixtureWithConfig(t *testing.T, gate DecisionGate, oracle *staticFinality, configure func(*DeliveryConfig)) *deliveryFixture {
	f := &deliveryFixture{
		source:     newMockChain("source"),
		target:     newMockChain("target"),
		watermarks: store.NewMemory("test"),
		metrics:    NewMetrics(prometheus.NewRegistry()),
	}
	t.Cleanup(func() { f.watermarks.Close() })

	config := DeliveryConfig{
		DirectionConfig: DirectionConfig{
			WorkerConfig: relays.WorkerConfig{Enabled: true, RestartDelay: 7},
			PollInterval: 3,
		},
		BatchLimit: 4,
	}
	configure(&config)
	f.runner = NewDeliveryRunner(
		testLane, config, f.source, f.target, oracle, gate,
		f.watermarks, f.metrics, Retrier{attempts: 1, delay: time.Millisecond},
	)
	return f
}

func (f *deliveryFixture) expectLanes(source *lanes.OutboundLaneData, target *lanes.InboundLaneData) {
	f.source.On("OutboundLaneData", mock.Anything, testLane, &testHeader.Hash).Return(source, nil)
	f.target.On("BestFinalized", mock.Anything).Return(&testTargetHead, nil)
	f.target.On("InboundLaneData", mock.Anything, testLane, &testTargetHead.Hash).Return(target, nil)
}

func (f *deliveryFixture) expectProof(start, end uint64) {
	expectMessages(f.source, start, end, lanes.Weight{RefTime: 10, ProofSize: 1})
	f.source.On("ReadProof", mock.Anything, messageKeys(f.source, start, end), testHeader.Hash).Return(testNodes, nil)
}

func (f *deliveryFixture) retrierAttempts(attempts uint) {
	f.runner.retrier = Retrier{attempts: attempts, delay: time.Millisecond}
}

func (f *deliveryFixture) watermark(t *testing.T) (uint64, bool) {
	nonce, ok, err := f.watermarks.Get(testLane, lanes.Delivery)
	require.NoError(t, err)
	return nonce, ok
}

func TestDeliverySubmitsAndAdvancesWatermark(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{header: &testHeader})
	f.expectLanes(outbound(5, 12), inbound(5))
	f.expectProof(6, 9)

	expectedProof := &lanes.MessagesProof{
		BridgedHeaderHash: testHeader.Hash,
		StorageProof:      testNodes,
		Lane:              testLane,
		NoncesStart:       6,
		NoncesEnd:         9,
	}
	f.target.On("SubmitMessagesProof", mock.Anything, lanes.AccountID{0xaa}, expectedProof, uint32(4), lanes.Weight{RefTime: 40, ProofSize: 4}).
		Return(testTx, nil).Once()
	f.target.On("InboundLaneData", mock.Anything, testLane, &testTx.BlockHash).
		Return(inbound(5, lanes.DeliveredMessages{Begin: 6, End: 9}), nil)

	skip, err := f.runner.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, None, skip)

	nonce, ok := f.watermark(t)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), nonce)
	assert.Equal(t, float64(9), testutil.ToFloat64(f.metrics.watermark.WithLabelValues(testLane.Hex(), "delivery")))
	assert.Equal(t, float64(4), testutil.ToFloat64(f.metrics.messages.WithLabelValues(testLane.Hex(), "delivery")))

	// Lane state has not caught up yet, so the same range is in flight.
	skip, err = f.runner.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchInFlight, skip)

	f.target.AssertNumberOfCalls(t, "SubmitMessagesProof", 1)
	f.source.AssertExpectations(t)
	f.target.AssertExpectations(t)
}

func TestDeliveryVetoLeavesWatermark(t *testing.T) {
	var seen []BatchDescriptor
	gate := gateFunc(func(batch BatchDescriptor) bool {
		seen = append(seen, batch)
		return false
	})

	f := newDeliveryFixture(t, gate, &staticFinality{header: &testHeader})
	f.expectLanes(outbound(5, 12), inbound(5))
	f.expectProof(6, 9)

	skip, err := f.runner.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Vetoed, skip)

	require.Len(t, seen, 1)
	assert.Equal(t, NonceRange{Start: 6, End: 9}, seen[0].Range)
	assert.Equal(t, lanes.Delivery, seen[0].Direction)
	assert.Equal(t, uint64(8), seen[0].MessagesSize)
	assert.Equal(t, uint64(3), seen[0].ProofSize)

	_, ok := f.watermark(t)
	assert.False(t, ok)
	f.target.AssertNotCalled(t, "SubmitMessagesProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliveryWaitsForFinalizedHeader(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{})

	skip, err := f.runner.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoHeader, skip)

	f.source.AssertNotCalled(t, "OutboundLaneData", mock.Anything, mock.Anything, mock.Anything)
	f.target.AssertNotCalled(t, "InboundLaneData", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliveryProvesLaneStateWhenTargetIsBehind(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{header: &testHeader})
	f.expectLanes(outbound(5, 6), inbound(3))
	expectMessages(f.source, 6, 6, lanes.Weight{})

	keys := messageKeys(f.source, 6, 6)
	laneKey, _ := f.source.OutboundLaneKey(testLane)
	f.source.On("ReadProof", mock.Anything, append(keys, laneKey), testHeader.Hash).Return(testNodes, nil)
	f.target.On("SubmitMessagesProof", mock.Anything, mock.Anything, mock.Anything, uint32(1), mock.Anything).Return(testTx, nil)
	f.target.On("InboundLaneData", mock.Anything, testLane, &testTx.BlockHash).
		Return(inbound(3, lanes.DeliveredMessages{Begin: 4, End: 6}), nil)

	skip, err := f.runner.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, None, skip)
	f.source.AssertExpectations(t)
}

func TestDeliverySubmitFailureKeepsWatermark(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{header: &testHeader})
	f.expectLanes(outbound(5, 12), inbound(5))
	f.expectProof(6, 9)
	f.target.On("SubmitMessagesProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("dispatch failed"))

	_, err := f.runner.Step(context.Background())
	assert.Error(t, err)

	_, ok := f.watermark(t)
	assert.False(t, ok)
}

func TestDeliveryRejectedBatchKeepsWatermark(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{header: &testHeader})
	f.expectLanes(outbound(5, 12), inbound(5))
	f.expectProof(6, 9)
	f.target.On("SubmitMessagesProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(testTx, nil)
	f.target.On("InboundLaneData", mock.Anything, testLane, &testTx.BlockHash).Return(inbound(5), nil)

	_, err := f.runner.Step(context.Background())
	assert.ErrorIs(t, err, ErrBatchRejected)

	_, ok := f.watermark(t)
	assert.False(t, ok)
}

func TestDeliveryDecodeFailureSkipsSubmission(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{header: &testHeader})
	f.expectLanes(outbound(5, 6), inbound(5))
	f.source.On("OutboundMessages", mock.Anything, testLane, uint64(6), uint64(6), testHeader.Hash).
		Return(testMessages(6, 6), nil)
	f.source.On("DecodeMessagePayload", mock.Anything).Return(nil, errors.New("unknown call"))

	_, err := f.runner.Step(context.Background())
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	f.target.AssertNotCalled(t, "SubmitMessagesProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliveryIterationReconnectsOnBrokenConnection(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{header: &testHeader})
	f.source.On("OutboundLaneData", mock.Anything, testLane, mock.Anything).Return(nil, io.EOF)
	f.source.On("Reconnect", mock.Anything).Return(nil).Once()
	f.target.On("Reconnect", mock.Anything).Return(nil).Once()

	wait := f.runner.iterate(context.Background())
	assert.Equal(t, 7*time.Second, wait)
	assert.Equal(t, Idle, f.runner.State())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.iterations.WithLabelValues(testLane.Hex(), "delivery", outcomeError)))

	f.source.AssertExpectations(t)
	f.target.AssertExpectations(t)
}

func TestDeliveryIterationWaitsPollIntervalWhenIdle(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{})

	wait := f.runner.iterate(context.Background())
	assert.Equal(t, 3*time.Second, wait)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.iterations.WithLabelValues(testLane.Hex(), "delivery", outcomeSkipped)))
}

func TestDeliveryRunStopsOnCancel(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.runner.run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestDeliveryCutsBatchToLimits(t *testing.T) {
	f := newDeliveryFixtureWithConfig(t, AlwaysRelay{}, &staticFinality{header: &testHeader}, func(config *DeliveryConfig) {
		config.MaxRefTime = 25
	})
	f.expectLanes(outbound(5, 12), inbound(5))
	expectMessages(f.source, 6, 9, lanes.Weight{RefTime: 10, ProofSize: 1})
	f.source.On("ReadProof", mock.Anything, messageKeys(f.source, 6, 7), testHeader.Hash).Return(testNodes, nil)

	expectedProof := &lanes.MessagesProof{
		BridgedHeaderHash: testHeader.Hash,
		StorageProof:      testNodes,
		Lane:              testLane,
		NoncesStart:       6,
		NoncesEnd:         7,
	}
	f.target.On("SubmitMessagesProof", mock.Anything, lanes.AccountID{0xaa}, expectedProof, uint32(2), lanes.Weight{RefTime: 20, ProofSize: 2}).
		Return(testTx, nil).Once()
	f.target.On("InboundLaneData", mock.Anything, testLane, &testTx.BlockHash).
		Return(inbound(5, lanes.DeliveredMessages{Begin: 6, End: 7}), nil)

	skip, err := f.runner.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, None, skip)

	nonce, ok := f.watermark(t)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), nonce)
	f.target.AssertExpectations(t)
}

func TestDeliveryInvalidLaneStateIsNotRetried(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{header: &testHeader})
	f.retrierAttempts(3)
	f.source.On("OutboundLaneData", mock.Anything, testLane, &testHeader.Hash).Return(outbound(9, 5), nil)

	_, err := f.runner.Step(context.Background())
	assert.ErrorIs(t, err, ErrInvalidLaneState)
	f.source.AssertNumberOfCalls(t, "OutboundLaneData", 1)
	f.target.AssertNotCalled(t, "InboundLaneData", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliveryRequiresRewardAccount(t *testing.T) {
	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{})
	f.runner.rewardAccount = lanes.AccountID{}

	eg, ctx := errgroup.WithContext(context.Background())
	err := f.runner.Start(ctx, eg)
	assert.ErrorIs(t, err, ErrNoRewardAccount)
}

func TestDeliveryIterationLogsAttemptedRange(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	f := newDeliveryFixture(t, AlwaysRelay{}, &staticFinality{header: &testHeader})
	f.expectLanes(outbound(5, 12), inbound(5))
	f.expectProof(6, 9)
	f.target.On("SubmitMessagesProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("dispatch failed"))

	f.runner.iterate(context.Background())

	var failed *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Lane task iteration failed" {
			failed = entry
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, uint64(6), failed.Data["nonceStart"])
	assert.Equal(t, uint64(9), failed.Data["nonceEnd"])
	assert.Equal(t, logrus.ErrorLevel, failed.Level)
}
