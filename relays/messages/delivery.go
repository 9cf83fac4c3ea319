package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snowfork/lane-relayer/chain"
	"github.com/snowfork/lane-relayer/chain/lanes"
	"github.com/snowfork/lane-relayer/relays/finality"

	log "github.com/sirupsen/logrus"
)

// DeliveryRunner moves messages of one lane from the source outbound lane to
// the target inbound lane.
type DeliveryRunner struct {
	runner
	config     DeliveryConfig
	source     chain.MessagesChain
	target     chain.MessagesChain
	finality   finality.Source
	builder    *MessagesProofBuilder
	gate       DecisionGate
	watermarks Watermarks
	retrier    Retrier
	// relayer_id_at_bridged_chain, rewarded at the source on confirmation
	rewardAccount lanes.AccountID
}

// NewDeliveryRunner wires a delivery task. oracle reports the source header
// accepted by the target's light client.
func NewDeliveryRunner(
	lane lanes.LaneID,
	config DeliveryConfig,
	source, target chain.MessagesChain,
	oracle finality.Source,
	gate DecisionGate,
	watermarks Watermarks,
	metrics *Metrics,
	retrier Retrier,
) *DeliveryRunner {
	d := &DeliveryRunner{
		runner: runner{
			lane:         lane,
			direction:    lanes.Delivery,
			pollInterval: config.pollInterval(),
			restartDelay: config.restartDelay(),
			metrics:      metrics,
			clients:      []chain.MessagesChain{source, target},
		},
		config:     config,
		source:     source,
		target:     target,
		finality:   oracle,
		builder:    NewMessagesProofBuilder(source, oracle, config.batchLimits()),
		gate:       gate,
		watermarks:    watermarks,
		retrier:       retrier,
		rewardAccount: source.RelayerAccount(),
	}
	d.step = d.attempt
	return d
}

func (d *DeliveryRunner) Start(ctx context.Context, eg *errgroup.Group) error {
	if d.rewardAccount == (lanes.AccountID{}) {
		return fmt.Errorf("%w: %s", ErrNoRewardAccount, d.source.Name())
	}
	eg.Go(func() error {
		return d.run(ctx)
	})
	return nil
}

// Step runs one delivery iteration.
func (d *DeliveryRunner) Step(ctx context.Context) (Skip, error) {
	skip, _, err := d.attempt(ctx)
	return skip, err
}

// attempt runs one iteration and reports the nonce range it worked on, nil
// when it stopped before choosing one.
func (d *DeliveryRunner) attempt(ctx context.Context) (Skip, *NonceRange, error) {
	d.setState(Assembling)

	var best *chain.HeaderID
	err := d.retrier.Do(ctx, "best source header at target", func() (err error) {
		best, err = d.finality.BestTargetFinalized(ctx)
		return err
	})
	if err != nil {
		return None, nil, fmt.Errorf("fetch best source header at target: %w", err)
	}
	if best == nil {
		return NoHeader, nil, nil
	}

	// Messages must exist at the header the proof is built against.
	var sourceLane *lanes.OutboundLaneData
	err = d.retrier.Do(ctx, "source outbound lane", func() (err error) {
		sourceLane, err = d.source.OutboundLaneData(ctx, d.lane, &best.Hash)
		if err != nil {
			return err
		}
		return checkOutbound(sourceLane)
	})
	if err != nil {
		return None, nil, fmt.Errorf("fetch outbound lane at %s: %w", best, err)
	}

	var targetHead *chain.HeaderID
	err = d.retrier.Do(ctx, "target finalized header", func() (err error) {
		targetHead, err = d.target.BestFinalized(ctx)
		return err
	})
	if err != nil {
		return None, nil, fmt.Errorf("fetch target finalized header: %w", err)
	}

	var targetLane *lanes.InboundLaneData
	err = d.retrier.Do(ctx, "target inbound lane", func() (err error) {
		targetLane, err = d.target.InboundLaneData(ctx, d.lane, &targetHead.Hash)
		if err != nil {
			return err
		}
		return checkInbound(targetLane)
	})
	if err != nil {
		return None, nil, fmt.Errorf("fetch inbound lane at %s: %w", targetHead, err)
	}

	watermark, err := d.watermark()
	if err != nil {
		return None, nil, err
	}

	nonces, skip, err := AssembleDelivery(DeliveryInput{
		Source:    sourceLane,
		Target:    targetLane,
		Watermark: watermark,
		Limit:     d.config.BatchLimit,
		Limits:    d.config.limits(),
	})
	if err != nil || nonces == nil {
		return skip, nil, err
	}

	d.setState(ProofBuilding)
	includeLaneState := targetLane.LastConfirmedNonce < sourceLane.LatestReceivedNonce
	var batch *DeliveryBatch
	err = d.retrier.Do(ctx, "messages proof", func() (err error) {
		batch, err = d.builder.Build(ctx, d.lane, *nonces, *best, includeLaneState)
		return err
	})
	if errors.Is(err, ErrHeaderNotFinalized) {
		d.logger().WithError(err).Debug("Best header moved on")
		return NoHeader, nonces, nil
	}
	if err != nil {
		return None, nonces, fmt.Errorf("build messages proof %s: %w", nonces, err)
	}

	// The builder may have cut the range to fit the batch limits.
	nonces = &batch.Range
	logger := d.logger().WithFields(log.Fields{
		"nonceStart": nonces.Start,
		"nonceEnd":   nonces.End,
		"header":     best.String(),
	})

	d.setState(Deciding)
	ok, err := d.gate.Decide(ctx, BatchDescriptor{
		Lane:         d.lane,
		Direction:    lanes.Delivery,
		Range:        *nonces,
		MessagesSize: batch.MessagesSize,
		ProofSize:    uint64(batch.Proof.Size()),
		Weight:       batch.Weight,
	})
	if err != nil {
		return None, nonces, fmt.Errorf("decide on batch %s: %w", nonces, err)
	}
	if !ok {
		return Vetoed, nonces, nil
	}

	d.setState(Submitting)
	logger.WithFields(log.Fields{
		"refTime":   batch.Weight.RefTime,
		"proofSize": batch.Weight.ProofSize,
	}).Info("Submitting messages proof")

	started := time.Now()
	tx, err := d.target.SubmitMessagesProof(ctx, d.rewardAccount, batch.Proof, batch.Count, batch.Weight)
	if err != nil {
		return None, nonces, fmt.Errorf("submit messages proof %s: %w", nonces, err)
	}

	err = d.checkDelivered(ctx, tx, nonces.End)
	if err != nil {
		return None, nonces, err
	}

	written, err := d.watermarks.Advance(d.lane, lanes.Delivery, nonces.End)
	if err != nil {
		return None, nonces, fmt.Errorf("advance watermark to %d: %w", nonces.End, err)
	}
	if written {
		d.metrics.setWatermark(d.lane, lanes.Delivery, nonces.End)
	}
	d.metrics.relayed(d.lane, lanes.Delivery, nonces.Len(), time.Since(started).Seconds())

	logger.WithFields(log.Fields{
		"txHash": tx.Hash.Hex(),
		"block":  tx.BlockHash.Hex(),
	}).Info("Delivered messages")

	return None, nonces, nil
}

// checkDelivered reads the target lane in the block that included tx.
func (d *DeliveryRunner) checkDelivered(ctx context.Context, tx *chain.TxID, end uint64) error {
	var lane *lanes.InboundLaneData
	err := d.retrier.Do(ctx, "target inbound lane after submission", func() (err error) {
		lane, err = d.target.InboundLaneData(ctx, d.lane, &tx.BlockHash)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch inbound lane at %s: %w", tx.BlockHash.Hex(), err)
	}
	if lane.LastDeliveredNonce() < end {
		return fmt.Errorf("%w: tx %s, last delivered nonce %d, expected %d",
			ErrBatchRejected, tx.Hash.Hex(), lane.LastDeliveredNonce(), end)
	}
	return nil
}

func (d *DeliveryRunner) watermark() (*uint64, error) {
	nonce, ok, err := d.watermarks.Get(d.lane, lanes.Delivery)
	if err != nil {
		return nil, fmt.Errorf("read delivery watermark: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &nonce, nil
}
