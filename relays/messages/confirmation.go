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

// ConfirmationRunner proves the target inbound lane of one lane back to the
// source chain, so the source learns which messages were delivered.
type ConfirmationRunner struct {
	runner
	source     chain.MessagesChain
	target     chain.MessagesChain
	finality   finality.Source
	builder    *DeliveryProofBuilder
	gate       DecisionGate
	watermarks Watermarks
	retrier    Retrier
}

// NewConfirmationRunner wires a confirmation task. oracle reports the target
// header accepted by the source's light client.
func NewConfirmationRunner(
	lane lanes.LaneID,
	config ConfirmationConfig,
	source, target chain.MessagesChain,
	oracle finality.Source,
	gate DecisionGate,
	watermarks Watermarks,
	metrics *Metrics,
	retrier Retrier,
) *ConfirmationRunner {
	c := &ConfirmationRunner{
		runner: runner{
			lane:         lane,
			direction:    lanes.Confirmation,
			pollInterval: config.pollInterval(),
			restartDelay: config.restartDelay(),
			metrics:      metrics,
			clients:      []chain.MessagesChain{source, target},
		},
		source:     source,
		target:     target,
		finality:   oracle,
		builder:    NewDeliveryProofBuilder(target, oracle),
		gate:       gate,
		watermarks: watermarks,
		retrier:    retrier,
	}
	c.step = c.attempt
	return c
}

func (c *ConfirmationRunner) Start(ctx context.Context, eg *errgroup.Group) error {
	eg.Go(func() error {
		return c.run(ctx)
	})
	return nil
}

// Step runs one confirmation iteration.
func (c *ConfirmationRunner) Step(ctx context.Context) (Skip, error) {
	skip, _, err := c.attempt(ctx)
	return skip, err
}

func (c *ConfirmationRunner) attempt(ctx context.Context) (Skip, *NonceRange, error) {
	c.setState(Assembling)

	var best *chain.HeaderID
	err := c.retrier.Do(ctx, "best target header at source", func() (err error) {
		best, err = c.finality.BestTargetFinalized(ctx)
		return err
	})
	if err != nil {
		return None, nil, fmt.Errorf("fetch best target header at source: %w", err)
	}
	if best == nil {
		return NoHeader, nil, nil
	}

	// The inbound lane is read at the header it will be proved against.
	var targetLane *lanes.InboundLaneData
	err = c.retrier.Do(ctx, "target inbound lane", func() (err error) {
		targetLane, err = c.target.InboundLaneData(ctx, c.lane, &best.Hash)
		if err != nil {
			return err
		}
		return checkInbound(targetLane)
	})
	if err != nil {
		return None, nil, fmt.Errorf("fetch inbound lane at %s: %w", best, err)
	}

	var sourceLane *lanes.OutboundLaneData
	err = c.retrier.Do(ctx, "source outbound lane", func() (err error) {
		sourceLane, err = c.source.OutboundLaneData(ctx, c.lane, nil)
		if err != nil {
			return err
		}
		return checkOutbound(sourceLane)
	})
	if err != nil {
		return None, nil, fmt.Errorf("fetch outbound lane: %w", err)
	}

	watermark, err := c.watermark()
	if err != nil {
		return None, nil, err
	}

	confirmation, skip := AssembleConfirmation(sourceLane, targetLane, watermark)
	if confirmation == nil {
		return skip, nil, nil
	}
	nonces := &confirmation.Range

	logger := c.logger().WithFields(log.Fields{
		"nonceStart": confirmation.Range.Start,
		"nonceEnd":   confirmation.Range.End,
		"header":     best.String(),
	})

	c.setState(ProofBuilding)
	var proof *lanes.MessagesDeliveryProof
	err = c.retrier.Do(ctx, "delivery proof", func() (err error) {
		proof, err = c.builder.Build(ctx, c.lane, *best)
		return err
	})
	if errors.Is(err, ErrHeaderNotFinalized) {
		logger.WithError(err).Debug("Best header moved on")
		return NoHeader, nonces, nil
	}
	if err != nil {
		return None, nonces, fmt.Errorf("build delivery proof: %w", err)
	}

	c.setState(Deciding)
	ok, err := c.gate.Decide(ctx, BatchDescriptor{
		Lane:      c.lane,
		Direction: lanes.Confirmation,
		Range:     confirmation.Range,
		ProofSize: uint64(proof.Size()),
	})
	if err != nil {
		return None, nonces, fmt.Errorf("decide on confirmation %s: %w", confirmation.Range, err)
	}
	if !ok {
		return Vetoed, nonces, nil
	}

	c.setState(Submitting)
	logger.WithFields(log.Fields{
		"unrewardedRelayerEntries": confirmation.RelayersState.UnrewardedRelayerEntries,
		"messagesInOldestEntry":    confirmation.RelayersState.MessagesInOldestEntry,
		"totalMessages":            confirmation.RelayersState.TotalMessages,
	}).Info("Submitting delivery proof")

	started := time.Now()
	tx, err := c.source.SubmitDeliveryProof(ctx, proof, confirmation.RelayersState)
	if err != nil {
		return None, nonces, fmt.Errorf("submit delivery proof %s: %w", confirmation.Range, err)
	}

	delivered := confirmation.Range.End
	err = c.checkConfirmed(ctx, tx, delivered)
	if err != nil {
		return None, nonces, err
	}

	written, err := c.watermarks.Advance(c.lane, lanes.Confirmation, delivered)
	if err != nil {
		return None, nonces, fmt.Errorf("advance watermark to %d: %w", delivered, err)
	}
	if written {
		c.metrics.setWatermark(c.lane, lanes.Confirmation, delivered)
	}
	c.metrics.relayed(c.lane, lanes.Confirmation, confirmation.Range.Len(), time.Since(started).Seconds())

	logger.WithFields(log.Fields{
		"txHash": tx.Hash.Hex(),
		"block":  tx.BlockHash.Hex(),
	}).Info("Confirmed delivery")

	return None, nonces, nil
}

// checkConfirmed reads the source lane in the block that included tx.
func (c *ConfirmationRunner) checkConfirmed(ctx context.Context, tx *chain.TxID, delivered uint64) error {
	var lane *lanes.OutboundLaneData
	err := c.retrier.Do(ctx, "source outbound lane after submission", func() (err error) {
		lane, err = c.source.OutboundLaneData(ctx, c.lane, &tx.BlockHash)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch outbound lane at %s: %w", tx.BlockHash.Hex(), err)
	}
	if lane.LatestReceivedNonce < delivered {
		return fmt.Errorf("%w: tx %s, latest received nonce %d, expected %d",
			ErrBatchRejected, tx.Hash.Hex(), lane.LatestReceivedNonce, delivered)
	}
	return nil
}

func (c *ConfirmationRunner) watermark() (*uint64, error) {
	nonce, ok, err := c.watermarks.Get(c.lane, lanes.Confirmation)
	if err != nil {
		return nil, fmt.Errorf("read confirmation watermark: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &nonce, nil
}
