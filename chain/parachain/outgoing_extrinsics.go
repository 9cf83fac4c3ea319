// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package parachain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/snowfork/go-substrate-rpc-client/v4/rpc/author"
	"github.com/snowfork/go-substrate-rpc-client/v4/types"
	"golang.org/x/sync/semaphore"
)

var (
	ErrNotFinalized     = errors.New("extrinsic not finalized in time")
	ErrExtrinsicRemoved = errors.New("extrinsic removed from the transaction pool")
)

// ExtrinsicPool bounds the number of extrinsics watched at once across all
// lane tasks sharing a writer.
type ExtrinsicPool struct {
	sem             *semaphore.Weighted
	finalityTimeout time.Duration
}

func NewExtrinsicPool(maxWatchedExtrinsics int64, finalityTimeout time.Duration) *ExtrinsicPool {
	if maxWatchedExtrinsics < 1 {
		maxWatchedExtrinsics = 1
	}
	return &ExtrinsicPool{
		sem:             semaphore.NewWeighted(maxWatchedExtrinsics),
		finalityTimeout: finalityTimeout,
	}
}

// Acquire reserves a watch slot. The returned function releases it.
func (ep *ExtrinsicPool) Acquire(ctx context.Context) (func(), error) {
	err := ep.sem.Acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	return func() { ep.sem.Release(1) }, nil
}

// WaitForFinalized blocks until the extrinsic is finalized, removed from the
// pool, or the finality timeout elapses.
func (ep *ExtrinsicPool) WaitForFinalized(
	ctx context.Context,
	sub *author.ExtrinsicStatusSubscription,
	ext *types.Extrinsic,
) (types.Hash, error) {
	defer sub.Unsubscribe()
	return ep.awaitFinalized(ctx, sub.Chan(), sub.Err(), nonce(ext))
}

func (ep *ExtrinsicPool) awaitFinalized(
	ctx context.Context,
	statuses <-chan types.ExtrinsicStatus,
	errs <-chan error,
	nonce uint64,
) (types.Hash, error) {
	timeout := time.NewTimer(ep.finalityTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return types.Hash{}, ctx.Err()
		case <-timeout.C:
			log.WithField("nonce", nonce).Error("Extrinsic not finalized in time")
			return types.Hash{}, fmt.Errorf("%w: waited %s", ErrNotFinalized, ep.finalityTimeout)
		case err := <-errs:
			log.WithError(err).WithField("nonce", nonce).Error("Subscription failed for extrinsic status")
			return types.Hash{}, err
		case status := <-statuses:
			// https://github.com/paritytech/substrate/blob/29aca981db5e8bf8b5538e6c7920ded917013ef3/primitives/transaction-pool/src/pool.rs#L56-L127
			if status.IsDropped || status.IsInvalid || status.IsUsurped || status.IsFinalityTimeout {
				log.WithFields(log.Fields{
					"nonce":  nonce,
					"reason": reason(&status),
				}).Error("Extrinsic removed from the transaction pool")
				return types.Hash{}, fmt.Errorf("%w: %s", ErrExtrinsicRemoved, reason(&status))
			}
			if status.IsInBlock {
				log.WithFields(log.Fields{
					"nonce": nonce,
					"block": status.AsInBlock.Hex(),
				}).Debug("Extrinsic included in block")
			}
			if status.IsFinalized {
				return status.AsFinalized, nil
			}
		}
	}
}

func nonce(ext *types.Extrinsic) uint64 {
	nonce := big.Int(ext.Signature.Nonce)
	return nonce.Uint64()
}

func reason(status *types.ExtrinsicStatus) string {
	switch {
	case status.IsInBlock:
		return "InBlock"
	case status.IsDropped:
		return "Dropped"
	case status.IsInvalid:
		return "Invalid"
	case status.IsUsurped:
		return "Usurped"
	case status.IsFinalityTimeout:
		return "FinalityTimeout"
	}
	return ""
}
