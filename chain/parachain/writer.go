// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package parachain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/snowfork/go-substrate-rpc-client/v4/rpc/author"
	"github.com/snowfork/go-substrate-rpc-client/v4/types"
	"golang.org/x/crypto/blake2b"

	"github.com/snowfork/lane-relayer/chain"
)

const defaultFinalityTimeout = 5 * time.Minute

// ParachainWriter signs and submits extrinsics with a locally tracked account
// nonce. Signing and submission are serialized; waiting for finality is not.
type ParachainWriter struct {
	conn            *Connection
	pool            *ExtrinsicPool
	mortalEraPeriod uint64
	nonce           uint32
	mu              sync.Mutex
}

func NewParachainWriter(
	conn *Connection,
	maxWatchedExtrinsics int64,
	mortalEraPeriod uint64,
	finalityTimeout time.Duration,
) *ParachainWriter {
	if finalityTimeout == 0 {
		finalityTimeout = defaultFinalityTimeout
	}
	return &ParachainWriter{
		conn:            conn,
		pool:            NewExtrinsicPool(maxWatchedExtrinsics, finalityTimeout),
		mortalEraPeriod: mortalEraPeriod,
	}
}

func (wr *ParachainWriter) Start(_ context.Context) error {
	nonce, err := wr.queryAccountNonce()
	if err != nil {
		return fmt.Errorf("query account nonce: %w", err)
	}

	wr.mu.Lock()
	wr.nonce = nonce
	wr.mu.Unlock()

	return nil
}

// WriteToParachainAndWatch submits the call and waits until the including
// block is finalized.
func (wr *ParachainWriter) WriteToParachainAndWatch(ctx context.Context, extrinsicName string, payload ...interface{}) (*chain.TxID, error) {
	release, err := wr.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ext, sub, err := wr.writeToParachain(ctx, extrinsicName, payload...)
	if err != nil {
		return nil, err
	}

	extHash, err := extrinsicHash(ext)
	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"extrinsic": extrinsicName,
		"nonce":     nonce(ext),
		"txHash":    extHash.Hex(),
	})
	logger.Info("Submitted extrinsic")

	blockHash, err := wr.pool.WaitForFinalized(ctx, sub, ext)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", extrinsicName, err)
	}

	logger.WithField("block", blockHash.Hex()).Debug("Extrinsic finalized")

	return &chain.TxID{
		Hash:      extHash,
		BlockHash: common.Hash(blockHash),
	}, nil
}

func (wr *ParachainWriter) writeToParachain(
	ctx context.Context,
	extrinsicName string,
	payload ...interface{},
) (*types.Extrinsic, *author.ExtrinsicStatusSubscription, error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	ext, err := wr.prepExtrinstic(ctx, extrinsicName, payload...)
	if err != nil {
		return nil, nil, err
	}

	sub, err := wr.conn.API().RPC.Author.SubmitAndWatchExtrinsic(*ext)
	if err != nil {
		// The local nonce may have drifted, for example after another
		// process used the same account.
		if nonce, qerr := wr.queryAccountNonce(); qerr == nil {
			wr.nonce = nonce
		}
		return nil, nil, fmt.Errorf("submit %s: %w", extrinsicName, err)
	}

	wr.nonce = wr.nonce + 1

	return ext, sub, nil
}

func (wr *ParachainWriter) queryAccountNonce() (uint32, error) {
	key, err := types.CreateStorageKey(wr.conn.Metadata(), "System", "Account", wr.conn.Keypair().PublicKey, nil)
	if err != nil {
		return 0, err
	}

	var accountInfo types.AccountInfo
	ok, err := wr.conn.API().RPC.State.GetStorageLatest(key, &accountInfo)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("no account info found for %s", wr.conn.Keypair().Address)
	}

	return uint32(accountInfo.Nonce), nil
}

func (wr *ParachainWriter) prepExtrinstic(_ context.Context, extrinsicName string, payload ...interface{}) (*types.Extrinsic, error) {
	meta := wr.conn.Metadata()

	c, err := types.NewCall(meta, extrinsicName, payload...)
	if err != nil {
		return nil, fmt.Errorf("create call %s: %w", extrinsicName, err)
	}

	latestHash, latestHeader, err := wr.conn.GetFinalizedHeader()
	if err != nil {
		return nil, err
	}

	rv, err := wr.conn.API().RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return nil, err
	}

	ext := types.NewExtrinsic(c)
	era := NewMortalEra(uint64(latestHeader.Number), wr.mortalEraPeriod)

	o := types.SignatureOptions{
		BlockHash:          latestHash,
		Era:                era,
		GenesisHash:        wr.conn.GenesisHash(),
		Nonce:              types.NewUCompactFromUInt(uint64(wr.nonce)),
		SpecVersion:        rv.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: rv.TransactionVersion,
	}

	err = ext.Sign(*wr.conn.Keypair(), o)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", extrinsicName, err)
	}

	return &ext, nil
}

func extrinsicHash(ext *types.Extrinsic) (common.Hash, error) {
	encoded, err := types.EncodeToBytes(*ext)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode extrinsic: %w", err)
	}
	return common.Hash(blake2b.Sum256(encoded)), nil
}
