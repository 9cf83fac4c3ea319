// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package parachain

import (
	"context"
	"fmt"
	"sync"

	gsrpc "github.com/snowfork/go-substrate-rpc-client/v4"
	"github.com/snowfork/go-substrate-rpc-client/v4/signature"
	"github.com/snowfork/go-substrate-rpc-client/v4/types"

	log "github.com/sirupsen/logrus"
)

// Connection is shared by every lane task talking to the chain. The API
// handle is swapped on Reconnect, so callers fetch it per request.
type Connection struct {
	endpoint    string
	kp          *signature.KeyringPair
	mu          sync.RWMutex
	api         *gsrpc.SubstrateAPI
	metadata    *types.Metadata
	genesisHash types.Hash
}

func NewConnection(endpoint string, kp *signature.KeyringPair) *Connection {
	return &Connection{
		endpoint: endpoint,
		kp:       kp,
	}
}

func (co *Connection) API() *gsrpc.SubstrateAPI {
	co.mu.RLock()
	defer co.mu.RUnlock()
	return co.api
}

func (co *Connection) Metadata() *types.Metadata {
	co.mu.RLock()
	defer co.mu.RUnlock()
	return co.metadata
}

func (co *Connection) Keypair() *signature.KeyringPair {
	return co.kp
}

func (co *Connection) GenesisHash() types.Hash {
	co.mu.RLock()
	defer co.mu.RUnlock()
	return co.genesisHash
}

func (co *Connection) Connect(_ context.Context) error {
	api, err := gsrpc.NewSubstrateAPI(co.endpoint)
	if err != nil {
		return fmt.Errorf("dial %s: %w", co.endpoint, err)
	}

	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		closeAPI(api)
		return fmt.Errorf("fetch metadata: %w", err)
	}

	genesisHash, err := api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		closeAPI(api)
		return fmt.Errorf("fetch genesis hash: %w", err)
	}

	co.mu.Lock()
	previous := co.api
	co.api = api
	co.metadata = meta
	co.genesisHash = genesisHash
	co.mu.Unlock()

	closeAPI(previous)

	log.WithFields(log.Fields{
		"endpoint":    co.endpoint,
		"metaVersion": meta.Version,
	}).Info("Connected to chain")

	return nil
}

func (co *Connection) Reconnect(ctx context.Context) error {
	log.WithField("endpoint", co.endpoint).Warn("Reconnecting to chain")
	return co.Connect(ctx)
}

// Close releases the current websocket. The connection can be reopened with
// Connect.
func (co *Connection) Close() {
	co.mu.Lock()
	api := co.api
	co.api = nil
	co.mu.Unlock()

	closeAPI(api)
}

// The gsrpc client interface has no Close, but its websocket client does.
func closeAPI(api *gsrpc.SubstrateAPI) {
	if api == nil || api.Client == nil {
		return
	}
	if closer, ok := api.Client.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (co *Connection) GetFinalizedHeader() (types.Hash, *types.Header, error) {
	finalizedHash, err := co.API().RPC.Chain.GetFinalizedHead()
	if err != nil {
		return types.Hash{}, nil, err
	}

	finalizedHeader, err := co.API().RPC.Chain.GetHeader(finalizedHash)
	if err != nil {
		return types.Hash{}, nil, err
	}

	return finalizedHash, finalizedHeader, nil
}

// GetStorage reads a storage item at the given block, or at the best block
// when at is nil.
func (co *Connection) GetStorage(key types.StorageKey, target interface{}, at *types.Hash) (bool, error) {
	if at == nil {
		return co.API().RPC.State.GetStorageLatest(key, target)
	}
	return co.API().RPC.State.GetStorage(key, target, *at)
}
