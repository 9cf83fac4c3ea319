// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	goEthereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/snowfork/lane-relayer/config"
	"github.com/snowfork/lane-relayer/crypto/secp256k1"

	log "github.com/sirupsen/logrus"
)

const (
	defaultFinalityTimeout = 30 * time.Minute
	defaultPollInterval    = 2 * time.Second
)

var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrNotFinalized      = errors.New("transaction not finalized in time")
)

type Connection struct {
	endpoint     string
	kp           *secp256k1.Keypair
	config       *config.EthereumConfig
	pollInterval time.Duration

	mu      sync.RWMutex
	client  *ethclient.Client
	geth    *gethclient.Client
	chainID *big.Int
}

type JsonError interface {
	Error() string
	ErrorCode() int
	ErrorData() interface{}
}

func NewConnection(config *config.EthereumConfig, kp *secp256k1.Keypair) *Connection {
	return &Connection{
		endpoint:     config.Endpoint,
		kp:           kp,
		config:       config,
		pollInterval: defaultPollInterval,
	}
}

func (co *Connection) Connect(ctx context.Context) error {
	rpcClient, err := rpc.DialContext(ctx, co.endpoint)
	if err != nil {
		return err
	}
	client := ethclient.NewClient(rpcClient)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return err
	}

	log.WithFields(log.Fields{
		"endpoint": co.endpoint,
		"chainID":  chainID,
	}).Info("Connected to chain")

	co.mu.Lock()
	previous := co.client
	co.client = client
	co.geth = gethclient.New(rpcClient)
	co.chainID = chainID
	co.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	return nil
}

func (co *Connection) Reconnect(ctx context.Context) error {
	log.WithField("endpoint", co.endpoint).Info("Reconnecting")
	return co.Connect(ctx)
}

func (co *Connection) Close() {
	co.mu.RLock()
	defer co.mu.RUnlock()
	if co.client != nil {
		co.client.Close()
	}
}

func (co *Connection) Client() *ethclient.Client {
	co.mu.RLock()
	defer co.mu.RUnlock()
	return co.client
}

func (co *Connection) Geth() *gethclient.Client {
	co.mu.RLock()
	defer co.mu.RUnlock()
	return co.geth
}

func (co *Connection) Keypair() *secp256k1.Keypair {
	return co.kp
}

func (co *Connection) ChainID() *big.Int {
	co.mu.RLock()
	defer co.mu.RUnlock()
	return co.chainID
}

// FinalizedHeader returns the header tagged as finalized by the node.
func (co *Connection) FinalizedHeader(ctx context.Context) (*types.Header, error) {
	return co.Client().HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
}

func (co *Connection) queryFailingError(ctx context.Context, hash common.Hash) error {
	tx, _, err := co.Client().TransactionByHash(ctx, hash)
	if err != nil {
		return err
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return err
	}

	params := goEthereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}

	log.WithFields(log.Fields{
		"From":     from,
		"To":       tx.To(),
		"Gas":      tx.Gas(),
		"GasPrice": tx.GasPrice(),
		"Value":    tx.Value(),
		"Data":     hex.EncodeToString(tx.Data()),
	}).Info("Call info")

	// Replaying the call surfaces the revert reason, which the receipt omits.
	_, err = co.Client().CallContract(ctx, params, nil)
	if err != nil {
		return err
	}
	return nil
}

func (co *Connection) waitForFinalized(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	timeout := time.Duration(co.config.FinalityTimeout) * time.Second
	if timeout == 0 {
		timeout = defaultFinalityTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		receipt, err := co.pollTransaction(ctx, tx)
		if err != nil {
			return nil, err
		}

		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %s after %s", ErrNotFinalized, tx.Hash().Hex(), timeout)
		case <-time.After(co.pollInterval):
		}
	}
}

// pollTransaction returns the receipt once the including block is finalized
// and still canonical.
func (co *Connection) pollTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := co.Client().TransactionReceipt(ctx, tx.Hash())
	if err != nil {
		if errors.Is(err, goEthereum.NotFound) {
			return nil, nil
		}
		return nil, err
	}

	finalized, err := co.FinalizedHeader(ctx)
	if err != nil {
		return nil, err
	}

	if finalized.Number.Cmp(receipt.BlockNumber) < 0 {
		return nil, nil
	}

	canonical, err := co.Client().HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil {
		return nil, err
	}
	if canonical.Hash() != receipt.BlockHash {
		log.WithFields(log.Fields{
			"txHash": tx.Hash().Hex(),
			"block":  receipt.BlockHash.Hex(),
		}).Warn("Transaction included in a block that was reorganised out")
		return nil, nil
	}

	return receipt, nil
}

// WatchTransaction waits until tx is part of a finalized block and checks that
// it succeeded.
func (co *Connection) WatchTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := co.waitForFinalized(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		err = co.queryFailingError(ctx, receipt.TxHash)
		logFields := log.Fields{
			"txHash": tx.Hash().Hex(),
		}
		if err != nil {
			logFields["error"] = err.Error()
			jsonErr, ok := err.(JsonError)
			if ok {
				errorCode := fmt.Sprintf("%v", jsonErr.ErrorData())
				logFields["code"] = errorCode
			}
		}
		log.WithFields(logFields).Error("Failed to send transaction")
		if err != nil {
			return receipt, fmt.Errorf("%w: %s: %v", ErrTransactionFailed, tx.Hash().Hex(), err)
		}
		return receipt, fmt.Errorf("%w: %s", ErrTransactionFailed, tx.Hash().Hex())
	}
	return receipt, nil
}

func (co *Connection) MakeTxOpts(ctx context.Context) *bind.TransactOpts {
	chainID := co.ChainID()
	keypair := co.Keypair()

	options := bind.TransactOpts{
		From: keypair.CommonAddress(),
		Signer: func(_ common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return types.SignTx(tx, types.LatestSignerForChainID(chainID), keypair.PrivateKey())
		},
		Context: ctx,
	}

	if co.config.GasFeeCap > 0 {
		fee := big.NewInt(0)
		fee.SetUint64(co.config.GasFeeCap)
		options.GasFeeCap = fee
	}

	if co.config.GasTipCap > 0 {
		tip := big.NewInt(0)
		tip.SetUint64(co.config.GasTipCap)
		options.GasTipCap = tip
	}

	if co.config.GasLimit > 0 {
		options.GasLimit = co.config.GasLimit
	}

	return &options
}
