package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/snowfork/lane-relayer/chain"
	"github.com/snowfork/lane-relayer/chain/ethereum"
	"github.com/snowfork/lane-relayer/chain/parachain"
	"github.com/snowfork/lane-relayer/crypto"
	"github.com/snowfork/lane-relayer/crypto/secp256k1"
	"github.com/snowfork/lane-relayer/crypto/sr25519"
	"github.com/snowfork/lane-relayer/relays/finality"
	"github.com/snowfork/lane-relayer/store"

	log "github.com/sirupsen/logrus"
)

// Keys are the signing keys per chain family. A missing key leaves that
// family read-only.
type Keys struct {
	Substrate *sr25519.Keypair
	Ethereum  *secp256k1.Keypair
}

func (k Keys) forKind(kind string) crypto.Keypair {
	switch {
	case kind == KindSubstrate && k.Substrate != nil:
		return k.Substrate
	case kind == KindEthereum && k.Ethereum != nil:
		return k.Ethereum
	}
	return nil
}

type messagesClient interface {
	chain.MessagesChain
	Start(ctx context.Context) error
}

type Relay struct {
	config  *Config
	keys    Keys
	source  messagesClient
	target  messagesClient
	metrics *Metrics
	gate    DecisionGate
	store   *store.WatermarkStore
}

func NewRelay(config *Config, keys Keys, registerer prometheus.Registerer) (*Relay, error) {
	log.Info("Creating worker")

	source, err := newMessagesClient(config.Source, keys)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	target, err := newMessagesClient(config.Target, keys)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	return &Relay{
		config:  config,
		keys:    keys,
		source:  source,
		target:  target,
		metrics: NewMetrics(registerer),
		gate:    AlwaysRelay{},
	}, nil
}

func newMessagesClient(config ChainConfig, keys Keys) (messagesClient, error) {
	name := config.DisplayName()
	switch config.Kind {
	case KindSubstrate:
		var conn *parachain.Connection
		if keys.Substrate != nil {
			conn = parachain.NewConnection(config.Substrate.Endpoint, keys.Substrate.AsKeyringPair())
		} else {
			conn = parachain.NewConnection(config.Substrate.Endpoint, nil)
		}
		return parachain.NewMessagesClient(name, &config.Substrate, conn), nil
	case KindEthereum:
		conn := ethereum.NewConnection(&config.Ethereum.EthereumConfig, keys.Ethereum)
		return ethereum.NewMessagesClient(name, &config.Ethereum, conn), nil
	}
	return nil, fmt.Errorf("unknown chain kind %q", config.Kind)
}

func (relay *Relay) Start(ctx context.Context, eg *errgroup.Group) error {
	err := relay.source.Start(ctx)
	if err != nil {
		return err
	}
	err = relay.target.Start(ctx)
	if err != nil {
		return err
	}

	relay.store, err = relay.openStore()
	if err != nil {
		return err
	}
	err = relay.loadWatermarks()
	if err != nil {
		return err
	}

	relay.logAccounts()

	// The target hosts the light client of the source and vice versa.
	var deliveryFinality finality.Source = finality.NewOnChain(relay.target)
	var confirmationFinality finality.Source = finality.NewOnChain(relay.source)
	if relay.config.Finality.PollInterval > 0 {
		deliveryFinality, err = relay.follow(ctx, eg, deliveryFinality)
		if err != nil {
			return err
		}
		confirmationFinality, err = relay.follow(ctx, eg, confirmationFinality)
		if err != nil {
			return err
		}
	}

	retrier := NewRetrier(relay.config.Retry)

	for _, lane := range relay.config.Lanes {
		if relay.config.Delivery.Enabled {
			log.WithField("lane", lane).Info("Starting delivery")
			runner := NewDeliveryRunner(
				lane,
				relay.config.Delivery,
				relay.source,
				relay.target,
				deliveryFinality,
				relay.gate,
				relay.store,
				relay.metrics,
				retrier,
			)
			err = runner.Start(ctx, eg)
			if err != nil {
				return err
			}
		}

		if relay.config.Confirmation.Enabled {
			log.WithField("lane", lane).Info("Starting confirmation")
			runner := NewConfirmationRunner(
				lane,
				relay.config.Confirmation,
				relay.source,
				relay.target,
				confirmationFinality,
				relay.gate,
				relay.store,
				relay.metrics,
				retrier,
			)
			err = runner.Start(ctx, eg)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Close releases connections and the watermark store once every task has
// stopped.
func (relay *Relay) Close() error {
	for _, client := range []messagesClient{relay.source, relay.target} {
		if closer, ok := client.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	if relay.store == nil {
		return nil
	}
	return relay.store.Close()
}

func (relay *Relay) openStore() (*store.WatermarkStore, error) {
	id := relay.config.Store.relayerID()
	if relay.config.Store.Path == "" {
		log.Warn("No store path configured, watermarks will not survive a restart")
		return store.NewMemory(id), nil
	}
	return store.Open(relay.config.Store.Path, id)
}

func (relay *Relay) loadWatermarks() error {
	watermarks, err := relay.store.List()
	if err != nil {
		return fmt.Errorf("load watermarks: %w", err)
	}
	for _, w := range watermarks {
		relay.metrics.setWatermark(w.Lane, w.Direction, w.Nonce)
		log.WithFields(log.Fields{
			"lane":      w.Lane,
			"direction": w.Direction,
			"nonce":     w.Nonce,
		}).Debug("Loaded watermark")
	}
	return nil
}

func (relay *Relay) logAccounts() {
	for _, side := range []struct {
		config ChainConfig
		client messagesClient
	}{
		{relay.config.Source, relay.source},
		{relay.config.Target, relay.target},
	} {
		fields := log.Fields{
			"chain":   side.client.Name(),
			"account": side.client.RelayerAccount().Hex(),
		}
		if kp := relay.keys.forKind(side.config.Kind); kp != nil {
			fields["address"] = kp.Address()
		} else {
			fields["address"] = "none"
		}
		log.WithFields(fields).Info("Relayer account")
	}
}

func (relay *Relay) follow(ctx context.Context, eg *errgroup.Group, source finality.Source) (finality.Source, error) {
	tracker := finality.NewTracker(relay.config.Finality.Capacity)
	interval := time.Duration(relay.config.Finality.PollInterval) * time.Second

	err := tracker.Start(ctx, eg)
	if err != nil {
		return nil, err
	}
	eg.Go(func() error {
		err := finality.Follow(ctx, source, tracker, interval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return tracker, nil
}
