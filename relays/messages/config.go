package messages

import (
	"errors"
	"fmt"
	"time"

	"github.com/snowfork/lane-relayer/chain/ethereum"
	"github.com/snowfork/lane-relayer/chain/lanes"
	"github.com/snowfork/lane-relayer/chain/parachain"
	"github.com/snowfork/lane-relayer/relays"
)

const (
	KindSubstrate = "substrate"
	KindEthereum  = "ethereum"

	defaultPollInterval = 12 * time.Second
	defaultRestartDelay = 10 * time.Second
	maxRestartDelay     = 600

	defaultRelayerID = "default"
)

var ErrInvalidBatchLimit = errors.New("batch-limit must be at least 1")

type Config struct {
	Source       ChainConfig        `mapstructure:"source"`
	Target       ChainConfig        `mapstructure:"target"`
	Lanes        []lanes.LaneID     `mapstructure:"lanes"`
	Delivery     DeliveryConfig     `mapstructure:"delivery"`
	Confirmation ConfirmationConfig `mapstructure:"confirmation"`
	Finality     FinalityConfig     `mapstructure:"finality"`
	Store        StoreConfig        `mapstructure:"store"`
	Retry        RetryConfig        `mapstructure:"retry"`
}

type ChainConfig struct {
	Name      string                   `mapstructure:"name"`
	Kind      string                   `mapstructure:"kind"`
	Substrate parachain.MessagesConfig `mapstructure:"substrate"`
	Ethereum  ethereum.MessagesConfig  `mapstructure:"ethereum"`
}

type DirectionConfig struct {
	relays.WorkerConfig `mapstructure:",squash"`
	// Poll interval in seconds
	PollInterval uint `mapstructure:"poll-interval"`
}

type DeliveryConfig struct {
	DirectionConfig `mapstructure:",squash"`
	// Maximum number of messages per batch
	BatchLimit uint64 `mapstructure:"batch-limit"`
	// Skip delivery while the target's unrewarded window is this full. 0 disables.
	MaxUnrewardedRelayerEntries uint64 `mapstructure:"max-unrewarded-relayer-entries"`
	MaxUnconfirmedMessages      uint64 `mapstructure:"max-unconfirmed-messages"`
	// Batches are cut to the longest prefix within these. 0 disables.
	MaxMessagesSize uint64 `mapstructure:"max-messages-size"`
	MaxRefTime      uint64 `mapstructure:"max-ref-time"`
	MaxProofSize    uint64 `mapstructure:"max-proof-size"`
}

type ConfirmationConfig struct {
	DirectionConfig `mapstructure:",squash"`
}

type FinalityConfig struct {
	// When set, best finalized headers are polled every this many seconds
	// into an in-process tracker instead of being read on every iteration.
	PollInterval uint `mapstructure:"poll-interval"`
	Capacity     int  `mapstructure:"capacity"`
}

type StoreConfig struct {
	// LevelDB directory. Watermarks are kept in memory when empty.
	Path      string `mapstructure:"path"`
	RelayerID string `mapstructure:"relayer-id"`
}

type RetryConfig struct {
	Attempts uint `mapstructure:"attempts"`
	DelayMs  uint `mapstructure:"delay-ms"`
}

func (c Config) Validate() error {
	err := c.Source.Validate()
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	err = c.Target.Validate()
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}

	if len(c.Lanes) == 0 {
		return errors.New("no lanes configured")
	}
	seen := make(map[lanes.LaneID]struct{}, len(c.Lanes))
	for _, lane := range c.Lanes {
		if _, ok := seen[lane]; ok {
			return fmt.Errorf("lane %s configured twice", lane)
		}
		seen[lane] = struct{}{}
	}

	err = c.Delivery.Validate()
	if err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	err = c.Confirmation.Validate()
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !c.Delivery.Enabled && !c.Confirmation.Enabled {
		return errors.New("neither delivery nor confirmation is enabled")
	}

	return nil
}

func (c ChainConfig) Validate() error {
	switch c.Kind {
	case KindSubstrate:
		return c.Substrate.Validate()
	case KindEthereum:
		return c.Ethereum.Validate()
	}
	return fmt.Errorf("unknown chain kind %q", c.Kind)
}

// DisplayName is the configured name, or the chain kind.
func (c ChainConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Kind
}

func (c DirectionConfig) Validate() error {
	if c.RestartDelay > maxRestartDelay {
		return fmt.Errorf("restart-delay must be between 1 and %d seconds", maxRestartDelay)
	}
	return nil
}

func (c DirectionConfig) pollInterval() time.Duration {
	if c.PollInterval == 0 {
		return defaultPollInterval
	}
	return time.Duration(c.PollInterval) * time.Second
}

func (c DirectionConfig) restartDelay() time.Duration {
	if c.RestartDelay == 0 {
		return defaultRestartDelay
	}
	return time.Duration(c.RestartDelay) * time.Second
}

func (c DeliveryConfig) Validate() error {
	if c.BatchLimit == 0 {
		return ErrInvalidBatchLimit
	}
	return c.DirectionConfig.Validate()
}

func (c DeliveryConfig) limits() DeliveryLimits {
	return DeliveryLimits{
		MaxUnrewardedRelayerEntries: c.MaxUnrewardedRelayerEntries,
		MaxUnconfirmedMessages:      c.MaxUnconfirmedMessages,
	}
}

func (c DeliveryConfig) batchLimits() BatchLimits {
	return BatchLimits{
		MaxMessagesSize: c.MaxMessagesSize,
		MaxWeight: lanes.Weight{
			RefTime:   c.MaxRefTime,
			ProofSize: c.MaxProofSize,
		},
	}
}

func (c StoreConfig) relayerID() string {
	if c.RelayerID == "" {
		return defaultRelayerID
	}
	return c.RelayerID
}
