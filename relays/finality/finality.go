package finality

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snowfork/lane-relayer/chain"

	log "github.com/sirupsen/logrus"
)

// Source reports the most recent header of a bridged chain that the light
// client of another chain has accepted. A nil header means none is known yet.
type Source interface {
	BestTargetFinalized(ctx context.Context) (*chain.HeaderID, error)
}

// OnChain reads the best bridged header straight from the light client of
// the chain hosting it.
type OnChain struct {
	host chain.FinalityReader
}

func NewOnChain(host chain.FinalityReader) *OnChain {
	return &OnChain{host: host}
}

func (o *OnChain) BestTargetFinalized(ctx context.Context) (*chain.HeaderID, error) {
	return o.host.BestBridgedFinalized(ctx)
}

// Tracker keeps the best header published by a header relay. Publishers
// block once the channel is full.
type Tracker struct {
	headers chan chain.HeaderID
	mu      sync.RWMutex
	best    *chain.HeaderID
}

func NewTracker(capacity int) *Tracker {
	if capacity < 1 {
		capacity = 1
	}
	return &Tracker{
		headers: make(chan chain.HeaderID, capacity),
	}
}

// Publish hands a newly accepted header to the tracker.
func (t *Tracker) Publish(ctx context.Context, header chain.HeaderID) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case t.headers <- header:
		return nil
	}
}

func (t *Tracker) Start(ctx context.Context, eg *errgroup.Group) error {
	eg.Go(func() error {
		err := t.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return nil
}

// Run consumes published headers until ctx is done. Headers that do not
// advance the best known number are dropped.
func (t *Tracker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case header := <-t.headers:
			t.update(header)
		}
	}
}

func (t *Tracker) update(header chain.HeaderID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.best != nil && header.Number <= t.best.Number {
		return false
	}
	t.best = &header
	log.WithField("header", header.String()).Trace("Advanced best finalized header")
	return true
}

func (t *Tracker) BestTargetFinalized(_ context.Context) (*chain.HeaderID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.best == nil {
		return nil, nil
	}
	best := *t.best
	return &best, nil
}

// Follow polls source every interval and publishes what it reports into the
// tracker. It is the in-process header relay for deployments where the light
// client is updated by another process.
func Follow(ctx context.Context, source Source, tracker *Tracker, interval time.Duration) error {
	for {
		header, err := source.BestTargetFinalized(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.WithError(err).Warn("Failed to poll best finalized header")
		} else if header != nil {
			err = tracker.Publish(ctx, *header)
			if err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
