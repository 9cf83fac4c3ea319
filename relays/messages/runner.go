package messages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/snowfork/lane-relayer/chain"
	"github.com/snowfork/lane-relayer/chain/lanes"

	log "github.com/sirupsen/logrus"
)

type State int

const (
	Idle State = iota
	Assembling
	ProofBuilding
	Deciding
	Submitting
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Assembling:
		return "assembling"
	case ProofBuilding:
		return "proof-building"
	case Deciding:
		return "deciding"
	case Submitting:
		return "submitting"
	case Error:
		return "error"
	}
	return "unknown"
}

// ErrBatchRejected means a finalized submission did not change the receiving
// lane, for example because the call failed to dispatch.
var ErrBatchRejected = errors.New("batch not applied by the receiving chain")

// ErrNoRewardAccount means delivery has no source chain account to name as
// the relayer, so its rewards would go to the zero account.
var ErrNoRewardAccount = errors.New("no relayer account at the source chain")

// ErrInvalidLaneState marks a lane record that breaks the lane invariants.
// Like a decode failure it is not retried.
var ErrInvalidLaneState = errors.New("invalid lane state")

func checkOutbound(data *lanes.OutboundLaneData) error {
	if !data.Valid() {
		return fmt.Errorf("%w: latest received nonce %d beyond latest generated nonce %d",
			ErrInvalidLaneState, data.LatestReceivedNonce, data.LatestGeneratedNonce)
	}
	return nil
}

func checkInbound(data *lanes.InboundLaneData) error {
	if !data.Valid() {
		return fmt.Errorf("%w: unrewarded relayer entries out of order after nonce %d",
			ErrInvalidLaneState, data.LastConfirmedNonce)
	}
	return nil
}

// Watermarks is the part of the watermark store a runner uses.
type Watermarks interface {
	Get(lane lanes.LaneID, direction lanes.Direction) (uint64, bool, error)
	Advance(lane lanes.LaneID, direction lanes.Direction, nonce uint64) (bool, error)
}

// runner drives one lane-direction task. step runs a single iteration and
// reports why it had nothing to do, or None when it submitted a batch, along
// with the nonce range it attempted.
type runner struct {
	lane         lanes.LaneID
	direction    lanes.Direction
	pollInterval time.Duration
	restartDelay time.Duration
	metrics      *Metrics
	// clients reconnected after a broken connection
	clients []chain.MessagesChain
	step    func(ctx context.Context) (Skip, *NonceRange, error)

	mu    sync.Mutex
	state State
}

func (r *runner) logger() *log.Entry {
	return log.WithFields(log.Fields{
		"lane":      r.lane,
		"direction": r.direction,
	})
}

func (r *runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *runner) setState(state State) {
	r.mu.Lock()
	previous := r.state
	r.state = state
	r.mu.Unlock()

	if previous != state {
		r.logger().WithFields(log.Fields{
			"from": previous,
			"to":   state,
		}).Trace("State transition")
	}
	r.metrics.setState(r.lane, r.direction, state)
}

// run loops until ctx is done. Iteration failures never end the loop.
func (r *runner) run(ctx context.Context) error {
	r.logger().Info("Starting lane task")
	for {
		wait := r.iterate(ctx)

		select {
		case <-ctx.Done():
			r.logger().Info("Stopping lane task")
			return nil
		case <-time.After(wait):
		}
	}
}

// iterate runs one step and returns how long to wait before the next.
func (r *runner) iterate(ctx context.Context) time.Duration {
	skip, nonces, err := r.step(ctx)

	switch {
	case err != nil:
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return 0
		}
		r.setState(Error)
		r.metrics.iteration(r.lane, r.direction, outcomeError)
		logger := r.logger().WithError(err)
		if nonces != nil {
			logger = logger.WithFields(log.Fields{
				"nonceStart": nonces.Start,
				"nonceEnd":   nonces.End,
			})
		}
		logger.Error("Lane task iteration failed")
		if isConnectionError(err) {
			r.reconnect(ctx)
		}
		r.setState(Idle)
		return r.restartDelay
	case skip == Vetoed:
		r.setState(Idle)
		r.metrics.iteration(r.lane, r.direction, outcomeVetoed)
		r.logger().Info("Batch vetoed by decision gate")
		return r.pollInterval
	case skip != None:
		r.setState(Idle)
		r.metrics.iteration(r.lane, r.direction, outcomeSkipped)
		r.logger().WithField("reason", string(skip)).Debug("Nothing to do")
		return r.pollInterval
	}

	r.setState(Idle)
	r.metrics.iteration(r.lane, r.direction, outcomeSubmitted)
	return 0
}

func (r *runner) reconnect(ctx context.Context) {
	for _, client := range r.clients {
		err := client.Reconnect(ctx)
		if err != nil {
			r.logger().WithError(err).WithField("chain", client.Name()).Error("Failed to reconnect")
		}
	}
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.Is(err, net.ErrClosed):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return true
	case errors.As(err, &opErr):
		return true
	}

	// Substrate RPC errors are often flattened to strings.
	msg := err.Error()
	for _, s := range []string{
		"use of closed network connection",
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"websocket: close",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
