package messages

import (
	"context"

	"github.com/snowfork/lane-relayer/chain/lanes"
)

// BatchDescriptor is what a decision gate sees of a batch.
type BatchDescriptor struct {
	Lane         lanes.LaneID
	Direction    lanes.Direction
	Range        NonceRange
	MessagesSize uint64
	ProofSize    uint64
	Weight       lanes.Weight
}

// DecisionGate is consulted once per batch after the proof is built. A false
// result skips submission without an error.
type DecisionGate interface {
	Decide(ctx context.Context, batch BatchDescriptor) (bool, error)
}

// AlwaysRelay accepts every batch. Size and weight limits are applied while
// the batch is built, so a gate only carries external decisions.
type AlwaysRelay struct{}

func (AlwaysRelay) Decide(context.Context, BatchDescriptor) (bool, error) {
	return true, nil
}
