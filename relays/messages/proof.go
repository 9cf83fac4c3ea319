package messages

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/snowfork/lane-relayer/chain"
	"github.com/snowfork/lane-relayer/chain/lanes"
	"github.com/snowfork/lane-relayer/relays/finality"

	log "github.com/sirupsen/logrus"
)

var ErrHeaderNotFinalized = errors.New("header not finalized at the other side")

// DecodeError marks a message payload that could not be decoded. The batch
// containing it must not be submitted.
type DecodeError struct {
	Nonce uint64
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload of message %d: %v", e.Nonce, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type messagesSource interface {
	chain.LaneReader
	chain.KeyBuilder
	chain.ProofReader
	chain.PayloadDecoder
}

type laneStateSource interface {
	chain.KeyBuilder
	chain.ProofReader
}

// DeliveryBatch is a messages proof with the totals the target needs.
type DeliveryBatch struct {
	Proof        *lanes.MessagesProof
	Range        NonceRange
	Count        uint32
	Weight       lanes.Weight
	MessagesSize uint64
}

// checkFinalized fails unless at is the header the other side's light
// client currently accepts.
func checkFinalized(ctx context.Context, oracle finality.Source, at chain.HeaderID) error {
	best, err := oracle.BestTargetFinalized(ctx)
	if err != nil {
		return fmt.Errorf("fetch best finalized header: %w", err)
	}
	if best == nil {
		return fmt.Errorf("%w: %s, none known", ErrHeaderNotFinalized, at)
	}
	if best.Hash != at.Hash {
		return fmt.Errorf("%w: %s, best is %s", ErrHeaderNotFinalized, at, best)
	}
	return nil
}

// BatchLimits bound the messages packed into one delivery. Zero disables a
// limit.
type BatchLimits struct {
	MaxMessagesSize uint64
	MaxWeight       lanes.Weight
}

func (l BatchLimits) exceeded(size uint64, weight lanes.Weight) bool {
	return (l.MaxMessagesSize > 0 && size > l.MaxMessagesSize) ||
		(l.MaxWeight.RefTime > 0 && weight.RefTime > l.MaxWeight.RefTime) ||
		(l.MaxWeight.ProofSize > 0 && weight.ProofSize > l.MaxWeight.ProofSize)
}

// MessagesProofBuilder proves outbound messages of the source chain.
type MessagesProofBuilder struct {
	source   messagesSource
	finality finality.Source
	limits   BatchLimits
}

func NewMessagesProofBuilder(source messagesSource, oracle finality.Source, limits BatchLimits) *MessagesProofBuilder {
	return &MessagesProofBuilder{source: source, finality: oracle, limits: limits}
}

// Build proves the longest prefix of r at header at that fits the batch
// limits. The first message is always included, even when it exceeds them
// alone. With includeLaneState the outbound lane record is proved alongside,
// so the target learns the latest received nonce.
func (b *MessagesProofBuilder) Build(
	ctx context.Context,
	lane lanes.LaneID,
	r NonceRange,
	at chain.HeaderID,
	includeLaneState bool,
) (*DeliveryBatch, error) {
	if r.Len() == 0 || r.Len() > math.MaxUint32 {
		return nil, fmt.Errorf("invalid nonce range %s", r)
	}

	err := checkFinalized(ctx, b.finality, at)
	if err != nil {
		return nil, err
	}

	messages, err := b.source.OutboundMessages(ctx, lane, r.Start, r.End, at.Hash)
	if err != nil {
		return nil, fmt.Errorf("fetch messages %s: %w", r, err)
	}
	if uint64(len(messages)) != r.Len() {
		return nil, fmt.Errorf("fetch messages %s: got %d messages", r, len(messages))
	}

	var weight lanes.Weight
	var size uint64
	keys := make([]chain.StorageKey, 0, len(messages)+1)
	count := 0
	for i, message := range messages {
		nonce := r.Start + uint64(i)
		if message.Key.Nonce != nonce {
			return nil, fmt.Errorf("fetch messages %s: message %d out of order", r, message.Key.Nonce)
		}

		payload, err := b.source.DecodeMessagePayload(message.Payload)
		if err != nil {
			return nil, &DecodeError{Nonce: nonce, Err: err}
		}

		nextWeight := weight.Add(payload.Weight)
		nextSize := size + uint64(len(message.Payload))
		if b.limits.exceeded(nextSize, nextWeight) {
			if count > 0 {
				break
			}
			log.WithFields(log.Fields{
				"lane":      lane,
				"nonce":     nonce,
				"size":      nextSize,
				"refTime":   nextWeight.RefTime,
				"proofSize": nextWeight.ProofSize,
			}).Warn("Message exceeds batch limits on its own, delivering it alone")
		}
		weight, size = nextWeight, nextSize
		count++

		nonceKeys, err := b.source.MessageKeys(lane, nonce, message.Payload)
		if err != nil {
			return nil, err
		}
		keys = append(keys, nonceKeys...)
	}

	if uint64(count) < r.Len() {
		log.WithFields(log.Fields{
			"lane":     lane,
			"range":    r.String(),
			"messages": count,
		}).Debug("Cut batch to fit limits")
		r.End = r.Start + uint64(count) - 1
	}

	if includeLaneState {
		key, err := b.source.OutboundLaneKey(lane)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	nodes, err := b.source.ReadProof(ctx, keys, at.Hash)
	if err != nil {
		return nil, fmt.Errorf("read proof at %s: %w", at, err)
	}

	log.WithFields(log.Fields{
		"lane":       lane,
		"nonceStart": r.Start,
		"nonceEnd":   r.End,
		"header":     at.String(),
		"keys":       len(keys),
		"laneState":  includeLaneState,
	}).Debug("Built messages proof")

	return &DeliveryBatch{
		Proof: &lanes.MessagesProof{
			BridgedHeaderHash: at.Hash,
			StorageProof:      nodes,
			Lane:              lane,
			NoncesStart:       r.Start,
			NoncesEnd:         r.End,
		},
		Range:        r,
		Count:        uint32(r.Len()),
		Weight:       weight,
		MessagesSize: size,
	}, nil
}

// DeliveryProofBuilder proves the inbound lane of the target chain.
type DeliveryProofBuilder struct {
	target   laneStateSource
	finality finality.Source
}

func NewDeliveryProofBuilder(target laneStateSource, oracle finality.Source) *DeliveryProofBuilder {
	return &DeliveryProofBuilder{target: target, finality: oracle}
}

func (b *DeliveryProofBuilder) Build(ctx context.Context, lane lanes.LaneID, at chain.HeaderID) (*lanes.MessagesDeliveryProof, error) {
	err := checkFinalized(ctx, b.finality, at)
	if err != nil {
		return nil, err
	}

	key, err := b.target.InboundLaneKey(lane)
	if err != nil {
		return nil, err
	}

	nodes, err := b.target.ReadProof(ctx, []chain.StorageKey{key}, at.Hash)
	if err != nil {
		return nil, fmt.Errorf("read proof at %s: %w", at, err)
	}

	log.WithFields(log.Fields{
		"lane":   lane,
		"header": at.String(),
	}).Debug("Built delivery proof")

	return &lanes.MessagesDeliveryProof{
		BridgedHeaderHash: at.Hash,
		StorageProof:      nodes,
		Lane:              lane,
	}, nil
}
