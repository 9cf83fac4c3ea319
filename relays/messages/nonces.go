package messages

import (
	"fmt"

	"github.com/snowfork/lane-relayer/chain/lanes"
)

// NonceRange is an inclusive range of message nonces.
type NonceRange struct {
	Start uint64
	End   uint64
}

func (r NonceRange) Len() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r NonceRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Skip explains why an iteration has nothing to do.
type Skip string

const (
	None           Skip = ""
	LaneCaughtUp   Skip = "lane caught up"
	BatchInFlight  Skip = "previous batch in flight"
	WindowFull     Skip = "unrewarded window full"
	FullyConfirmed Skip = "delivery fully confirmed"
	NoHeader       Skip = "no finalized header known to the other side"
	Vetoed         Skip = "vetoed by decision gate"
)

type DeliveryLimits struct {
	MaxUnrewardedRelayerEntries uint64
	MaxUnconfirmedMessages      uint64
}

// DeliveryInput is everything the delivery range depends on.
type DeliveryInput struct {
	Source *lanes.OutboundLaneData
	// Target is the inbound lane at the target, nil when unknown.
	Target    *lanes.InboundLaneData
	Watermark *uint64
	Limit     uint64
	Limits    DeliveryLimits
}

// AssembleDelivery selects the next nonce range to deliver. It is a pure
// function of its input. A nil range comes with the reason it was skipped.
func AssembleDelivery(in DeliveryInput) (*NonceRange, Skip, error) {
	if in.Limit == 0 {
		return nil, None, ErrInvalidBatchLimit
	}

	source := in.Source
	if source.LatestReceivedNonce >= source.LatestGeneratedNonce {
		return nil, LaneCaughtUp, nil
	}

	start := source.LatestReceivedNonce + 1
	limit := in.Limit

	if in.Target != nil {
		delivered := in.Target.LastDeliveredNonce()
		if delivered >= start {
			if delivered >= source.LatestGeneratedNonce {
				return nil, LaneCaughtUp, nil
			}
			start = delivered + 1
		}

		state := in.Target.RelayersState()
		bound := in.Limits.MaxUnrewardedRelayerEntries
		if bound > 0 && state.UnrewardedRelayerEntries >= bound {
			return nil, WindowFull, nil
		}
		bound = in.Limits.MaxUnconfirmedMessages
		if bound > 0 {
			if state.TotalMessages >= bound {
				return nil, WindowFull, nil
			}
			if room := bound - state.TotalMessages; room < limit {
				limit = room
			}
		}
	}

	if in.Watermark != nil && *in.Watermark >= start {
		return nil, BatchInFlight, nil
	}

	end := source.LatestGeneratedNonce
	if end-start+1 > limit {
		end = start + limit - 1
	}

	return &NonceRange{Start: start, End: end}, None, nil
}

// Confirmation is the delivery state to prove back to the source chain.
type Confirmation struct {
	// Nonces delivered at the target that the source has not seen confirmed.
	Range         NonceRange
	RelayersState lanes.UnrewardedRelayersState
}

// AssembleConfirmation decides whether the target's inbound lane carries
// deliveries the source has not learned about yet.
func AssembleConfirmation(
	source *lanes.OutboundLaneData,
	target *lanes.InboundLaneData,
	watermark *uint64,
) (*Confirmation, Skip) {
	if len(target.Relayers) == 0 {
		return nil, FullyConfirmed
	}

	delivered := target.LastDeliveredNonce()
	if delivered <= source.LatestReceivedNonce {
		return nil, FullyConfirmed
	}

	if watermark != nil && *watermark >= delivered {
		return nil, BatchInFlight
	}

	return &Confirmation{
		Range:         NonceRange{Start: source.LatestReceivedNonce + 1, End: delivered},
		RelayersState: target.RelayersState(),
	}, None
}
