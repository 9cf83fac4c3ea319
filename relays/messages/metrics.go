package messages

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/snowfork/lane-relayer/chain/lanes"
)

const namespace = "lane_relayer"

// Iteration outcomes.
const (
	outcomeSubmitted = "submitted"
	outcomeSkipped   = "skipped"
	outcomeVetoed    = "vetoed"
	outcomeError     = "error"
)

type Metrics struct {
	iterations *prometheus.CounterVec
	messages   *prometheus.CounterVec
	watermark  *prometheus.GaugeVec
	state      *prometheus.GaugeVec
	submission *prometheus.HistogramVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	labels := []string{"lane", "direction"}
	m := &Metrics{
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Lane task iterations by outcome.",
		}, append(labels, "outcome")),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages delivered or confirmed by this relayer.",
		}, labels),
		watermark: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watermark",
			Help:      "Last nonce acted on per lane and direction.",
		}, labels),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current runner state: 0 idle, 1 assembling, 2 proof building, 3 deciding, 4 submitting, 5 error.",
		}, labels),
		submission: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_seconds",
			Help:      "Time from submission to finalization.",
			Buckets:   prometheus.ExponentialBuckets(6, 2, 8),
		}, labels),
	}

	registerer.MustRegister(m.iterations, m.messages, m.watermark, m.state, m.submission)
	return m
}

func (m *Metrics) iteration(lane lanes.LaneID, direction lanes.Direction, outcome string) {
	m.iterations.WithLabelValues(lane.Hex(), direction.String(), outcome).Inc()
}

func (m *Metrics) relayed(lane lanes.LaneID, direction lanes.Direction, count uint64, seconds float64) {
	m.messages.WithLabelValues(lane.Hex(), direction.String()).Add(float64(count))
	m.submission.WithLabelValues(lane.Hex(), direction.String()).Observe(seconds)
}

func (m *Metrics) setWatermark(lane lanes.LaneID, direction lanes.Direction, nonce uint64) {
	m.watermark.WithLabelValues(lane.Hex(), direction.String()).Set(float64(nonce))
}

func (m *Metrics) setState(lane lanes.LaneID, direction lanes.Direction, state State) {
	m.state.WithLabelValues(lane.Hex(), direction.String()).Set(float64(state))
}
