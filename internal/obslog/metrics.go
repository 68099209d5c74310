package obslog

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricProposalsTotal    = "buildsched.proposals.total"
	metricProposalScore     = "buildsched.proposal.score"
	metricAdapterOpDuration = "buildsched.adapter.op.duration.seconds"
	metricAdapterErrors     = "buildsched.adapter.errors.total"
	metricTransitionsTotal  = "buildsched.transitions.total"

	attrStrategy = "strategy"
	attrOp       = "op"
	attrOutcome  = "outcome"
)

// durationBucketBoundaries covers 1ms to 60s, the range a libgit2 rev-walk
// or a note read/write is expected to fall within.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60}

// ProposalMetrics counts and scores the candidates each scheduling strategy
// emits.
type ProposalMetrics struct {
	proposalsTotal metric.Int64Counter
	proposalScore  metric.Float64Histogram
}

// NewProposalMetrics creates proposal instruments from mt.
func NewProposalMetrics(mt metric.Meter) (*ProposalMetrics, error) {
	total, err := mt.Int64Counter(metricProposalsTotal,
		metric.WithDescription("Total number of build proposals emitted"),
		metric.WithUnit("{proposal}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricProposalsTotal, err)
	}

	score, err := mt.Float64Histogram(metricProposalScore,
		metric.WithDescription("Distribution of normalized proposal scores"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricProposalScore, err)
	}

	return &ProposalMetrics{proposalsTotal: total, proposalScore: score}, nil
}

// RecordProposals records one observation per proposal emitted by strategy.
func (pm *ProposalMetrics) RecordProposals(ctx context.Context, strategy string, scores []float64) {
	attrs := metric.WithAttributes(attribute.String(attrStrategy, strategy))

	pm.proposalsTotal.Add(ctx, int64(len(scores)), attrs)

	for _, s := range scores {
		pm.proposalScore.Record(ctx, s, attrs)
	}
}

// AdapterMetrics tracks latency and error rate of version-control adapter
// operations (the only I/O-bound boundary in the scheduler).
type AdapterMetrics struct {
	opDuration metric.Float64Histogram
	errors     metric.Int64Counter
}

// NewAdapterMetrics creates adapter instruments from mt.
func NewAdapterMetrics(mt metric.Meter) (*AdapterMetrics, error) {
	duration, err := mt.Float64Histogram(metricAdapterOpDuration,
		metric.WithDescription("Version-control adapter operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAdapterOpDuration, err)
	}

	errs, err := mt.Int64Counter(metricAdapterErrors,
		metric.WithDescription("Total adapter operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAdapterErrors, err)
	}

	return &AdapterMetrics{opDuration: duration, errors: errs}, nil
}

// RecordOp records one adapter operation's outcome and latency.
func (am *AdapterMetrics) RecordOp(ctx context.Context, op string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))

	am.opDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		am.errors.Add(ctx, 1, attrs)
	}
}

// TransitionMetrics counts commit state transitions recorded through the
// state transition engine (RUNNING, GOOD, BAD).
type TransitionMetrics struct {
	transitionsTotal metric.Int64Counter
}

// NewTransitionMetrics creates transition instruments from mt.
func NewTransitionMetrics(mt metric.Meter) (*TransitionMetrics, error) {
	total, err := mt.Int64Counter(metricTransitionsTotal,
		metric.WithDescription("Total number of commit state transitions recorded"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTransitionsTotal, err)
	}

	return &TransitionMetrics{transitionsTotal: total}, nil
}

// RecordOutcome records one recorded transition, labelled with the new
// state (RUNNING from SetScheduled, GOOD or BAD from SetFinished).
func (tm *TransitionMetrics) RecordOutcome(ctx context.Context, outcome string) {
	tm.transitionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}
