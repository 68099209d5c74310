package obslog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewProposalMetrics_RecordsWithoutError(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	pm, err := NewProposalMetrics(mp.Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		pm.RecordProposals(context.Background(), "HeadStrategy", []float64{1, 2, 3})
	})
}

func TestNewAdapterMetrics_RecordsSuccessAndError(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	am, err := NewAdapterMetrics(mp.Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		am.RecordOp(context.Background(), "list_commits", 10*time.Millisecond, nil)
		am.RecordOp(context.Background(), "list_commits", 10*time.Millisecond, assertError{})
	})
}

func TestNewTransitionMetrics_RecordsOutcome(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	tm, err := NewTransitionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		tm.RecordOutcome(context.Background(), "GOOD")
	})
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
