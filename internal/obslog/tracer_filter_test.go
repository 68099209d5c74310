package obslog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

func TestFilteringTracerProvider_SuppressesConfiguredTracer(t *testing.T) {
	delegate := nooptrace.NewTracerProvider()
	fp := NewFilteringTracerProvider(delegate)

	tracer := fp.Tracer("buildsched.vcsref")
	_, span := tracer.Start(context.Background(), "anything")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
}

func TestFilteringTracerProvider_SuppressesConfiguredSpanName(t *testing.T) {
	delegate := nooptrace.NewTracerProvider()
	fp := NewFilteringTracerProvider(delegate)

	tracer := fp.Tracer("buildsched.scheduler")
	_, span := tracer.Start(context.Background(), "buildsched.scheduler.enumerate_commit")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
}

func TestFilteringTracerProvider_PassesThroughUnsuppressedTracerAndSpan(t *testing.T) {
	delegate := nooptrace.NewTracerProvider()
	fp := NewFilteringTracerProvider(delegate)

	tracer := fp.Tracer("buildsched.scheduler")
	_, span := tracer.Start(context.Background(), "buildsched.scheduler.plan")
	defer span.End()

	// The delegate here is itself a noop provider, so this just exercises
	// the pass-through path rather than asserting span validity.
	assert.NotNil(t, span)
}

var _ trace.TracerProvider = (*filteringTracerProvider)(nil)
