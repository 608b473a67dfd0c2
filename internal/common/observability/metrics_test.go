package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func TestNoop(t *testing.T) {
	obs := Noop()
	ctx, end := obs.StartSpan(context.Background(), "application-submitted", attribute.Int64("job.key", 1))
	assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
	end(errors.New("boom"))

	obs.RecordJobProcessed(ctx, "application-submitted", "handled")
	obs.RecordJobDuration(ctx, "application-submitted", time.Second, "handled")
	obs.Shutdown()
}

func TestNew(t *testing.T) {
	obs := New("workflow-manager-test", "0.0.1")
	require.NotNil(t, obs)
	defer obs.Shutdown()

	ctx, end := obs.StartSpan(context.Background(), "message-posted")
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	end(nil)

	assert.NotNil(t, obs.jobCounter)
	assert.NotNil(t, obs.jobDuration)
	obs.RecordJobProcessed(ctx, "message-posted", "handled")
	obs.RecordJobDuration(ctx, "message-posted", 15*time.Millisecond, "handled")
}
