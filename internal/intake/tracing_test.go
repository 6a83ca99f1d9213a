package intake

import (
	"context"
	"testing"

	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedService(t *testing.T, store repository.ApplicationStore) (*Service, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	svc, err := NewService(createTestConfig(), Dependencies{
		Store:    store,
		Notifier: &MockNotifier{},
		Logger:   logger.NewTestLogger(t),
		Tracer:   provider.Tracer(tracerName),
	})
	require.NoError(t, err)
	return svc, recorder
}

func spanNames(recorder *tracetest.SpanRecorder) []string {
	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestService_Submit_SpansPerStep(t *testing.T) {
	svc, recorder := newTracedService(t, repository.NewMemoryApplicationRepository())

	result := svc.Submit(context.Background(), createValidPayload())
	require.Equal(t, OutcomeSuccess, result.Outcome)

	assert.Equal(t, []string{
		"validate-application-data",
		"create-application-record",
		"send-notification",
		"intake.Submit",
	}, spanNames(recorder))

	ended := recorder.Ended()
	root := ended[len(ended)-1]
	for _, child := range ended[:len(ended)-1] {
		assert.Equal(t, root.SpanContext().SpanID(), child.Parent().SpanID())
	}
	assert.Equal(t, codes.Unset, root.Status().Code)
}

func TestService_Submit_FailedStepMarksSpans(t *testing.T) {
	svc, recorder := newTracedService(t, &failingStore{})

	result := svc.Submit(context.Background(), createValidPayload())
	require.Equal(t, OutcomePersistFailed, result.Outcome)

	assert.Equal(t, []string{
		"validate-application-data",
		"create-application-record",
		"intake.Submit",
	}, spanNames(recorder))

	ended := recorder.Ended()
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, codes.Error, ended[2].Status().Code)
}
