// internal/workers/application/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type MockNotifier struct {
	SendFunc func(ctx context.Context, msg models.Message) error
	Sent     []models.Message
}

func (m *MockNotifier) Send(ctx context.Context, msg models.Message) error {
	m.Sent = append(m.Sent, msg)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return nil
}

func createTestConfig() *Config {
	return &Config{
		FromEmail:     "noreply@ascend.com",
		OperatorEmail: "team@ascend.com",
		BrandName:     "Ascend",
		SupportEmail:  "support@ascend.com",
		Timeout:       time.Second,
	}
}

func createTestInput() *Input {
	return &Input{
		Application: &models.Application{
			ID:              "7f1c2a4e-0000-4000-8000-000000000001",
			FullName:        "Jo",
			Email:           "jo@x.com",
			Goal:            "strength_performance",
			ExperienceLevel: "advanced",
			CommitmentLevel: "high",
			Message:         "Ready to <train> & compete",
			CreatedAt:       time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC),
		},
	}
}

func newTestHandler(t *testing.T, notifier Notifier) *Handler {
	t.Helper()
	h, err := NewHandler(createTestConfig(), notifier, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute_SendsOperatorThenApplicant(t *testing.T) {
	notifier := &MockNotifier{}
	h := newTestHandler(t, notifier)

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.OperatorStatus)
	assert.Equal(t, StatusSent, output.ApplicantStatus)
	require.Len(t, notifier.Sent, 2)

	operator := notifier.Sent[0]
	assert.Equal(t, "team@ascend.com", operator.To)
	assert.Equal(t, "noreply@ascend.com", operator.From)
	assert.Equal(t, "jo@x.com", operator.ReplyTo)
	assert.Equal(t, "New Ascend application: Jo", operator.Subject)
	assert.Contains(t, operator.Body, "7f1c2a4e-0000-4000-8000-000000000001")
	assert.Contains(t, operator.Body, "2026-04-01T08:30:00Z")
	assert.Contains(t, operator.Body, "Strength & Performance")
	assert.Contains(t, operator.Body, "Advanced (3+ Years)")
	assert.Contains(t, operator.Body, "High (4-6 Days/Week)")
	assert.Contains(t, operator.Body, "Ready to <train> & compete")
	assert.Contains(t, operator.Body, "Phone:            -")
	assert.Contains(t, operator.HTMLBody, "Ready to &lt;train&gt; &amp; compete")

	applicant := notifier.Sent[1]
	assert.Equal(t, "jo@x.com", applicant.To)
	assert.Equal(t, "noreply@ascend.com", applicant.From)
	assert.Empty(t, applicant.ReplyTo)
	assert.Equal(t, "Your Ascend application has been received", applicant.Subject)
	assert.Contains(t, applicant.Body, "Hi Jo,")
	assert.Contains(t, applicant.Body, "48 hours")
	assert.Contains(t, applicant.Body, "support@ascend.com")
	// the acknowledgment only echoes the applicant's name
	assert.NotContains(t, applicant.Body, "Ready to")
	assert.NotContains(t, applicant.Body, "strength")
}

func TestHandler_Execute_PhoneAndEmptyMessage(t *testing.T) {
	notifier := &MockNotifier{}
	h := newTestHandler(t, notifier)

	input := createTestInput()
	input.Application.Phone = "+1 555 0100"
	input.Application.Message = ""

	_, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	body := notifier.Sent[0].Body
	assert.Contains(t, body, "+1 555 0100")
	assert.Contains(t, body, "(none)")
}

func TestHandler_Execute_OperatorFailureSkipsApplicant(t *testing.T) {
	notifier := &MockNotifier{
		SendFunc: func(ctx context.Context, msg models.Message) error {
			return errors.New("MessageRejected: Email address is not verified")
		},
	}
	h := newTestHandler(t, notifier)

	output, err := h.Execute(context.Background(), createTestInput())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotificationSendFailed))
	assert.Equal(t, StatusFailed, output.OperatorStatus)
	assert.Equal(t, StatusSkipped, output.ApplicantStatus)
	assert.Len(t, notifier.Sent, 1)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.Equal(t, models.NotificationOperator, stdErr.Metadata["notificationType"])
}

func TestHandler_Execute_ApplicantFailure(t *testing.T) {
	notifier := &MockNotifier{
		SendFunc: func(ctx context.Context, msg models.Message) error {
			if msg.To == "jo@x.com" {
				return errors.New("throttled")
			}
			return nil
		},
	}
	h := newTestHandler(t, notifier)

	output, err := h.Execute(context.Background(), createTestInput())

	require.Error(t, err)
	assert.Equal(t, StatusSent, output.OperatorStatus)
	assert.Equal(t, StatusFailed, output.ApplicantStatus)
	assert.Len(t, notifier.Sent, 2)
	assert.True(t, strings.Contains(err.Error(), models.NotificationApplicant))
}

func TestHandler_Execute_SendTimeoutApplied(t *testing.T) {
	var deadline time.Time
	notifier := &MockNotifier{
		SendFunc: func(ctx context.Context, msg models.Message) error {
			deadline, _ = ctx.Deadline()
			return nil
		},
	}
	h := newTestHandler(t, notifier)

	_, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.False(t, deadline.IsZero())
}

func TestLogNotifier_Send(t *testing.T) {
	n := NewLogNotifier(logger.NewTestLogger(t))
	assert.NoError(t, n.Send(context.Background(), models.Message{To: "jo@x.com", Subject: "hi"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, n.Send(ctx, models.Message{}))
}

func TestOptionLabelFallsBackToValue(t *testing.T) {
	notifier := &MockNotifier{}
	h := newTestHandler(t, notifier)

	input := createTestInput()
	input.Application.Goal = "custom_goal"

	_, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, notifier.Sent[0].Body, "custom_goal")
}
