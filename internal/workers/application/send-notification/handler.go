// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/common/metrics"
	"ascend-intake/internal/models"
)

const (
	TaskType = "send-notification"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Notifier delivers a single email.
type Notifier interface {
	Send(ctx context.Context, msg models.Message) error
}

type Handler struct {
	config    *Config
	notifier  Notifier
	templates *templateSet
	logger    logger.Logger
}

func NewHandler(config *Config, notifier Notifier, log logger.Logger) (*Handler, error) {
	templates, err := newTemplateSet()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	return &Handler{
		config:    config,
		notifier:  notifier,
		templates: templates,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

// Execute sends the operator notification and then the applicant
// acknowledgment. The acknowledgment is skipped when the operator send
// fails. Output is returned in both cases.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	app := input.Application
	output := &Output{OperatorStatus: StatusSkipped, ApplicantStatus: StatusSkipped}
	bindings := h.bindings(app)

	operatorMsg, err := h.buildMessage(h.templates.operator, bindings, h.config.OperatorEmail, app.Email)
	if err != nil {
		output.OperatorStatus = StatusFailed
		return output, h.fail(models.NotificationOperator, app.ID, err)
	}
	if err := h.send(ctx, models.NotificationOperator, operatorMsg); err != nil {
		output.OperatorStatus = StatusFailed
		return output, h.fail(models.NotificationOperator, app.ID, err)
	}
	output.OperatorStatus = StatusSent

	applicantMsg, err := h.buildMessage(h.templates.applicant, bindings, app.Email, "")
	if err != nil {
		output.ApplicantStatus = StatusFailed
		return output, h.fail(models.NotificationApplicant, app.ID, err)
	}
	if err := h.send(ctx, models.NotificationApplicant, applicantMsg); err != nil {
		output.ApplicantStatus = StatusFailed
		return output, h.fail(models.NotificationApplicant, app.ID, err)
	}
	output.ApplicantStatus = StatusSent

	h.logger.Info("notifications sent", map[string]interface{}{
		"applicationId": app.ID,
	})

	return output, nil
}

func (h *Handler) bindings(app *models.Application) map[string]interface{} {
	return map[string]interface{}{
		"id":               app.ID,
		"full_name":        app.FullName,
		"email":            app.Email,
		"phone":            app.Phone,
		"goal":             app.Goal,
		"experience_level": app.ExperienceLevel,
		"commitment_level": app.CommitmentLevel,
		"message":          app.Message,
		"created_at":       app.CreatedAt.UTC().Format(time.RFC3339),
		"brand":            h.config.BrandName,
		"support_email":    h.config.SupportEmail,
	}
}

func (h *Handler) buildMessage(tpl *compiledTemplate, bindings map[string]interface{}, to, replyTo string) (models.Message, error) {
	rendered, err := tpl.render(bindings)
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		To:       to,
		From:     h.config.FromEmail,
		ReplyTo:  replyTo,
		Subject:  rendered.Subject,
		Body:     rendered.Body,
		HTMLBody: rendered.HTMLBody,
	}, nil
}

func (h *Handler) send(ctx context.Context, kind string, msg models.Message) error {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	if err := h.notifier.Send(ctx, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, StatusFailed).Inc()
		return apperrors.NewNotificationSendFailedError(kind, err)
	}
	metrics.NotificationsTotal.WithLabelValues(kind, StatusSent).Inc()
	return nil
}

func (h *Handler) fail(kind, applicationID string, err error) error {
	fields := map[string]interface{}{
		"notificationType": kind,
		"applicationId":    applicationID,
		"error":            err.Error(),
	}
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		fields["errorCode"] = string(stdErr.Code)
	}
	h.logger.Error("notification failed", fields)
	return fmt.Errorf("%w: %s: %w", ErrNotificationSendFailed, kind, err)
}
