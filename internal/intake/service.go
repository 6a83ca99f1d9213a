// Package intake runs the application submission pipeline: validate,
// persist, notify.
package intake

import (
	"context"
	"fmt"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/common/metrics"
	"ascend-intake/internal/models"
	"ascend-intake/internal/repository"
	createapplicationrecord "ascend-intake/internal/workers/application/create-application-record"
	sendnotification "ascend-intake/internal/workers/application/send-notification"
	validateapplicationdata "ascend-intake/internal/workers/application/validate-application-data"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ascend-intake/intake"

type Dependencies struct {
	Store    repository.ApplicationStore
	Notifier sendnotification.Notifier
	Logger   logger.Logger
	// Tracer defaults to the global provider.
	Tracer   trace.Tracer
}

// Service holds no per-request state; one instance serves all requests.
type Service struct {
	validator *validateapplicationdata.Handler
	recorder  *createapplicationrecord.Handler
	notifier  *sendnotification.Handler
	store     repository.ApplicationStore
	tracer    trace.Tracer
	logger    logger.Logger
}

func NewService(cfg *Config, deps Dependencies) (*Service, error) {
	validator, err := validateapplicationdata.NewHandler(cfg.Validation, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	notifier, err := sendnotification.NewHandler(cfg.Notification, deps.Notifier, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("create notification handler: %w", err)
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Service{
		validator: validator,
		recorder:  createapplicationrecord.NewHandler(cfg.Record, deps.Store, deps.Logger),
		notifier:  notifier,
		store:     deps.Store,
		tracer:    tracer,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "intake"}),
	}, nil
}

// Submit validates payload, stores exactly one record and sends the operator
// and applicant emails. Steps short-circuit on failure; a stored record is
// never rolled back.
func (s *Service) Submit(ctx context.Context, payload interface{}) Result {
	ctx, span := s.tracer.Start(ctx, "intake.Submit")
	defer span.End()

	validated, err := timed(ctx, s.tracer, validateapplicationdata.TaskType, func(ctx context.Context) (*validateapplicationdata.Output, error) {
		return s.validator.Execute(ctx, &validateapplicationdata.Input{Payload: payload})
	})
	if err != nil {
		if validated != nil && !validated.IsValid {
			return s.finish(span, Result{
				Outcome:     OutcomeValidationFailed,
				FieldErrors: validated.FieldErrors,
				Err:         apperrors.NewApplicationValidationFailedError(validated.FieldErrors),
			})
		}
		s.logger.Error("Application validation could not run", map[string]interface{}{"error": err.Error()})
		return s.finish(span, Result{Outcome: OutcomeInternalError, Err: apperrors.NewInternalError(err)})
	}

	recorded, err := timed(ctx, s.tracer, createapplicationrecord.TaskType, func(ctx context.Context) (*createapplicationrecord.Output, error) {
		return s.recorder.Execute(ctx, &createapplicationrecord.Input{Application: validated.Application})
	})
	if err != nil {
		return s.finish(span, Result{Outcome: OutcomePersistFailed, Err: err})
	}
	app := recorded.Application

	sent, err := timed(ctx, s.tracer, sendnotification.TaskType, func(ctx context.Context) (*sendnotification.Output, error) {
		return s.notifier.Execute(ctx, &sendnotification.Input{Application: app})
	})
	if err != nil {
		fields := map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		}
		if sent != nil {
			fields["operatorStatus"] = sent.OperatorStatus
			fields["applicantStatus"] = sent.ApplicantStatus
		}
		s.logger.Error("Application stored but notification failed", fields)
		return s.finish(span, Result{Outcome: OutcomeNotifyFailed, ApplicationID: app.ID, Err: err})
	}

	return s.finish(span, Result{Outcome: OutcomeSuccess, ApplicationID: app.ID})
}

// List returns every stored application, newest first.
func (s *Service) List(ctx context.Context) ([]models.Application, error) {
	start := time.Now()
	apps, err := s.store.List(ctx)
	metrics.StepDuration.WithLabelValues("list-applications").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Failed to list applications", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return apps, nil
}

// Ping checks the store when it supports health checks.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(repository.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Service) finish(span trace.Span, r Result) Result {
	span.SetAttributes(attribute.String("intake.outcome", string(r.Outcome)))
	if r.ApplicationID != "" {
		span.SetAttributes(attribute.String("intake.application_id", r.ApplicationID))
	}
	if r.Err != nil {
		span.SetStatus(codes.Error, string(r.Outcome))
	}
	metrics.SubmissionsTotal.WithLabelValues(string(r.Outcome)).Inc()
	return r
}

// timed runs one pipeline step inside its own span and records its duration.
func timed[T any](ctx context.Context, tracer trace.Tracer, step string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, step)
	defer span.End()

	start := time.Now()
	out, err := fn(ctx)
	metrics.StepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, step+" failed")
	}
	return out, err
}
