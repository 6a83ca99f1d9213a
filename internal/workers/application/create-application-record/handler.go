// internal/workers/application/create-application-record/handler.go
package createapplicationrecord

import (
	"context"
	"errors"
	"fmt"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/repository"
)

const (
	TaskType = "create-application-record"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

type Handler struct {
	config *Config
	store  repository.ApplicationStore
	logger logger.Logger
}

func NewHandler(config *Config, store repository.ApplicationStore, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute performs exactly one Create on the store.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	app, err := h.store.Create(ctx, input.Application)
	if err != nil {
		fields := map[string]interface{}{"error": err.Error()}
		if stdErr, ok := apperrors.AsStandardError(err); ok {
			fields["errorCode"] = string(stdErr.Code)
			fields["retryable"] = stdErr.Retryable
		}
		h.logger.Error("application insert failed", fields)
		return nil, fmt.Errorf("%w: %w", ErrDatabaseInsertFailed, err)
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId":   app.ID,
		"goal":            app.Goal,
		"experienceLevel": app.ExperienceLevel,
		"commitmentLevel": app.CommitmentLevel,
	})

	return &Output{Application: app}, nil
}
