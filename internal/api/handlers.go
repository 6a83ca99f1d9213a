package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/common/metrics"
	"ascend-intake/internal/common/validation"
	"ascend-intake/internal/intake"
	"ascend-intake/internal/models"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxBodyBytes = 1 << 20

	internalServerError    = "Internal Server Error"
	fetchApplicationsError = "Failed to fetch applications"
)

// ApplicationService is the submission pipeline as seen by the handlers.
type ApplicationService interface {
	Submit(ctx context.Context, payload interface{}) intake.Result
	List(ctx context.Context) ([]models.Application, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type HandlerOptions struct {
	// ReportPartialSuccess adds id and stored to the 500 answered when the
	// record was written but a notification failed.
	ReportPartialSuccess bool
	ReadinessChecks      map[string]ReadinessCheck
}

type Handlers struct {
	service    ApplicationService
	opts       HandlerOptions
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandlers(service ApplicationService, opts HandlerOptions, log logger.Logger) *Handlers {
	return &Handlers{
		service:    service,
		opts:       opts,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
	}
}

type applyResponse struct {
	Success bool                `json:"success"`
	ID      string              `json:"id,omitempty"`
	Stored  bool                `json:"stored,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// SubmitApplication handles POST /api/apply.
func (h *Handlers) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	logFields := map[string]interface{}{"requestId": middleware.GetReqID(r.Context())}

	payload, err := decodeBody(w, r)
	if err != nil {
		status, _ := h.errHandler.Handle(apperrors.NewInvalidRequestBodyError(err), logFields)
		respondJSON(w, status, applyResponse{
			Errors: map[string][]string{validation.RootField: {"Request body must be valid JSON"}},
		})
		return
	}

	result := h.service.Submit(r.Context(), payload)

	switch result.Outcome {
	case intake.OutcomeSuccess:
		respondJSON(w, http.StatusOK, applyResponse{Success: true, ID: result.ApplicationID})

	case intake.OutcomeValidationFailed:
		status, _ := h.errHandler.Handle(result.Err, logFields)
		respondJSON(w, status, applyResponse{Errors: result.FieldErrors})

	default:
		logFields["outcome"] = string(result.Outcome)
		if result.ApplicationID != "" {
			logFields["applicationId"] = result.ApplicationID
		}
		h.errHandler.Handle(result.Err, logFields)

		resp := applyResponse{Error: internalServerError}
		if result.Outcome == intake.OutcomeNotifyFailed && h.opts.ReportPartialSuccess {
			resp.ID = result.ApplicationID
			resp.Stored = true
		}
		respondJSON(w, http.StatusInternalServerError, resp)
	}
}

// ListApplications handles GET /api/apply.
func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.List(r.Context())
	if err != nil {
		h.errHandler.Handle(err, map[string]interface{}{"requestId": middleware.GetReqID(r.Context())})
		respondError(w, http.StatusInternalServerError, fetchApplicationsError)
		return
	}
	respondJSON(w, http.StatusOK, apps)
}

// LogNavigation handles POST /api/log-navigation. It always answers 200.
func (h *Handlers) LogNavigation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Page interface{} `json:"page"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		h.logger.Debug("Unreadable navigation event", map[string]interface{}{"error": err.Error()})
	}

	metrics.NavigationEvents.Inc()
	h.logger.Info("user navigated", map[string]interface{}{"page": body.Page})

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready runs every readiness check and answers 503 if any fails.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.opts.ReadinessChecks))
	for name, check := range h.opts.ReadinessChecks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			h.logger.Warn("Readiness check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	respondJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}

// decodeBody returns the request body as a generic JSON value. An empty body
// decodes to nil so that validation reports it as a non-object.
func decodeBody(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, errors.New("malformed JSON")
		}
		return nil, err
	}
	return payload, nil
}
