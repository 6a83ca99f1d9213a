// internal/workers/application/validate-application-data/handler.go
package validateapplicationdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/common/validation"
	"ascend-intake/internal/models"
)

const (
	TaskType = "validate-application-data"
)

var (
	ErrApplicationValidationFailed = errors.New("APPLICATION_VALIDATION_FAILED")
)

type Handler struct {
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	v, err := validation.Compile(applicationSchema(config.StrictCategories))
	if err != nil {
		return nil, fmt.Errorf("application schema: %w", err)
	}
	return &Handler{
		validator: v,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

// Execute validates the payload. On failure it returns an Output with
// IsValid=false and FieldErrors set, together with an error wrapping
// ErrApplicationValidationFailed.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	result, err := h.validator.Validate(input.Payload)
	if err != nil {
		return nil, err
	}

	if !result.Valid {
		fieldErrors := toFieldErrors(result)
		h.logger.Info("validation completed", map[string]interface{}{
			"isValid":       false,
			"errorCount":    len(result.Errors),
			"invalidFields": fieldNames(fieldErrors),
		})
		h.logger.Debug("schema violations", map[string]interface{}{
			"violations": result.GetErrorMessages(),
		})
		return &Output{IsValid: false, FieldErrors: fieldErrors},
			fmt.Errorf("%w: %d invalid field(s)", ErrApplicationValidationFailed, len(fieldErrors))
	}

	payload, _ := input.Payload.(map[string]interface{})
	app := models.NewApplication{
		FullName:        stringField(payload, FieldFullName),
		Email:           stringField(payload, FieldEmail),
		Phone:           stringField(payload, FieldPhone),
		Goal:            stringField(payload, FieldGoal),
		ExperienceLevel: stringField(payload, FieldExperienceLevel),
		CommitmentLevel: stringField(payload, FieldCommitmentLevel),
		Message:         stringField(payload, FieldMessage),
	}

	h.logger.Debug("validation completed", map[string]interface{}{"isValid": true})

	return &Output{IsValid: true, Application: app}, nil
}

func applicationSchema(strict bool) validation.JSONSchema {
	category := func(values []string) validation.Property {
		p := validation.Property{Type: "string", MinLength: validation.IntPtr(1)}
		if strict {
			p.Enum = values
		}
		return p
	}

	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			FieldFullName:        {Type: "string", MinLength: validation.IntPtr(MinFullNameLength)},
			FieldEmail:           {Type: "string", Pattern: validation.StringPtr(validation.EmailPattern)},
			FieldPhone:           {Type: "string", MaxLength: validation.IntPtr(MaxPhoneLength)},
			FieldGoal:            category(models.Goals),
			FieldExperienceLevel: category(models.ExperienceLevels),
			FieldCommitmentLevel: category(models.CommitmentLevels),
			FieldMessage:         {Type: "string", MaxLength: validation.IntPtr(MaxMessageLength)},
		},
		Required: []string{FieldFullName, FieldEmail, FieldGoal, FieldExperienceLevel, FieldCommitmentLevel},
	}
}

// toFieldErrors maps schema violations to per-field messages. A document
// that is not an object reports only the body error.
func toFieldErrors(result *validation.ValidationResult) FieldErrors {
	out := make(FieldErrors)
	if result.HasErrors(validation.RootField) {
		out[validation.RootField] = []string{messageFor(validation.RootField, "")}
		return out
	}

	for _, e := range result.Errors {
		if _, done := out[e.Field]; done {
			continue
		}
		for _, fe := range result.GetErrorsForField(e.Field) {
			msg := messageFor(fe.Field, fe.Code)
			if !contains(out[fe.Field], msg) {
				out[fe.Field] = append(out[fe.Field], msg)
			}
		}
	}
	return out
}

func messageFor(field, code string) string {
	if field == validation.RootField {
		return "Request body must be a JSON object"
	}

	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}

	switch code {
	case validation.CodeRequired:
		return label + " is required"
	case validation.CodeInvalidType:
		return label + " must be a string"
	case validation.CodeMinLength:
		if field == FieldFullName {
			return fmt.Sprintf("Full name must be at least %d characters", MinFullNameLength)
		}
		return label + " is required"
	case validation.CodeMaxLength:
		switch field {
		case FieldMessage:
			return fmt.Sprintf("Message must be at most %d characters", MaxMessageLength)
		case FieldPhone:
			return fmt.Sprintf("Phone must be at most %d characters", MaxPhoneLength)
		}
		return label + " is too long"
	case validation.CodePattern:
		if field == FieldEmail {
			return "Invalid email format"
		}
	case validation.CodeEnum:
		return fmt.Sprintf("%s must be one of %s", label, strings.Join(allowedValues(field), ", "))
	}
	return label + " is invalid"
}

func allowedValues(field string) []string {
	switch field {
	case FieldGoal:
		return models.Goals
	case FieldExperienceLevel:
		return models.ExperienceLevels
	case FieldCommitmentLevel:
		return models.CommitmentLevels
	}
	return nil
}

func stringField(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return s
}

func fieldNames(fe FieldErrors) []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
