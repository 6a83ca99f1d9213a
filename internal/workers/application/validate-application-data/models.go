// internal/workers/application/validate-application-data/models.go
package validateapplicationdata

import (
	"ascend-intake/internal/models"
)

// Input carries the decoded request body, which may be any JSON value.
type Input struct {
	Payload interface{}
}

// FieldErrors maps a field name to its human-readable messages.
type FieldErrors map[string][]string

type Output struct {
	IsValid     bool                  `json:"isValid"`
	Application models.NewApplication `json:"application"`
	FieldErrors FieldErrors           `json:"fieldErrors,omitempty"`
}

const (
	FieldFullName        = "full_name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldGoal            = "goal"
	FieldExperienceLevel = "experience_level"
	FieldCommitmentLevel = "commitment_level"
	FieldMessage         = "message"

	MinFullNameLength = 2
	MaxMessageLength  = 1000
	MaxPhoneLength    = 32
)

var fieldLabels = map[string]string{
	FieldFullName:        "Full name",
	FieldEmail:           "Email",
	FieldPhone:           "Phone",
	FieldGoal:            "Goal",
	FieldExperienceLevel: "Experience level",
	FieldCommitmentLevel: "Commitment level",
	FieldMessage:         "Message",
}
