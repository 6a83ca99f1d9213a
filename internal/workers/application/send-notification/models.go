// internal/workers/application/send-notification/models.go
package sendnotification

import "ascend-intake/internal/models"

type Input struct {
	Application *models.Application `json:"application"`
}

type Output struct {
	OperatorStatus  string `json:"operatorStatus"`
	ApplicantStatus string `json:"applicantStatus"`
}

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)
