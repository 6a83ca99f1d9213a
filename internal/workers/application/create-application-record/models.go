// internal/workers/application/create-application-record/models.go
package createapplicationrecord

import "ascend-intake/internal/models"

type Input struct {
	Application models.NewApplication `json:"application"`
}

type Output struct {
	Application *models.Application `json:"application"`
}
