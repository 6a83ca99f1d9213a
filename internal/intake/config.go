package intake

import (
	"ascend-intake/internal/common/config"
	createapplicationrecord "ascend-intake/internal/workers/application/create-application-record"
	sendnotification "ascend-intake/internal/workers/application/send-notification"
	validateapplicationdata "ascend-intake/internal/workers/application/validate-application-data"
)

// Config groups the per-step configs of the submission pipeline.
type Config struct {
	Validation   *validateapplicationdata.Config
	Record       *createapplicationrecord.Config
	Notification *sendnotification.Config
}

// ConfigFromAppConfig starts from each step's LoadConfig defaults and applies
// the application and notifications sections.
func ConfigFromAppConfig(cfg *config.Config) *Config {
	validation := validateapplicationdata.LoadConfig()
	validation.StrictCategories = cfg.Application.StrictCategories

	record := createapplicationrecord.LoadConfig()

	notification := sendnotification.LoadConfig()
	notification.FromEmail = cfg.Notifications.FromEmail
	notification.OperatorEmail = cfg.Notifications.OperatorEmail
	if cfg.Notifications.BrandName != "" {
		notification.BrandName = cfg.Notifications.BrandName
	}
	if cfg.Notifications.SupportEmail != "" {
		notification.SupportEmail = cfg.Notifications.SupportEmail
	}

	return &Config{
		Validation:   validation,
		Record:       record,
		Notification: notification,
	}
}
