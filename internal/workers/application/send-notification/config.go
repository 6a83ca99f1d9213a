// internal/workers/application/send-notification/config.go
package sendnotification

import "time"

type Config struct {
	FromEmail     string
	OperatorEmail string
	BrandName     string
	SupportEmail  string
	// Timeout bounds each individual send.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		BrandName:    "Ascend",
		SupportEmail: "support@ascend.com",
		Timeout:      10 * time.Second,
	}
}
