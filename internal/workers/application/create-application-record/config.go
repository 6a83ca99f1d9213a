// internal/workers/application/create-application-record/config.go
package createapplicationrecord

import "time"

type Config struct {
	// Timeout bounds the store call on top of the request deadline.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
