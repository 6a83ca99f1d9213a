package emailsend

import (
	"fmt"
	"time"

	"ascend-intake/internal/common/config"
)

type Config struct {
	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	SMTPUsername string        `mapstructure:"smtp_username"`
	SMTPPassword string        `mapstructure:"smtp_password"`
	UseTLS       bool          `mapstructure:"use_tls"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		SMTPPort: 587,
		UseTLS:   true,
		Timeout:  30 * time.Second,
	}
}

// ConfigFromAppConfig maps the notifications.smtp block onto the defaults.
func ConfigFromAppConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	smtpCfg := cfg.Notifications.SMTP
	c.SMTPHost = smtpCfg.Host
	if smtpCfg.Port > 0 {
		c.SMTPPort = smtpCfg.Port
	}
	c.SMTPUsername = smtpCfg.Username
	c.SMTPPassword = smtpCfg.Password
	c.UseTLS = smtpCfg.UseTLS
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.SMTPHost == "" {
		return fmt.Errorf("smtp_host is required")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("smtp_port must be between 1 and 65535")
	}
	return nil
}
