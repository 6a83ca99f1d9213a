// internal/workers/application/validate-application-data/config.go
package validateapplicationdata

type Config struct {
	// StrictCategories restricts goal, experience_level and commitment_level
	// to the values the application form offers.
	StrictCategories bool
}

func LoadConfig() *Config {
	return &Config{}
}
