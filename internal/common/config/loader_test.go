package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: memory
notifications:
  from_email: coach@ascend.com
  operator_email: team@ascend.com
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 25000, cfg.Server.RequestTimeout)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, ProviderLog, cfg.Notifications.Provider)
	assert.Equal(t, "Ascend", cfg.Notifications.BrandName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 30000, cfg.Database.Redis.ListCacheTTL)
	assert.False(t, cfg.Application.StrictCategories)
	assert.False(t, cfg.Application.ReportPartialSuccess)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("INTAKE_TEST_OPERATOR", "ops@ascend.com")

	path := writeConfig(t, `
database:
  driver: memory
notifications:
  from_email: coach@ascend.com
  operator_email: ${INTAKE_TEST_OPERATOR}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ops@ascend.com", cfg.Notifications.OperatorEmail)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "postgres without host",
			body: `
notifications:
  from_email: a@b.com
  operator_email: c@d.com
`,
			wantErr: "database.postgres.host is required",
		},
		{
			name: "unknown driver",
			body: `
database:
  driver: mongo
notifications:
  from_email: a@b.com
  operator_email: c@d.com
`,
			wantErr: "database.driver must be",
		},
		{
			name: "missing operator email",
			body: `
database:
  driver: memory
notifications:
  from_email: a@b.com
`,
			wantErr: "notifications.operator_email is required",
		},
		{
			name: "ses without region",
			body: `
database:
  driver: memory
notifications:
  provider: ses
  from_email: a@b.com
  operator_email: c@d.com
`,
			wantErr: "notifications.aws.region is required",
		},
		{
			name: "smtp without host",
			body: `
database:
  driver: memory
notifications:
  provider: smtp
  from_email: a@b.com
  operator_email: c@d.com
`,
			wantErr: "notifications.smtp.host is required",
		},
		{
			name: "redis enabled without address",
			body: `
database:
  driver: memory
  redis:
    enabled: true
notifications:
  from_email: a@b.com
  operator_email: c@d.com
`,
			wantErr: "database.redis.address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "intake", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=intake sslmode=disable", p.GetDSN())
}
