package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate, for mutation in tests.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Database.User = "harken"
	return cfg
}

func TestValidate_DefaultsPlusUserAreValid(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_ServerPortOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "server.port")

	cfg.Server.Port = 70000
	assert.ErrorContains(t, cfg.Validate(), "server.port")
}

func TestValidate_ServerModeInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = "production"
	assert.ErrorContains(t, cfg.Validate(), "server.mode")
}

func TestValidate_DatabaseRequiredFields(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""
	assert.ErrorContains(t, cfg.Validate(), "database.host")

	cfg = validConfig()
	cfg.Database.User = ""
	assert.ErrorContains(t, cfg.Validate(), "database.user")

	cfg = validConfig()
	cfg.Database.DBName = ""
	assert.ErrorContains(t, cfg.Validate(), "database.db_name")

	cfg = validConfig()
	cfg.Database.MaxConns = 0
	assert.ErrorContains(t, cfg.Validate(), "database.max_conns")
}

func TestValidate_KafkaBrokersRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Brokers = nil
	assert.ErrorContains(t, cfg.Validate(), "kafka.brokers")
}

func TestValidate_OpenSearchAddressesRequired(t *testing.T) {
	cfg := validConfig()
	cfg.OpenSearch.Addresses = nil
	assert.ErrorContains(t, cfg.Validate(), "opensearch.addresses")
}

func TestValidate_MinIORequired(t *testing.T) {
	cfg := validConfig()
	cfg.MinIO.Bucket = ""
	assert.ErrorContains(t, cfg.Validate(), "minio.bucket")
}

func TestValidate_LogLevelAndFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "log.level")

	cfg = validConfig()
	cfg.Log.Format = "text"
	assert.ErrorContains(t, cfg.Validate(), "log.format")
}

func TestValidate_MaxCompsPerApproach(t *testing.T) {
	cfg := validConfig()
	cfg.Valuation.MaxCompsPerApproach = 0
	assert.ErrorContains(t, cfg.Validate(), "max_comps_per_approach")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p",
		DBName: "appraisals", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/appraisals?sslmode=disable", c.DSN())
}
