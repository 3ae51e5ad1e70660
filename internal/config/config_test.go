package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "postgres", cfg.Database.Password)
	assert.Equal(t, "orbis_master", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "orbis/health/", cfg.MQTT.Topic)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "orbis:tenants:active", cfg.Cache.DirectoryKey)
	assert.Equal(t, 60, cfg.Cache.DirectoryTTL)
	assert.Equal(t, "orbis:health:", cfg.Cache.HealthKeyPrefix)

	assert.Equal(t, 5000, cfg.Archive.BatchSize)

	assert.Equal(t, 24*time.Hour, cfg.Jobs.InvitationCleanupInterval)
	assert.Equal(t, 720*time.Hour, cfg.Jobs.AuditArchiveInterval)
	assert.Equal(t, 720*time.Hour, cfg.Jobs.DataRetentionInterval)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.TrialSweepInterval)
	assert.Equal(t, 15*time.Minute, cfg.Jobs.HealthCheckInterval)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.BackupCleanupInterval)

	assert.Equal(t, 10, cfg.Jobs.RetentionYears)
	assert.Equal(t, 6, cfg.Jobs.AuditRetentionMonths)
	assert.Equal(t, []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}, cfg.Jobs.RetryDelays)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_NAME", "test-master")
	os.Setenv("CACHE_BACKEND", "redis")
	os.Setenv("ARCHIVE_BATCH_SIZE", "10000")
	os.Setenv("JOB_HEALTH_CHECK_INTERVAL", "5m")
	os.Setenv("JOB_RETRY_DELAYS", "1s,2s")
	os.Setenv("JOB_RETENTION_YEARS", "7")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "test-master", cfg.Database.Database)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 10000, cfg.Archive.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.HealthCheckInterval)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, cfg.Jobs.RetryDelays)
	assert.Equal(t, 7, cfg.Jobs.RetentionYears)
}

func TestLoad_InvalidCacheBackend(t *testing.T) {
	os.Clearenv()
	os.Setenv("CACHE_BACKEND", "memcached")
	defer os.Clearenv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_BACKEND")
}

func TestLoad_InvalidRetryDelays(t *testing.T) {
	os.Clearenv()
	os.Setenv("JOB_RETRY_DELAYS", "1m,abc")
	defer os.Clearenv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_RETRY_DELAYS")
}

func TestDSNForDatabase(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db-host",
		Port:     5432,
		User:     "orbis",
		Password: "secret",
		Database: "orbis_master",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db-host port=5432 user=orbis password=secret dbname=orbis_master sslmode=require",
		cfg.GetDSN())
	assert.Equal(t,
		"host=db-host port=5432 user=orbis password=secret dbname=tenant_acme sslmode=require",
		cfg.DSNForDatabase("tenant_acme"))
}
