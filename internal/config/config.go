package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig 数据库配置（master库，租户库共用同一服务器）
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取master数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return c.DSNForDatabase(c.Database)
}

// DSNForDatabase 获取同一服务器上指定逻辑库的连接字符串
// 每个租户拥有独立的逻辑数据库（database_name 记录在 master 的 tenants 表）
func (c *DatabaseConfig) DSNForDatabase(name string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, name, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置（健康状态推送，可选）
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Topic    string // 健康状态主题前缀，如 "orbis/health/"
}

// Config 维护服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 缓存配置
	Cache struct {
		Backend         string // "redis" 或 "memory"（显式配置，不做运行时类型判断）
		DirectoryKey    string // 活跃租户目录缓存键
		DirectoryTTL    int    // 租户目录缓存 TTL（秒）
		HealthKeyPrefix string // 健康报告缓存键前缀，如 "orbis:health:"
		HealthTTL       int    // 健康报告缓存 TTL（秒）
	}

	// 冷存储归档服务配置
	Archive struct {
		BaseURL   string
		APIKey    string
		BatchSize int // 单批导出行数上限
	}

	// 通知服务配置（邮件通过套件的通知API发送）
	Notify struct {
		BaseURL string
		APIKey  string
	}

	// 备份制品存储配置
	Storage struct {
		BaseURL string
		APIKey  string
	}

	// 各任务调度配置
	// 具体触发时刻（如每日02:00 UTC）由部署环境的定时器决定，
	// 这里只配置触发间隔
	Jobs struct {
		InvitationCleanupInterval time.Duration // 默认 24h
		AuditArchiveInterval      time.Duration // 默认 720h（每月）
		DataRetentionInterval     time.Duration // 默认 720h（每月）
		TrialSweepInterval        time.Duration // 默认 24h
		HealthCheckInterval       time.Duration // 默认 15m
		BackupCleanupInterval     time.Duration // 默认 24h

		RetentionYears       int // KVKK法定保留年限，默认 10
		AuditRetentionMonths int // 审计日志热存储保留月数，默认 6

		RetryDelays []time.Duration // 整体任务失败重试延迟，默认 1m,5m,15m
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// master数据库
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "orbis_master")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	// Redis
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// MQTT（可选）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "orbis-maintenance")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))
	cfg.MQTT.Topic = getEnv("MQTT_HEALTH_TOPIC", "orbis/health/")

	// 缓存
	cfg.Cache.Backend = getEnv("CACHE_BACKEND", "memory")
	cfg.Cache.DirectoryKey = getEnv("CACHE_DIRECTORY_KEY", "orbis:tenants:active")
	cfg.Cache.DirectoryTTL = getEnvInt("CACHE_DIRECTORY_TTL", 60)
	cfg.Cache.HealthKeyPrefix = getEnv("CACHE_HEALTH_PREFIX", "orbis:health:")
	cfg.Cache.HealthTTL = getEnvInt("CACHE_HEALTH_TTL", 1800)

	// 冷存储归档
	cfg.Archive.BaseURL = getEnv("ARCHIVE_BASE_URL", "http://localhost:9400")
	cfg.Archive.APIKey = getEnv("ARCHIVE_API_KEY", "")
	cfg.Archive.BatchSize = getEnvInt("ARCHIVE_BATCH_SIZE", 5000)

	// 通知服务
	cfg.Notify.BaseURL = getEnv("NOTIFY_BASE_URL", "http://localhost:9500")
	cfg.Notify.APIKey = getEnv("NOTIFY_API_KEY", "")

	// 备份制品存储
	cfg.Storage.BaseURL = getEnv("STORAGE_BASE_URL", "http://localhost:9600")
	cfg.Storage.APIKey = getEnv("STORAGE_API_KEY", "")

	// 调度
	cfg.Jobs.InvitationCleanupInterval = getEnvDuration("JOB_INVITATION_CLEANUP_INTERVAL", 24*time.Hour)
	cfg.Jobs.AuditArchiveInterval = getEnvDuration("JOB_AUDIT_ARCHIVE_INTERVAL", 720*time.Hour)
	cfg.Jobs.DataRetentionInterval = getEnvDuration("JOB_DATA_RETENTION_INTERVAL", 720*time.Hour)
	cfg.Jobs.TrialSweepInterval = getEnvDuration("JOB_TRIAL_SWEEP_INTERVAL", 24*time.Hour)
	cfg.Jobs.HealthCheckInterval = getEnvDuration("JOB_HEALTH_CHECK_INTERVAL", 15*time.Minute)
	cfg.Jobs.BackupCleanupInterval = getEnvDuration("JOB_BACKUP_CLEANUP_INTERVAL", 24*time.Hour)

	cfg.Jobs.RetentionYears = getEnvInt("JOB_RETENTION_YEARS", 10)
	cfg.Jobs.AuditRetentionMonths = getEnvInt("JOB_AUDIT_RETENTION_MONTHS", 6)

	delays, err := parseDurations(getEnv("JOB_RETRY_DELAYS", "1m,5m,15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_RETRY_DELAYS: %w", err)
	}
	cfg.Jobs.RetryDelays = delays

	// 日志
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Cache.Backend != "redis" && cfg.Cache.Backend != "memory" {
		return nil, fmt.Errorf("invalid CACHE_BACKEND: %s (expected redis or memory)", cfg.Cache.Backend)
	}

	return cfg, nil
}

// getEnv 获取环境变量（带默认值）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 获取整数环境变量（带默认值）
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration 获取时长环境变量（带默认值）
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseDurations 解析逗号分隔的时长列表，如 "1m,5m,15m"
func parseDurations(s string) ([]time.Duration, error) {
	parts := strings.Split(s, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
