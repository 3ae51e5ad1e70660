package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"orbis-maintenance/internal/config"
)

// NewPostgresDB 创建PostgreSQL数据库连接
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return OpenDSN(cfg.GetDSN(), cfg.MaxConns, cfg.MaxIdle)
}

// OpenDSN 打开指定DSN的连接并验证连通性
// 租户库与master库共用此函数（DSN由 DatabaseConfig.DSNForDatabase 构建）
func OpenDSN(dsn string, maxConns, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 连接池参数
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close 关闭数据库连接
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
