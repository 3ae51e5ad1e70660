package tenantdb

import (
	"database/sql"

	"go.uber.org/zap"

	"orbis-maintenance/internal/config"
	"orbis-maintenance/internal/database"
	"orbis-maintenance/internal/domain"
)

// Context 单个租户库的作用域数据访问句柄
// 每次租户单元工作打开一个，用完即关，不跨运行复用
type Context struct {
	tenantID   string
	tenantName string
	db         *sql.DB
}

// NewContext 创建租户上下文（工厂内部和测试使用）
func NewContext(tenantID, tenantName string, db *sql.DB) *Context {
	return &Context{
		tenantID:   tenantID,
		tenantName: tenantName,
		db:         db,
	}
}

// TenantID 租户ID
func (c *Context) TenantID() string { return c.tenantID }

// TenantName 租户名称
func (c *Context) TenantName() string { return c.tenantName }

// DB 底层连接（repository 层直接使用）
func (c *Context) DB() *sql.DB { return c.db }

// Close 释放连接，所有退出路径都必须调用
func (c *Context) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Factory 租户上下文工厂
// 租户未开通独立库时返回 (nil, nil)——调用方按跳过处理，不算失败
type Factory interface {
	OpenContext(tenant domain.Tenant) (*Context, error)
}

// PostgresFactory 基于 master 配置解析租户逻辑库的工厂实现
type PostgresFactory struct {
	cfg    *config.DatabaseConfig
	logger *zap.Logger
}

// NewPostgresFactory 创建工厂
func NewPostgresFactory(cfg *config.DatabaseConfig, logger *zap.Logger) *PostgresFactory {
	return &PostgresFactory{
		cfg:    cfg,
		logger: logger,
	}
}

var _ Factory = (*PostgresFactory)(nil)

// OpenContext 打开租户上下文
func (f *PostgresFactory) OpenContext(tenant domain.Tenant) (*Context, error) {
	if !tenant.IsProvisioned() {
		// 未开通模块：跳过而非失败
		return nil, nil
	}

	// 租户单元工作串行执行，单连接即可
	db, err := database.OpenDSN(f.cfg.DSNForDatabase(tenant.DatabaseName), 1, 1)
	if err != nil {
		return nil, err
	}

	return NewContext(tenant.TenantID, tenant.TenantName, db), nil
}
