package domain

// 租户状态（对应 master 库 tenants.status）
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusDeleted   = "deleted"
)

// Tenant 租户领域模型（对应 master 库 tenants 表）
type Tenant struct {
	// 主键
	TenantID string `db:"tenant_id"` // UUID, PRIMARY KEY

	// 基本信息
	TenantName string `db:"tenant_name"` // VARCHAR(255), NOT NULL
	Email      string `db:"email"`       // VARCHAR(255), nullable（通知收件地址）

	// 租户独立逻辑库名，未开通对应模块时为空
	DatabaseName string `db:"database_name"` // VARCHAR(255), nullable

	// 状态
	Status string `db:"status"` // VARCHAR(50), DEFAULT 'active'
}

// IsProvisioned 是否已开通独立数据库
func (t *Tenant) IsProvisioned() bool {
	return t.DatabaseName != ""
}
