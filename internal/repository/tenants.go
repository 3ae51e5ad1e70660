package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
)

// ErrTenantNotFound 租户不存在
var ErrTenantNotFound = fmt.Errorf("tenant not found")

// TenantRepository tenant repository（master 库 tenants 表）
type TenantRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(q Querier, logger *zap.Logger) *TenantRepository {
	return &TenantRepository{
		q:      q,
		logger: logger,
	}
}

const tenantColumns = `
			tenant_id::text,
			tenant_name,
			COALESCE(email, '') as email,
			COALESCE(database_name, '') as database_name,
			COALESCE(status, 'active') as status`

// ListActive 获取所有活跃租户
func (r *TenantRepository) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	query := `
		SELECT` + tenantColumns + `
		FROM tenants
		WHERE status = 'active'
		ORDER BY tenant_name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(
			&t.TenantID,
			&t.TenantName,
			&t.Email,
			&t.DatabaseName,
			&t.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", err)
	}
	return tenants, nil
}

// GetTenant 根据tenant_id获取租户信息
func (r *TenantRepository) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT` + tenantColumns + `
		FROM tenants
		WHERE tenant_id = $1::uuid
	`

	var t domain.Tenant
	err := r.q.QueryRowContext(ctx, query, tenantID).Scan(
		&t.TenantID,
		&t.TenantName,
		&t.Email,
		&t.DatabaseName,
		&t.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}
