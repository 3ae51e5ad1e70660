package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"orbis-maintenance/internal/cache"
	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/repository"
)

// Directory 租户目录（任务核心只读取活跃子集）
type Directory interface {
	ListActiveTenants(ctx context.Context) ([]domain.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

// CachedDirectory master 库租户目录 + 短TTL缓存
// 缓存读写失败只降级回源，从不让目录查询失败
type CachedDirectory struct {
	repo   *repository.TenantRepository
	kv     cache.KVStore
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDirectory 创建租户目录
func NewCachedDirectory(repo *repository.TenantRepository, kv cache.KVStore, key string, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	return &CachedDirectory{
		repo:   repo,
		kv:     kv,
		key:    key,
		ttl:    ttl,
		logger: logger,
	}
}

var _ Directory = (*CachedDirectory)(nil)

// ListActiveTenants 获取活跃租户列表（优先缓存）
func (d *CachedDirectory) ListActiveTenants(ctx context.Context) ([]domain.Tenant, error) {
	// 1. 尝试缓存
	if cached, err := d.kv.Get(ctx, d.key); err == nil {
		var tenants []domain.Tenant
		if err := json.Unmarshal([]byte(cached), &tenants); err == nil {
			return tenants, nil
		}
		// 脏缓存：删除后回源
		_ = d.kv.Delete(ctx, d.key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		d.logger.Warn("Tenant directory cache read failed",
			zap.Error(err),
		)
	}

	// 2. 回源 master 库
	tenants, err := d.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	// 3. 回填缓存（尽力而为）
	if data, err := json.Marshal(tenants); err == nil {
		if err := d.kv.Set(ctx, d.key, string(data), d.ttl); err != nil {
			d.logger.Warn("Tenant directory cache write failed",
				zap.Error(err),
			)
		}
	}

	return tenants, nil
}

// GetTenant 获取单个租户（按需操作用，不走缓存）
func (d *CachedDirectory) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return d.repo.GetTenant(ctx, tenantID)
}
