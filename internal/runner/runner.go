package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/tenantdb"
)

// UnitOfWork 单个租户的维护操作：查询候选记录 -> 变更 -> 提交
// 返回处理的记录数；错误只影响当前租户的计数
type UnitOfWork func(ctx context.Context, tc *tenantdb.Context) (int, error)

// Runner 单元工作执行器
// 保证任何一个租户的异常都不会波及下一个租户的迭代
type Runner struct {
	factory tenantdb.Factory
	logger  *zap.Logger
}

// NewRunner 创建执行器
func NewRunner(factory tenantdb.Factory, logger *zap.Logger) *Runner {
	return &Runner{
		factory: factory,
		logger:  logger,
	}
}

// RunTenant 针对单个租户执行一次单元工作
// skipped == true 表示租户未开通对应模块
func (r *Runner) RunTenant(ctx context.Context, tenant domain.Tenant, fn UnitOfWork) (items int, skipped bool, err error) {
	// panic 与 error 同样只标记当前租户失败
	defer func() {
		if rec := recover(); rec != nil {
			items = 0
			skipped = false
			err = fmt.Errorf("panic in unit of work: %v", rec)
		}
	}()

	tc, err := r.factory.OpenContext(tenant)
	if err != nil {
		return 0, false, fmt.Errorf("failed to open tenant context: %w", err)
	}
	if tc == nil {
		return 0, true, nil
	}
	defer func() {
		if closeErr := tc.Close(); closeErr != nil {
			r.logger.Warn("Failed to close tenant context",
				zap.String("tenant_id", tenant.TenantID),
				zap.Error(closeErr),
			)
		}
	}()

	return runIsolated(ctx, tc, fn)
}

// runIsolated 单独包一层，保证 fn 的 panic 在 Close 之前被捕获
func runIsolated(ctx context.Context, tc *tenantdb.Context, fn UnitOfWork) (items int, skipped bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			items = 0
			err = fmt.Errorf("panic in unit of work: %v", rec)
		}
	}()

	items, err = fn(ctx, tc)
	return items, false, err
}

// Sweep 顺序遍历所有租户执行同一单元工作
// 取消时已提交的租户保持不变，返回部分结果
func (r *Runner) Sweep(ctx context.Context, job string, tenants []domain.Tenant, fn UnitOfWork) *RunResult {
	result := NewRunResult(uuid.NewString(), job, time.Now())

	for _, tenant := range tenants {
		select {
		case <-ctx.Done():
			r.logger.Warn("Sweep cancelled, reporting partial result",
				zap.String("job", job),
				zap.String("run_id", result.RunID),
				zap.Int("tenants_processed", result.TenantsProcessed),
			)
			result.Finish(time.Now())
			return result
		default:
		}

		items, skipped, err := r.RunTenant(ctx, tenant, fn)
		switch {
		case skipped:
			result.RecordSkip()
		case err != nil:
			r.logger.Warn("Tenant unit of work failed",
				zap.String("job", job),
				zap.String("tenant_id", tenant.TenantID),
				zap.String("tenant_name", tenant.TenantName),
				zap.Error(err),
			)
			result.RecordFailure(tenant.TenantID, tenant.TenantName, items, err)
		default:
			result.RecordSuccess(items)
		}
	}

	result.Finish(time.Now())
	return result
}
