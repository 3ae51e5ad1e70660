package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orbis-maintenance/internal/directory"
	"orbis-maintenance/internal/repository"
	"orbis-maintenance/internal/runner"
	"orbis-maintenance/internal/tenantdb"
)

// ExpiredInvitationCleanupJob 过期邀请清理任务
// 每个租户库删除激活令牌已过期的 pending_activation 用户
// 占位账号无保留要求，物理删除；谓词幂等
type ExpiredInvitationCleanupJob struct {
	dir    directory.Directory
	runner *runner.Runner
	logger *zap.Logger
	now    func() time.Time
}

// NewExpiredInvitationCleanupJob 创建清理任务
func NewExpiredInvitationCleanupJob(dir directory.Directory, run *runner.Runner, logger *zap.Logger) *ExpiredInvitationCleanupJob {
	return &ExpiredInvitationCleanupJob{
		dir:    dir,
		runner: run,
		logger: logger,
		now:    time.Now,
	}
}

// Name 任务名
func (j *ExpiredInvitationCleanupJob) Name() string { return "expired-invitation-cleanup" }

// Execute 执行一次全租户清理
// 租户目录不可达是唯一允许中止整次运行的失败（交由调度器重试）
func (j *ExpiredInvitationCleanupJob) Execute(ctx context.Context) (*runner.RunResult, error) {
	tenants, err := j.dir.ListActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}

	now := j.now()

	result := j.runner.Sweep(ctx, j.Name(), tenants, func(ctx context.Context, tc *tenantdb.Context) (int, error) {
		repo := repository.NewInvitationRepository(tc.DB(), j.logger)

		deleted, err := repo.DeleteExpiredPending(ctx, now)
		if err != nil {
			return 0, err
		}

		if deleted > 0 {
			j.logger.Info("Deleted expired invitations",
				zap.String("tenant_id", tc.TenantID()),
				zap.Int64("deleted", deleted),
			)
		}
		return int(deleted), nil
	})

	result.LogSummary(j.logger)
	return result, nil
}
