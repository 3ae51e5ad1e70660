package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orbis-maintenance/internal/repository"
	"orbis-maintenance/internal/runner"
	"orbis-maintenance/internal/storage"
)

// BackupCleanupJob 过期备份清理任务
// 只操作 master 库的 tenant_backups 表；先尽力删除远端制品，
// 无论制品删除是否成功都将记录标记为 deleted（接受孤儿制品）
type BackupCleanupJob struct {
	backups *repository.BackupRepository
	store   storage.ArtifactStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewBackupCleanupJob 创建备份清理任务
func NewBackupCleanupJob(backups *repository.BackupRepository, store storage.ArtifactStore, logger *zap.Logger) *BackupCleanupJob {
	return &BackupCleanupJob{
		backups: backups,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Name 任务名
func (j *BackupCleanupJob) Name() string { return "backup-cleanup" }

// Execute 执行一次过期备份清理
func (j *BackupCleanupJob) Execute(ctx context.Context) (*runner.RunResult, error) {
	expired, err := j.backups.ListExpired(ctx, j.now())
	if err != nil {
		return nil, err
	}

	result := runner.NewRunResult(uuid.NewString(), j.Name(), time.Now())
	orphaned := 0

	for _, backup := range expired {
		select {
		case <-ctx.Done():
			result.Finish(time.Now())
			result.LogSummary(j.logger)
			return result, nil
		default:
		}

		// 1. 尽力删除远端制品
		if err := j.store.DeleteArtifact(ctx, backup.StorageKey); err != nil {
			orphaned++
			j.logger.Warn("Failed to delete backup artifact, record will still be marked deleted",
				zap.String("backup_id", backup.BackupID),
				zap.String("tenant_id", backup.TenantID),
				zap.String("storage_key", backup.StorageKey),
				zap.Error(err),
			)
		}

		// 2. 记录转为 deleted
		affected, err := j.backups.MarkDeleted(ctx, backup.BackupID)
		if err != nil {
			result.RecordFailure(backup.TenantID, "", 0, err)
			continue
		}
		if affected == 0 {
			// 并发运行已处理过
			result.RecordSkip()
			continue
		}
		result.RecordSuccess(1)
	}

	result.Finish(time.Now())
	if orphaned > 0 {
		j.logger.Warn("Backup cleanup left orphaned artifacts",
			zap.String("run_id", result.RunID),
			zap.Int("orphaned", orphaned),
		)
	}
	result.LogSummary(j.logger)
	return result, nil
}
