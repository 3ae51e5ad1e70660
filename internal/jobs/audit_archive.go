package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orbis-maintenance/internal/archive"
	"orbis-maintenance/internal/directory"
	"orbis-maintenance/internal/repository"
	"orbis-maintenance/internal/runner"
	"orbis-maintenance/internal/tenantdb"
)

// masterStore master 库在归档请求里的标识
const masterStore = "master"

// AuditLogArchiveJob 审计日志归档任务
// 超过热存储保留期的条目按批导出冷存储，确认写入后才从热存储删除；
// 冷存储未确认的批次原样保留，下次运行重试（绝不丢数据）。
// master 库和各租户库都要处理。
type AuditLogArchiveJob struct {
	masterDB        *sql.DB
	dir             directory.Directory
	runner          *runner.Runner
	archiver        archive.Archiver
	batchSize       int
	retentionMonths int
	logger          *zap.Logger
	now             func() time.Time
}

// NewAuditLogArchiveJob 创建归档任务
func NewAuditLogArchiveJob(
	masterDB *sql.DB,
	dir directory.Directory,
	run *runner.Runner,
	archiver archive.Archiver,
	batchSize int,
	retentionMonths int,
	logger *zap.Logger,
) *AuditLogArchiveJob {
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &AuditLogArchiveJob{
		masterDB:        masterDB,
		dir:             dir,
		runner:          run,
		archiver:        archiver,
		batchSize:       batchSize,
		retentionMonths: retentionMonths,
		logger:          logger,
		now:             time.Now,
	}
}

// Name 任务名
func (j *AuditLogArchiveJob) Name() string { return "audit-log-archive" }

// Execute 执行一次全量归档（master 库 + 各租户库）
func (j *AuditLogArchiveJob) Execute(ctx context.Context) (*runner.RunResult, error) {
	tenants, err := j.dir.ListActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}

	cutoff := j.now().AddDate(0, -j.retentionMonths, 0)

	// 1. master 库（与租户迭代同等隔离）
	masterItems, masterErr := j.archiveStore(ctx, masterStore, j.masterDB, cutoff)

	// 2. 各租户库
	result := j.runner.Sweep(ctx, j.Name(), tenants, func(ctx context.Context, tc *tenantdb.Context) (int, error) {
		return j.archiveStore(ctx, tc.TenantID(), tc.DB(), cutoff)
	})

	// 3. 合并 master 结果
	if masterErr != nil {
		j.logger.Warn("Master store archive failed",
			zap.String("job", j.Name()),
			zap.Error(masterErr),
		)
		result.RecordFailure(masterStore, masterStore, masterItems, masterErr)
	} else {
		result.RecordSuccess(masterItems)
	}

	result.LogSummary(j.logger)
	return result, nil
}

// archiveStore 对单个库执行"导出一批 -> 确认 -> 删除一批"循环
// 返回已删除（即已安全归档）的条数；出错时已删除的条数保留在返回值里
func (j *AuditLogArchiveJob) archiveStore(ctx context.Context, store string, db *sql.DB, cutoff time.Time) (int, error) {
	repo := repository.NewAuditLogRepository(db, j.logger)
	total := 0

	for {
		batch, err := repo.FetchBatchOlderThan(ctx, cutoff, j.batchSize)
		if err != nil {
			return total, fmt.Errorf("failed to fetch archive batch: %w", err)
		}
		if len(batch) == 0 {
			return total, nil
		}

		// 冷存储确认写入之前绝不触碰热存储
		if err := j.archiver.ArchiveBatch(ctx, store, batch); err != nil {
			return total, fmt.Errorf("archive batch not acknowledged: %w", err)
		}

		ids := make([]string, 0, len(batch))
		for _, entry := range batch {
			ids = append(ids, entry.EntryID)
		}

		deleted, err := repository.DeleteEntriesTx(ctx, db, j.logger, ids)
		if err != nil {
			// 冷存储已有副本，热存储删除失败只会导致下次重复归档，不丢数据
			return total, fmt.Errorf("failed to delete archived batch: %w", err)
		}
		total += int(deleted)

		j.logger.Debug("Archived audit log batch",
			zap.String("store", store),
			zap.Int("batch_size", len(batch)),
			zap.Int64("deleted", deleted),
		)

		if len(batch) < j.batchSize {
			return total, nil
		}
	}
}
