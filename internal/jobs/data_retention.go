package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orbis-maintenance/internal/directory"
	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/export"
	"orbis-maintenance/internal/repository"
	"orbis-maintenance/internal/runner"
	"orbis-maintenance/internal/tenantdb"
)

// retentionBatchSize 定期扫描单批上限
const retentionBatchSize = 500

// DataRetentionJob KVKK个人数据保留任务
// 离职满法定保留期的员工个人数据做不可逆字段级匿名化；
// 另提供两个按需操作：管理员触发的匿名化请求和数据携带导出
type DataRetentionJob struct {
	dir            directory.Directory
	runner         *runner.Runner
	factory        tenantdb.Factory
	retentionYears int
	logger         *zap.Logger
	now            func() time.Time
}

// NewDataRetentionJob 创建保留任务
func NewDataRetentionJob(
	dir directory.Directory,
	run *runner.Runner,
	factory tenantdb.Factory,
	retentionYears int,
	logger *zap.Logger,
) *DataRetentionJob {
	if retentionYears <= 0 {
		retentionYears = 10
	}
	return &DataRetentionJob{
		dir:            dir,
		runner:         run,
		factory:        factory,
		retentionYears: retentionYears,
		logger:         logger,
		now:            time.Now,
	}
}

// Name 任务名
func (j *DataRetentionJob) Name() string { return "data-retention" }

// Execute 执行一次全租户匿名化扫描
func (j *DataRetentionJob) Execute(ctx context.Context) (*runner.RunResult, error) {
	tenants, err := j.dir.ListActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}

	cutoff := j.now().AddDate(-j.retentionYears, 0, 0)

	result := j.runner.Sweep(ctx, j.Name(), tenants, func(ctx context.Context, tc *tenantdb.Context) (int, error) {
		repo := repository.NewEmployeeRepository(tc.DB(), j.logger)
		count := 0

		for {
			employees, err := repo.FindRetentionEligible(ctx, cutoff, retentionBatchSize)
			if err != nil {
				return count, err
			}
			if len(employees) == 0 {
				return count, nil
			}

			for _, e := range employees {
				// 审计要求：变更之前先记日志
				j.logger.Info("Anonymizing employee personal data",
					zap.String("tenant_id", tc.TenantID()),
					zap.String("employee_id", e.EmployeeID),
					zap.String("status", e.Status),
					zap.String("requested_by", "retention-sweep"),
				)

				affected, err := repo.Anonymize(ctx, e.EmployeeID)
				if err != nil {
					return count, err
				}
				count += int(affected)
			}

			if len(employees) < retentionBatchSize {
				return count, nil
			}
		}
	})

	result.LogSummary(j.logger)
	return result, nil
}

// AnonymizeOnRequest 管理员触发的按需匿名化
// 保留期未满返回 ErrRetentionNotElapsed；同步错误直接交给调用方，不吞
func (j *DataRetentionJob) AnonymizeOnRequest(ctx context.Context, tenantID, employeeID, requestedBy string) error {
	emp, tc, err := j.openEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return err
	}
	defer tc.Close()

	if emp.IsAnonymized() {
		return ErrAlreadyAnonymized
	}
	if !emp.IsDeparted() || !emp.RetentionElapsed(j.now(), j.retentionYears) {
		return ErrRetentionNotElapsed
	}

	j.logger.Info("Anonymizing employee personal data",
		zap.String("tenant_id", tenantID),
		zap.String("employee_id", employeeID),
		zap.String("requested_by", requestedBy),
	)

	repo := repository.NewEmployeeRepository(tc.DB(), j.logger)
	affected, err := repo.Anonymize(ctx, employeeID)
	if err != nil {
		return err
	}
	if affected == 0 {
		// 读取和更新之间被并发匿名化
		return ErrAlreadyAnonymized
	}
	return nil
}

// ExportPersonalData 数据携带权导出（xlsx）
func (j *DataRetentionJob) ExportPersonalData(ctx context.Context, tenantID, employeeID string) ([]byte, error) {
	emp, tc, err := j.openEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer tc.Close()

	return export.BuildPersonalDataWorkbook(emp, j.now())
}

// openEmployee 解析租户、打开上下文并读取员工
// 成功时调用方负责关闭返回的上下文
func (j *DataRetentionJob) openEmployee(ctx context.Context, tenantID, employeeID string) (*domain.Employee, *tenantdb.Context, error) {
	tenant, err := j.dir.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}

	tc, err := j.factory.OpenContext(*tenant)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open tenant context: %w", err)
	}
	if tc == nil {
		return nil, nil, ErrTenantNotProvisioned
	}

	repo := repository.NewEmployeeRepository(tc.DB(), j.logger)
	emp, err := repo.GetByID(ctx, employeeID)
	if err != nil {
		tc.Close()
		return nil, nil, err
	}
	return emp, tc, nil
}
