package runner

import (
	"time"

	"go.uber.org/zap"
)

// TenantError 单租户失败记录
type TenantError struct {
	TenantID   string
	TenantName string
	Err        error
}

// RunResult 单次运行的结果汇总（仅内存，不落库）
// 运行串行推进，无需加锁
type RunResult struct {
	RunID string
	Job   string

	TenantsProcessed int // 遍历到的租户数（含跳过与失败）
	Succeeded        int
	Failed           int
	Skipped          int // 未开通模块的租户
	ItemsProcessed   int // 各租户处理的记录数之和

	Errors []TenantError

	StartedAt time.Time
	Duration  time.Duration
}

// NewRunResult 创建结果汇总
func NewRunResult(runID, job string, startedAt time.Time) *RunResult {
	return &RunResult{
		RunID:     runID,
		Job:       job,
		StartedAt: startedAt,
	}
}

// RecordSuccess 记录一个租户成功
func (r *RunResult) RecordSuccess(items int) {
	r.TenantsProcessed++
	r.Succeeded++
	r.ItemsProcessed += items
}

// RecordFailure 记录一个租户失败
// items 为失败前已提交的记录数（归档任务部分批次成功的场景）
func (r *RunResult) RecordFailure(tenantID, tenantName string, items int, err error) {
	r.TenantsProcessed++
	r.Failed++
	r.ItemsProcessed += items
	r.Errors = append(r.Errors, TenantError{
		TenantID:   tenantID,
		TenantName: tenantName,
		Err:        err,
	})
}

// RecordSkip 记录一个跳过的租户
func (r *RunResult) RecordSkip() {
	r.TenantsProcessed++
	r.Skipped++
}

// Finish 结束计时
func (r *RunResult) Finish(now time.Time) {
	r.Duration = now.Sub(r.StartedAt)
}

// LogSummary 输出一条结构化汇总日志
func (r *RunResult) LogSummary(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("run_id", r.RunID),
		zap.String("job", r.Job),
		zap.Int("tenants_processed", r.TenantsProcessed),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("failed", r.Failed),
		zap.Int("skipped", r.Skipped),
		zap.Int("items_processed", r.ItemsProcessed),
		zap.Duration("duration", r.Duration),
	}

	if r.Failed > 0 {
		errs := make([]string, 0, len(r.Errors))
		for _, e := range r.Errors {
			errs = append(errs, e.TenantID+": "+e.Err.Error())
		}
		fields = append(fields, zap.Strings("tenant_errors", errs))
		logger.Warn("Job run completed with failures", fields...)
		return
	}

	logger.Info("Job run completed", fields...)
}
