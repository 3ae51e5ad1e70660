package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orbis-maintenance/internal/cache"
	"orbis-maintenance/internal/directory"
	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/monitor"
	"orbis-maintenance/internal/repository"
	"orbis-maintenance/internal/runner"
	"orbis-maintenance/internal/tenantdb"
)

// 健康评分扣分项
const (
	penaltyLatency      = 20 // ping 延迟超过阈值
	penaltyBacklog      = 10 // 待激活邀请积压
	penaltySubscription = 30 // 订阅已停用
	penaltyCheckError   = 10 // 单项检查自身出错

	latencyThreshold = 500 * time.Millisecond
	backlogThreshold = 100

	scoreHealthy  = 80
	scoreDegraded = 50
)

// HealthCheckJob 租户健康检查任务
// 两个入口：全租户扫描（调度触发）和单租户按需检查（API触发）；
// 报告写入 KV 缓存并经 MQTT 尽力推送监控
type HealthCheckJob struct {
	dir       directory.Directory
	factory   tenantdb.Factory
	subs      *repository.SubscriptionRepository
	kv        cache.KVStore
	keyPrefix string
	ttl       time.Duration
	publisher monitor.HealthPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewHealthCheckJob 创建健康检查任务
func NewHealthCheckJob(
	dir directory.Directory,
	factory tenantdb.Factory,
	subs *repository.SubscriptionRepository,
	kv cache.KVStore,
	keyPrefix string,
	ttl time.Duration,
	publisher monitor.HealthPublisher,
	logger *zap.Logger,
) *HealthCheckJob {
	return &HealthCheckJob{
		dir:       dir,
		factory:   factory,
		subs:      subs,
		kv:        kv,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Name 任务名
func (j *HealthCheckJob) Name() string { return "tenant-health-check" }

// Execute 执行一次全租户健康扫描
// 扫描变体只记日志不抛错：不健康计入 failed，不中断后续租户
func (j *HealthCheckJob) Execute(ctx context.Context) (*runner.RunResult, error) {
	tenants, err := j.dir.ListActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}

	result := runner.NewRunResult(uuid.NewString(), j.Name(), time.Now())

	for _, tenant := range tenants {
		select {
		case <-ctx.Done():
			result.Finish(time.Now())
			result.LogSummary(j.logger)
			return result, nil
		default:
		}

		report := j.PerformHealthCheck(ctx, tenant)
		switch report.Status {
		case domain.HealthStatusNotProvisioned:
			result.RecordSkip()
		case domain.HealthStatusUnhealthy:
			result.RecordFailure(tenant.TenantID, tenant.TenantName, 0,
				fmt.Errorf("tenant unhealthy: score=%d", report.Score))
		default:
			result.RecordSuccess(1)
		}
	}

	result.Finish(time.Now())
	result.LogSummary(j.logger)
	return result, nil
}

// PerformHealthCheckByID 单租户按需检查（API同步调用）
// 租户不存在的错误直接返回调用方
func (j *HealthCheckJob) PerformHealthCheckByID(ctx context.Context, tenantID string) (*domain.HealthReport, error) {
	tenant, err := j.dir.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return j.PerformHealthCheck(ctx, *tenant), nil
}

// PerformHealthCheck 对单个租户执行健康检查
// 从不返回错误：连通性失败本身就是一种健康状态
func (j *HealthCheckJob) PerformHealthCheck(ctx context.Context, tenant domain.Tenant) *domain.HealthReport {
	report := &domain.HealthReport{
		TenantID:   tenant.TenantID,
		TenantName: tenant.TenantName,
		CheckedAt:  j.now(),
	}

	tc, err := j.factory.OpenContext(tenant)
	if err != nil {
		report.Status = domain.HealthStatusUnhealthy
		report.Score = 0
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:    "connectivity",
			Passed:  false,
			Detail:  err.Error(),
			Penalty: 100,
		})
		j.logger.Warn("Tenant health check: store unreachable",
			zap.String("tenant_id", tenant.TenantID),
			zap.Error(err),
		)
		j.publish(ctx, report)
		return report
	}
	if tc == nil {
		report.Status = domain.HealthStatusNotProvisioned
		report.Score = 0
		return report
	}
	defer tc.Close()

	score := 100

	// 1. 连通性 + 延迟
	start := time.Now()
	pingErr := tc.DB().PingContext(ctx)
	latency := time.Since(start)
	report.LatencyMS = latency.Milliseconds()

	if pingErr != nil {
		report.Status = domain.HealthStatusUnhealthy
		report.Score = 0
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:    "connectivity",
			Passed:  false,
			Detail:  pingErr.Error(),
			Penalty: 100,
		})
		j.publish(ctx, report)
		return report
	}
	report.Checks = append(report.Checks, domain.HealthCheckItem{
		Name:   "connectivity",
		Passed: true,
	})

	if latency > latencyThreshold {
		score -= penaltyLatency
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:    "latency",
			Passed:  false,
			Detail:  latency.String(),
			Penalty: penaltyLatency,
		})
	} else {
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:   "latency",
			Passed: true,
			Detail: latency.String(),
		})
	}

	// 2. 待激活邀请积压
	invRepo := repository.NewInvitationRepository(tc.DB(), j.logger)
	backlog, err := invRepo.CountPendingActivation(ctx)
	switch {
	case err != nil:
		score -= penaltyCheckError
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:    "invitation_backlog",
			Passed:  false,
			Detail:  err.Error(),
			Penalty: penaltyCheckError,
		})
	case backlog > backlogThreshold:
		score -= penaltyBacklog
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:    "invitation_backlog",
			Passed:  false,
			Detail:  fmt.Sprintf("%d pending invitations", backlog),
			Penalty: penaltyBacklog,
		})
	default:
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:   "invitation_backlog",
			Passed: true,
		})
	}

	// 3. 订阅状态（master 库）
	status, err := j.subs.GetTenantSubscriptionStatus(ctx, tenant.TenantID)
	switch {
	case err != nil:
		score -= penaltyCheckError
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:    "subscription",
			Passed:  false,
			Detail:  err.Error(),
			Penalty: penaltyCheckError,
		})
	case status == domain.SubscriptionStatusSuspended:
		score -= penaltySubscription
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:    "subscription",
			Passed:  false,
			Detail:  "subscription suspended",
			Penalty: penaltySubscription,
		})
	default:
		report.Checks = append(report.Checks, domain.HealthCheckItem{
			Name:   "subscription",
			Passed: true,
			Detail: status,
		})
	}

	report.Score = score
	switch {
	case score >= scoreHealthy:
		report.Status = domain.HealthStatusHealthy
	case score >= scoreDegraded:
		report.Status = domain.HealthStatusDegraded
	default:
		report.Status = domain.HealthStatusUnhealthy
	}

	j.publish(ctx, report)
	return report
}

// publish 缓存并推送报告（两者都尽力而为）
func (j *HealthCheckJob) publish(ctx context.Context, report *domain.HealthReport) {
	if data, err := json.Marshal(report); err == nil {
		if err := j.kv.Set(ctx, j.keyPrefix+report.TenantID, string(data), j.ttl); err != nil {
			j.logger.Warn("Failed to cache health report",
				zap.String("tenant_id", report.TenantID),
				zap.Error(err),
			)
		}
	}

	if err := j.publisher.PublishHealth(*report); err != nil {
		j.logger.Warn("Failed to publish health report",
			zap.String("tenant_id", report.TenantID),
			zap.Error(err),
		)
	}
}
