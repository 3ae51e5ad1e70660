package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/notify"
	"orbis-maintenance/internal/repository"
	"orbis-maintenance/internal/runner"
)

// 提醒阈值（天）
// 半开区间配合每日运行节奏，保证每档提醒只在一个日历日窗口内触发一次。
// 上界取开区间：剩余恰好 3.0/7.0 天的订阅不提醒（边界语义见测试）
const (
	reminderThresholdSoon  = 3
	reminderThresholdEarly = 7
)

// TrialExpirySweepJob 试用到期扫描任务
// trial_end_date 已过的订阅恰好一次转换为 suspended 并发送到期通知；
// 剩余 (2,3) 和 (6,7) 天的分别发送提醒。
// 订阅在 master 库，不走租户上下文
type TrialExpirySweepJob struct {
	subs     *repository.SubscriptionRepository
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewTrialExpirySweepJob 创建扫描任务
func NewTrialExpirySweepJob(subs *repository.SubscriptionRepository, notifier notify.Notifier, logger *zap.Logger) *TrialExpirySweepJob {
	return &TrialExpirySweepJob{
		subs:     subs,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Name 任务名
func (j *TrialExpirySweepJob) Name() string { return "trial-expiry-sweep" }

// Execute 执行一次全量扫描
func (j *TrialExpirySweepJob) Execute(ctx context.Context) (*runner.RunResult, error) {
	subs, err := j.subs.ListTrials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trial subscriptions: %w", err)
	}

	now := j.now()
	result := runner.NewRunResult(uuid.NewString(), j.Name(), time.Now())

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			j.logger.Warn("Trial sweep cancelled, reporting partial result",
				zap.String("run_id", result.RunID),
				zap.Int("tenants_processed", result.TenantsProcessed),
			)
			result.Finish(time.Now())
			result.LogSummary(j.logger)
			return result, nil
		default:
		}

		items, err := j.processSubscription(ctx, sub, now)
		if err != nil {
			j.logger.Warn("Trial subscription processing failed",
				zap.String("subscription_id", sub.SubscriptionID),
				zap.String("tenant_id", sub.TenantID),
				zap.Error(err),
			)
			result.RecordFailure(sub.TenantID, sub.TenantName, items, err)
			continue
		}
		result.RecordSuccess(items)
	}

	result.Finish(time.Now())
	result.LogSummary(j.logger)
	return result, nil
}

// processSubscription 处理单个试用订阅
func (j *TrialExpirySweepJob) processSubscription(ctx context.Context, sub domain.Subscription, now time.Time) (int, error) {
	days := sub.DaysRemaining(now)

	switch {
	case days <= 0:
		affected, err := j.subs.Suspend(ctx, sub.SubscriptionID)
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			// 本次运行期间已被转换，状态过滤保证不重复
			return 0, nil
		}

		// 领域事件只在变更点同步记日志
		j.logger.Info("Trial expired, subscription suspended",
			zap.String("subscription_id", sub.SubscriptionID),
			zap.String("tenant_id", sub.TenantID),
			zap.String("tenant_name", sub.TenantName),
		)

		// 通知尽力而为，失败不影响状态转换
		if err := j.notifier.SendTrialExpiredEmail(ctx, sub.ContactEmail, sub.TenantName); err != nil {
			j.logger.Warn("Failed to send trial expired email",
				zap.String("tenant_id", sub.TenantID),
				zap.Error(err),
			)
		}
		return 1, nil

	case days > reminderThresholdSoon-1 && days < reminderThresholdSoon:
		return j.sendReminder(ctx, sub, reminderThresholdSoon)

	case days > reminderThresholdEarly-1 && days < reminderThresholdEarly:
		return j.sendReminder(ctx, sub, reminderThresholdEarly)
	}

	return 0, nil
}

// sendReminder 发送到期提醒
func (j *TrialExpirySweepJob) sendReminder(ctx context.Context, sub domain.Subscription, days int) (int, error) {
	j.logger.Info("Sending trial expiring reminder",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("tenant_id", sub.TenantID),
		zap.Int("days_remaining", days),
	)

	if err := j.notifier.SendTrialExpiringEmail(ctx, sub.ContactEmail, sub.TenantName, days); err != nil {
		j.logger.Warn("Failed to send trial expiring email",
			zap.String("tenant_id", sub.TenantID),
			zap.Int("days_remaining", days),
			zap.Error(err),
		)
		// 提醒发送失败不算租户失败，下一档提醒和到期转换仍会发生
		return 0, nil
	}
	return 1, nil
}
