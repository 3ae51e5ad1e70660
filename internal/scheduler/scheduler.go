package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc 一次完整的任务运行
// 返回错误表示整体失败（如租户目录不可达），按退避延迟重试；
// 单租户粒度的失败在任务内部消化，不会走到这里
type JobFunc func(ctx context.Context) error

// entry 已注册的任务
type entry struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

// Scheduler 间隔调度器
// 每个任务一个 goroutine + time.Ticker，启动时先跑一轮；
// 具体触发时刻（如每日02:00 UTC）由部署环境对齐，这里只保证间隔
type Scheduler struct {
	entries     []entry
	retryDelays []time.Duration
	logger      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler 创建调度器
func NewScheduler(retryDelays []time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		retryDelays: retryDelays,
		logger:      logger,
	}
}

// Register 注册任务（必须在 Start 之前调用）
func (s *Scheduler) Register(name string, interval time.Duration, fn JobFunc) {
	s.entries = append(s.entries, entry{
		name:     name,
		interval: interval,
		fn:       fn,
	})
}

// Start 启动所有任务循环
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.runLoop(ctx, e)
	}

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.entries)),
	)
}

// Stop 停止所有任务循环并等待退出
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// runLoop 单个任务的调度循环
func (s *Scheduler) runLoop(ctx context.Context, e entry) {
	defer s.wg.Done()

	// 启动即跑一轮，空窗期不超过一个间隔
	s.runWithRetry(ctx, e)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runWithRetry(ctx, e)
		}
	}
}

// runWithRetry 执行一次运行，整体失败按配置延迟重试
func (s *Scheduler) runWithRetry(ctx context.Context, e entry) {
	start := time.Now()
	err := e.fn(ctx)
	if err == nil {
		return
	}

	for attempt, delay := range s.retryDelays {
		s.logger.Warn("Job run failed, will retry",
			zap.String("job", e.name),
			zap.Int("attempt", attempt+1),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if err = e.fn(ctx); err == nil {
			return
		}
	}

	s.logger.Error("Job run failed after all retries",
		zap.String("job", e.name),
		zap.Int("attempts", len(s.retryDelays)+1),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
}
