package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"orbis-maintenance/internal/archive"
	"orbis-maintenance/internal/cache"
	"orbis-maintenance/internal/config"
	"orbis-maintenance/internal/database"
	"orbis-maintenance/internal/directory"
	"orbis-maintenance/internal/domain"
	"orbis-maintenance/internal/jobs"
	"orbis-maintenance/internal/monitor"
	"orbis-maintenance/internal/notify"
	"orbis-maintenance/internal/repository"
	"orbis-maintenance/internal/runner"
	"orbis-maintenance/internal/scheduler"
	"orbis-maintenance/internal/storage"
	"orbis-maintenance/internal/tenantdb"
)

// MaintenanceService 维护服务（整合各层）
// 六个定期任务跑在调度器上；三个按需操作（健康检查、匿名化、数据导出）
// 暴露为同步方法供管理端调用
type MaintenanceService struct {
	config      *config.Config
	masterDB    *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	kv        cache.KVStore
	publisher monitor.HealthPublisher
	dir       directory.Directory
	factory   tenantdb.Factory
	scheduler *scheduler.Scheduler

	// 任务
	invitationCleanup *jobs.ExpiredInvitationCleanupJob
	auditArchive      *jobs.AuditLogArchiveJob
	dataRetention     *jobs.DataRetentionJob
	trialExpiry       *jobs.TrialExpirySweepJob
	healthCheck       *jobs.HealthCheckJob
	backupCleanup     *jobs.BackupCleanupJob
}

// NewMaintenanceService 创建维护服务
func NewMaintenanceService(cfg *config.Config, logger *zap.Logger) (*MaintenanceService, error) {
	// 1. 连接 master 库
	masterDB, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect master database: %w", err)
	}

	// 2. 缓存后端（显式配置选择）
	var redisClient *redis.Client
	if cfg.Cache.Backend == cache.BackendRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			masterDB.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
	}

	kv, err := cache.New(cfg.Cache.Backend, redisClient)
	if err != nil {
		masterDB.Close()
		return nil, err
	}

	// 3. 健康状态推送（MQTT 可选）
	var publisher monitor.HealthPublisher
	if cfg.MQTT.Enabled {
		mqttPub, err := monitor.NewMQTTPublisher(&cfg.MQTT, logger)
		if err != nil {
			masterDB.Close()
			return nil, fmt.Errorf("failed to connect mqtt broker: %w", err)
		}
		publisher = mqttPub
	} else {
		publisher = monitor.NewNoopPublisher()
	}

	// 4. Repository 层（master 库）
	tenantRepo := repository.NewTenantRepository(masterDB, logger)
	subsRepo := repository.NewSubscriptionRepository(masterDB, logger)
	backupRepo := repository.NewBackupRepository(masterDB, logger)

	// 5. 租户目录与租户上下文工厂
	dir := directory.NewCachedDirectory(tenantRepo, kv, cfg.Cache.DirectoryKey,
		time.Duration(cfg.Cache.DirectoryTTL)*time.Second, logger)
	factory := tenantdb.NewPostgresFactory(&cfg.Database, logger)
	run := runner.NewRunner(factory, logger)

	// 6. 外部服务客户端
	archiver := archive.NewHTTPArchiver(cfg.Archive.BaseURL, cfg.Archive.APIKey, logger)
	notifier := notify.NewHTTPNotifier(cfg.Notify.BaseURL, cfg.Notify.APIKey, logger)
	artifactStore := storage.NewHTTPArtifactStore(cfg.Storage.BaseURL, cfg.Storage.APIKey, logger)

	// 7. 任务
	s := &MaintenanceService{
		config:      cfg,
		masterDB:    masterDB,
		redisClient: redisClient,
		logger:      logger,
		kv:          kv,
		publisher:   publisher,
		dir:         dir,
		factory:     factory,

		invitationCleanup: jobs.NewExpiredInvitationCleanupJob(dir, run, logger),
		auditArchive: jobs.NewAuditLogArchiveJob(masterDB, dir, run, archiver,
			cfg.Archive.BatchSize, cfg.Jobs.AuditRetentionMonths, logger),
		dataRetention: jobs.NewDataRetentionJob(dir, run, factory,
			cfg.Jobs.RetentionYears, logger),
		trialExpiry: jobs.NewTrialExpirySweepJob(subsRepo, notifier, logger),
		healthCheck: jobs.NewHealthCheckJob(dir, factory, subsRepo, kv,
			cfg.Cache.HealthKeyPrefix, time.Duration(cfg.Cache.HealthTTL)*time.Second,
			publisher, logger),
		backupCleanup: jobs.NewBackupCleanupJob(backupRepo, artifactStore, logger),
	}

	// 8. 调度器
	sched := scheduler.NewScheduler(cfg.Jobs.RetryDelays, logger)
	sched.Register(s.invitationCleanup.Name(), cfg.Jobs.InvitationCleanupInterval, asJobFunc(s.invitationCleanup.Execute))
	sched.Register(s.auditArchive.Name(), cfg.Jobs.AuditArchiveInterval, asJobFunc(s.auditArchive.Execute))
	sched.Register(s.dataRetention.Name(), cfg.Jobs.DataRetentionInterval, asJobFunc(s.dataRetention.Execute))
	sched.Register(s.trialExpiry.Name(), cfg.Jobs.TrialSweepInterval, asJobFunc(s.trialExpiry.Execute))
	sched.Register(s.healthCheck.Name(), cfg.Jobs.HealthCheckInterval, asJobFunc(s.healthCheck.Execute))
	sched.Register(s.backupCleanup.Name(), cfg.Jobs.BackupCleanupInterval, asJobFunc(s.backupCleanup.Execute))
	s.scheduler = sched

	return s, nil
}

// asJobFunc 适配任务入口：汇总已在任务内部落日志，调度器只关心整体错误
func asJobFunc(execute func(ctx context.Context) (*runner.RunResult, error)) scheduler.JobFunc {
	return func(ctx context.Context) error {
		_, err := execute(ctx)
		return err
	}
}

// Start 启动服务
func (s *MaintenanceService) Start(ctx context.Context) error {
	s.logger.Info("Starting maintenance service",
		zap.String("cache_backend", s.config.Cache.Backend),
		zap.Bool("mqtt_enabled", s.config.MQTT.Enabled),
	)

	s.scheduler.Start(ctx)
	return nil
}

// Stop 停止服务
func (s *MaintenanceService) Stop() {
	s.logger.Info("Stopping maintenance service")

	s.scheduler.Stop()
	s.publisher.Close()

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client",
				zap.Error(err),
			)
		}
	}

	if err := s.masterDB.Close(); err != nil {
		s.logger.Error("Failed to close master database",
			zap.Error(err),
		)
	}
}

// CheckTenantHealth 单租户按需健康检查
func (s *MaintenanceService) CheckTenantHealth(ctx context.Context, tenantID string) (*domain.HealthReport, error) {
	return s.healthCheck.PerformHealthCheckByID(ctx, tenantID)
}

// AnonymizeEmployee 管理员触发的按需匿名化
func (s *MaintenanceService) AnonymizeEmployee(ctx context.Context, tenantID, employeeID, requestedBy string) error {
	return s.dataRetention.AnonymizeOnRequest(ctx, tenantID, employeeID, requestedBy)
}

// ExportEmployeeData 员工个人数据导出（xlsx）
func (s *MaintenanceService) ExportEmployeeData(ctx context.Context, tenantID, employeeID string) ([]byte, error) {
	return s.dataRetention.ExportPersonalData(ctx, tenantID, employeeID)
}
