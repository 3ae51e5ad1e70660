package domain

import "time"

// 备份状态（对应 master 库 tenant_backups.status）
const (
	BackupStatusPending    = "pending"
	BackupStatusInProgress = "in_progress"
	BackupStatusCompleted  = "completed"
	BackupStatusFailed     = "failed"
	BackupStatusDeleted    = "deleted"
)

// TenantBackup 租户备份领域模型（对应 master 库 tenant_backups 表）
// 过期备份先尝试删除远端制品，再把记录标记为 deleted；
// 远端删除失败不阻塞记录删除（接受孤儿制品）
type TenantBackup struct {
	BackupID string `db:"backup_id"` // UUID, PRIMARY KEY
	TenantID string `db:"tenant_id"` // UUID

	Status     string `db:"status"`      // VARCHAR(50)
	SizeBytes  int64  `db:"size_bytes"`  // BIGINT
	StorageKey string `db:"storage_key"` // VARCHAR(512)，远端制品路径

	ExpiresAt *time.Time `db:"expires_at"` // TIMESTAMPTZ, nullable
}

// IsExpired 备份是否已过期
func (b *TenantBackup) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && b.ExpiresAt.Before(now)
}
