package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
)

// BackupRepository backup repository（master 库 tenant_backups 表）
type BackupRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewBackupRepository creates a new backup repository
func NewBackupRepository(q Querier, logger *zap.Logger) *BackupRepository {
	return &BackupRepository{
		q:      q,
		logger: logger,
	}
}

// ListExpired lists completed backups past their expiry timestamp.
func (r *BackupRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.TenantBackup, error) {
	query := `
		SELECT
			backup_id::text,
			tenant_id::text,
			status,
			COALESCE(size_bytes, 0) as size_bytes,
			COALESCE(storage_key, '') as storage_key,
			expires_at
		FROM tenant_backups
		WHERE status = 'completed'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
		ORDER BY expires_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired backups: %w", err)
	}
	defer rows.Close()

	var backups []domain.TenantBackup
	for rows.Next() {
		var b domain.TenantBackup
		if err := rows.Scan(
			&b.BackupID,
			&b.TenantID,
			&b.Status,
			&b.SizeBytes,
			&b.StorageKey,
			&b.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		backups = append(backups, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backups: %w", err)
	}
	return backups, nil
}

// MarkDeleted transitions a backup record to deleted.
// 远端制品删除失败不阻塞此转换（接受孤儿制品）
func (r *BackupRepository) MarkDeleted(ctx context.Context, backupID string) (int64, error) {
	if backupID == "" {
		return 0, fmt.Errorf("backup_id is required")
	}

	query := `
		UPDATE tenant_backups
		SET status = 'deleted',
		    deleted_at = NOW()
		WHERE backup_id = $1::uuid
		  AND status = 'completed'
	`

	result, err := r.q.ExecContext(ctx, query, backupID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark backup deleted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected, nil
}
