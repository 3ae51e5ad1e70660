package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
)

// AuditLogRepository audit log repository（audit_logs 表，master库与租户库同构）
type AuditLogRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(q Querier, logger *zap.Logger) *AuditLogRepository {
	return &AuditLogRepository{
		q:      q,
		logger: logger,
	}
}

// FetchBatchOlderThan fetches up to limit entries created before cutoff,
// oldest first, for archival export.
func (r *AuditLogRepository) FetchBatchOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.AuditLogEntry, error) {
	query := `
		SELECT
			entry_id::text,
			action,
			COALESCE(actor_id, '') as actor_id,
			COALESCE(category, '') as category,
			COALESCE(payload, '{}'::jsonb) as payload,
			created_at
		FROM audit_logs
		WHERE created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log batch: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		var payload json.RawMessage

		if err := rows.Scan(
			&entry.EntryID,
			&entry.Action,
			&entry.ActorID,
			&entry.Category,
			&payload,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
		}

		entry.Payload = payload
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log batch: %w", err)
	}
	return entries, nil
}

// DeleteEntries removes archived entries from the hot store.
// 只在冷存储写入确认之后调用（调用方负责事务边界）
func (r *AuditLogRepository) DeleteEntries(ctx context.Context, entryIDs []string) (int64, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}

	query := `DELETE FROM audit_logs WHERE entry_id = ANY($1::uuid[])`

	result, err := r.q.ExecContext(ctx, query, pq.Array(entryIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete archived entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return deleted, nil
}

// DeleteEntriesTx deletes a batch inside its own transaction on db.
func DeleteEntriesTx(ctx context.Context, db *sql.DB, logger *zap.Logger, entryIDs []string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	repo := NewAuditLogRepository(tx, logger)
	deleted, err := repo.DeleteEntries(ctx, entryIDs)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warn("Failed to rollback delete transaction",
				zap.Error(rbErr),
			)
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete transaction: %w", err)
	}
	return deleted, nil
}
