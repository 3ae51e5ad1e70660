package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// InvitationRepository invitation repository（租户库 tenant_users 表）
type InvitationRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(q Querier, logger *zap.Logger) *InvitationRepository {
	return &InvitationRepository{
		q:      q,
		logger: logger,
	}
}

// CountExpiredPending counts zombie invitations (expired activation token).
func (r *InvitationRepository) CountExpiredPending(ctx context.Context, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tenant_users
		WHERE status = 'pending_activation'
		  AND activation_token_expiry IS NOT NULL
		  AND activation_token_expiry < $1
	`

	var count int
	if err := r.q.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expired invitations: %w", err)
	}
	return count, nil
}

// DeleteExpiredPending hard-deletes zombie invitations.
// 占位账号没有法定保留要求，直接物理删除；
// 谓词本身幂等，重复执行删除 0 行
func (r *InvitationRepository) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM tenant_users
		WHERE status = 'pending_activation'
		  AND activation_token_expiry IS NOT NULL
		  AND activation_token_expiry < $1
	`

	result, err := r.q.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return deleted, nil
}

// CountPendingActivation counts all pending invitations (health check backlog).
func (r *InvitationRepository) CountPendingActivation(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tenant_users
		WHERE status = 'pending_activation'
	`

	var count int
	if err := r.q.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending invitations: %w", err)
	}
	return count, nil
}
