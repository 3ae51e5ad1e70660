package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
)

// SubscriptionRepository subscription repository（master 库 subscriptions 表）
type SubscriptionRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(q Querier, logger *zap.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{
		q:      q,
		logger: logger,
	}
}

// ListTrials lists all trial subscriptions with tenant contact info.
func (r *SubscriptionRepository) ListTrials(ctx context.Context) ([]domain.Subscription, error) {
	query := `
		SELECT
			s.subscription_id::text,
			s.tenant_id::text,
			t.tenant_name,
			COALESCE(t.email, '') as contact_email,
			s.status,
			s.trial_end_date
		FROM subscriptions s
		INNER JOIN tenants t ON t.tenant_id = s.tenant_id
		WHERE s.status = 'trial'
		  AND s.trial_end_date IS NOT NULL
		  AND t.status = 'active'
		ORDER BY s.trial_end_date ASC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(
			&s.SubscriptionID,
			&s.TenantID,
			&s.TenantName,
			&s.ContactEmail,
			&s.Status,
			&s.TrialEndDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}

// Suspend transitions a trial subscription to suspended.
// 状态过滤保证恰好转换一次：已 suspended 的订阅返回 0 行
func (r *SubscriptionRepository) Suspend(ctx context.Context, subscriptionID string) (int64, error) {
	if subscriptionID == "" {
		return 0, fmt.Errorf("subscription_id is required")
	}

	query := `
		UPDATE subscriptions
		SET status = 'suspended',
		    updated_at = NOW()
		WHERE subscription_id = $1::uuid
		  AND status = 'trial'
	`

	result, err := r.q.ExecContext(ctx, query, subscriptionID)
	if err != nil {
		return 0, fmt.Errorf("failed to suspend subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected, nil
}

// GetTenantSubscriptionStatus returns the subscription status for a tenant
// (health check input). Missing subscription is reported as empty string.
func (r *SubscriptionRepository) GetTenantSubscriptionStatus(ctx context.Context, tenantID string) (string, error) {
	query := `
		SELECT status
		FROM subscriptions
		WHERE tenant_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT 1
	`

	var status string
	err := r.q.QueryRowContext(ctx, query, tenantID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get subscription status: %w", err)
	}
	return status, nil
}
