package domain

import "time"

// 订阅状态（对应 master 库 subscriptions.status）
const (
	SubscriptionStatusTrial     = "trial"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusSuspended = "suspended"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription 订阅领域模型（对应 master 库 subscriptions 表）
type Subscription struct {
	SubscriptionID string `db:"subscription_id"` // UUID, PRIMARY KEY
	TenantID       string `db:"tenant_id"`       // UUID

	// 冗余自 tenants 表（提醒邮件需要）
	TenantName   string `db:"tenant_name"`
	ContactEmail string `db:"contact_email"`

	Status       string     `db:"status"`         // VARCHAR(50)
	TrialEndDate *time.Time `db:"trial_end_date"` // TIMESTAMPTZ, nullable
}

// DaysRemaining 试用期剩余天数（可为小数或负数）
// 调用方必须保证 TrialEndDate 非空
func (s *Subscription) DaysRemaining(now time.Time) float64 {
	return s.TrialEndDate.Sub(now).Hours() / 24
}
