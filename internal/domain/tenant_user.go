package domain

import "time"

// 租户用户状态（对应租户库 tenant_users.status）
const (
	UserStatusPendingActivation = "pending_activation"
	UserStatusActive            = "active"
	UserStatusDisabled          = "disabled"
)

// TenantUser 租户用户领域模型（对应租户库 tenant_users 表）
// pending_activation 状态的用户是邀请中的占位账号，
// 激活令牌过期后即为僵尸邀请，可直接删除（不占座席配额）
type TenantUser struct {
	UserID   string `db:"user_id"`   // UUID, PRIMARY KEY
	TenantID string `db:"tenant_id"` // UUID

	Email  string `db:"email"`  // VARCHAR(255)
	Status string `db:"status"` // VARCHAR(50)

	// 激活令牌过期时间，仅 pending_activation 用户有值
	ActivationTokenExpiry *time.Time `db:"activation_token_expiry"` // TIMESTAMPTZ, nullable
}

// IsExpiredInvitation 是否为过期邀请
func (u *TenantUser) IsExpiredInvitation(now time.Time) bool {
	return u.Status == UserStatusPendingActivation &&
		u.ActivationTokenExpiry != nil &&
		u.ActivationTokenExpiry.Before(now)
}
