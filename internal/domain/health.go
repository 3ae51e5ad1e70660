package domain

import "time"

// 租户健康状态
const (
	HealthStatusHealthy        = "healthy"
	HealthStatusDegraded       = "degraded"
	HealthStatusUnhealthy      = "unhealthy"
	HealthStatusNotProvisioned = "not_provisioned"
)

// HealthCheckItem 单项检查结果
type HealthCheckItem struct {
	Name    string `json:"name"`    // 检查项，如 "connectivity"
	Passed  bool   `json:"passed"`  // 是否通过
	Detail  string `json:"detail"`  // 说明
	Penalty int    `json:"penalty"` // 扣分
}

// HealthReport 租户健康报告（不落库，缓存到KV并推送监控）
type HealthReport struct {
	TenantID   string            `json:"tenant_id"`
	TenantName string            `json:"tenant_name"`
	Status     string            `json:"status"`
	Score      int               `json:"score"` // 0-100
	Checks     []HealthCheckItem `json:"checks"`
	LatencyMS  int64             `json:"latency_ms"`
	CheckedAt  time.Time         `json:"checked_at"`
}
