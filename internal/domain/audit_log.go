package domain

import (
	"encoding/json"
	"time"
)

// AuditLogEntry 审计日志领域模型（对应 audit_logs 表，master库和各租户库均有）
// 超过热存储保留期（默认6个月）的条目归档到冷存储后从热存储删除；
// 冷存储侧保留10年（法定保留期），本服务不负责冷存储侧的删除
type AuditLogEntry struct {
	EntryID string `db:"entry_id"` // UUID, PRIMARY KEY

	Action   string `db:"action"`   // VARCHAR(100)，如 "user.login"
	ActorID  string `db:"actor_id"` // VARCHAR(255), nullable
	Category string `db:"category"` // VARCHAR(50)

	Payload json.RawMessage `db:"payload"` // JSONB, nullable

	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
}
