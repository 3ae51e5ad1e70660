package jobs

import "errors"

// 按需操作的领域错误（同步返回给调用方，不进汇总计数）
var (
	// ErrRetentionNotElapsed 法定保留期未满，禁止匿名化
	ErrRetentionNotElapsed = errors.New("statutory retention window has not elapsed")

	// ErrAlreadyAnonymized 员工已匿名化，不允许二次处理
	ErrAlreadyAnonymized = errors.New("employee already anonymized")

	// ErrTenantNotProvisioned 租户未开通对应模块的独立库
	ErrTenantNotProvisioned = errors.New("tenant store not provisioned")
)
