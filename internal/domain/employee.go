package domain

import "time"

// 员工状态（对应租户库 employees.status）
const (
	EmployeeStatusActive     = "active"
	EmployeeStatusTerminated = "terminated"
	EmployeeStatusResigned   = "resigned"
	EmployeeStatusRetired    = "retired"
)

// AnonymizedSentinel 匿名化哨兵值
// 写入 first_name 后该记录视为已匿名化，不允许二次匿名化
const AnonymizedSentinel = "ANONYMIZED"

// Employee 员工领域模型（对应租户库 employees 表）
// 员工记录永不物理删除（审计要求），离职满法定保留期后
// 对个人数据字段做不可逆匿名化
type Employee struct {
	EmployeeID string `db:"employee_id"` // UUID, PRIMARY KEY

	// 个人数据字段（匿名化对象）
	FirstName  string     `db:"first_name"`  // VARCHAR(100)
	LastName   string     `db:"last_name"`   // VARCHAR(100)
	NationalID string     `db:"national_id"` // VARCHAR(20), nullable
	Email      string     `db:"email"`       // VARCHAR(255), nullable
	Phone      string     `db:"phone"`       // VARCHAR(50), nullable
	Address    string     `db:"address"`     // TEXT, nullable
	IBAN       string     `db:"iban"`        // VARCHAR(34), nullable
	BirthDate  *time.Time `db:"birth_date"`  // DATE, nullable

	// 状态与离职时间
	Status          string     `db:"status"`           // VARCHAR(50)
	TerminationDate *time.Time `db:"termination_date"` // DATE, nullable
}

// IsAnonymized 是否已匿名化（哨兵值判断）
func (e *Employee) IsAnonymized() bool {
	return e.FirstName == AnonymizedSentinel
}

// IsDeparted 是否已离职（三种离职状态之一）
func (e *Employee) IsDeparted() bool {
	switch e.Status {
	case EmployeeStatusTerminated, EmployeeStatusResigned, EmployeeStatusRetired:
		return true
	}
	return false
}

// RetentionElapsed 法定保留期是否已届满
// 离职日期加 retentionYears 年，严格早于 now 才算届满
func (e *Employee) RetentionElapsed(now time.Time, retentionYears int) bool {
	if e.TerminationDate == nil {
		return false
	}
	return e.TerminationDate.AddDate(retentionYears, 0, 0).Before(now)
}

// EligibleForAnonymization 是否满足定期匿名化条件
func (e *Employee) EligibleForAnonymization(now time.Time, retentionYears int) bool {
	return e.IsDeparted() && !e.IsAnonymized() && e.RetentionElapsed(now, retentionYears)
}
