package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
)

// ErrEmployeeNotFound 员工不存在
var ErrEmployeeNotFound = fmt.Errorf("employee not found")

// EmployeeRepository employee repository（租户库 employees 表）
type EmployeeRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(q Querier, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{
		q:      q,
		logger: logger,
	}
}

const employeeColumns = `
			employee_id::text,
			first_name,
			last_name,
			COALESCE(national_id, '') as national_id,
			COALESCE(email, '') as email,
			COALESCE(phone, '') as phone,
			COALESCE(address, '') as address,
			COALESCE(iban, '') as iban,
			birth_date,
			status,
			termination_date`

// GetByID 根据employee_id获取员工
func (r *EmployeeRepository) GetByID(ctx context.Context, employeeID string) (*domain.Employee, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("employee_id is required")
	}

	query := `
		SELECT` + employeeColumns + `
		FROM employees
		WHERE employee_id = $1::uuid
	`

	var e domain.Employee
	err := r.q.QueryRowContext(ctx, query, employeeID).Scan(
		&e.EmployeeID,
		&e.FirstName,
		&e.LastName,
		&e.NationalID,
		&e.Email,
		&e.Phone,
		&e.Address,
		&e.IBAN,
		&e.BirthDate,
		&e.Status,
		&e.TerminationDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// FindRetentionEligible finds departed, not-yet-anonymized employees whose
// termination date is strictly before cutoff.
func (r *EmployeeRepository) FindRetentionEligible(ctx context.Context, cutoff time.Time, limit int) ([]domain.Employee, error) {
	query := `
		SELECT` + employeeColumns + `
		FROM employees
		WHERE status IN ('terminated', 'resigned', 'retired')
		  AND termination_date IS NOT NULL
		  AND termination_date < $1
		  AND first_name <> $2
		ORDER BY termination_date ASC
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, cutoff, domain.AnonymizedSentinel, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query retention-eligible employees: %w", err)
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(
			&e.EmployeeID,
			&e.FirstName,
			&e.LastName,
			&e.NationalID,
			&e.Email,
			&e.Phone,
			&e.Address,
			&e.IBAN,
			&e.BirthDate,
			&e.Status,
			&e.TerminationDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// Anonymize irreversibly replaces personal data fields with sentinel values.
// WHERE 条件排除已匿名化记录，保证不会二次匿名化；
// 返回受影响行数（0 表示记录不存在或已匿名化）
func (r *EmployeeRepository) Anonymize(ctx context.Context, employeeID string) (int64, error) {
	if employeeID == "" {
		return 0, fmt.Errorf("employee_id is required")
	}

	query := `
		UPDATE employees
		SET first_name = $2,
		    last_name = $2,
		    national_id = NULL,
		    email = NULL,
		    phone = NULL,
		    address = NULL,
		    iban = NULL,
		    birth_date = NULL
		WHERE employee_id = $1::uuid
		  AND first_name <> $2
	`

	result, err := r.q.ExecContext(ctx, query, employeeID, domain.AnonymizedSentinel)
	if err != nil {
		return 0, fmt.Errorf("failed to anonymize employee: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected, nil
}
