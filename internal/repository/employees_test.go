package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orbis-maintenance/internal/domain"
)

func employeeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"employee_id", "first_name", "last_name", "national_id", "email",
		"phone", "address", "iban", "birth_date", "status", "termination_date",
	})
}

func TestGetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	repo := NewEmployeeRepository(db, zap.NewNop())
	terminated := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT(.|\n)+FROM employees`).
		WithArgs("emp-1").
		WillReturnRows(employeeRows().AddRow(
			"emp-1", "Ayşe", "Yılmaz", "12345678901", "ayse@example.com",
			"+90 555 000 0000", "İstanbul", "TR000000000000000000000000",
			nil, "terminated", terminated,
		))

	e, err := repo.GetByID(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ayşe", e.FirstName)
	assert.Equal(t, domain.EmployeeStatusTerminated, e.Status)
	require.NotNil(t, e.TerminationDate)
	assert.Equal(t, terminated, *e.TerminationDate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	repo := NewEmployeeRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT(.|\n)+FROM employees`).
		WithArgs("missing").
		WillReturnRows(employeeRows())

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRetentionEligible(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	repo := NewEmployeeRepository(db, zap.NewNop())
	cutoff := time.Date(2016, 8, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT(.|\n)+FROM employees`).
		WithArgs(cutoff, domain.AnonymizedSentinel, 500).
		WillReturnRows(employeeRows().
			AddRow("emp-1", "A", "B", "", "", "", "", "", nil, "terminated",
				time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)).
			AddRow("emp-2", "C", "D", "", "", "", "", "", nil, "resigned",
				time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)))

	employees, err := repo.FindRetentionEligible(context.Background(), cutoff, 500)
	require.NoError(t, err)
	assert.Len(t, employees, 2)
	assert.Equal(t, "emp-1", employees[0].EmployeeID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnonymize(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	repo := NewEmployeeRepository(db, zap.NewNop())

	mock.ExpectExec(`UPDATE employees`).
		WithArgs("emp-1", domain.AnonymizedSentinel).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Anonymize(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnonymize_AlreadyAnonymized(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	repo := NewEmployeeRepository(db, zap.NewNop())

	// 哨兵值过滤：已匿名化的记录受影响行数为 0
	mock.ExpectExec(`UPDATE employees`).
		WithArgs("emp-1", domain.AnonymizedSentinel).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Anonymize(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}
