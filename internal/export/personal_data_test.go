package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"orbis-maintenance/internal/domain"
)

func TestBuildPersonalDataWorkbook(t *testing.T) {
	terminated := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)
	e := &domain.Employee{
		EmployeeID:      "emp-1",
		FirstName:       "Ayşe",
		LastName:        "Yılmaz",
		NationalID:      "12345678901",
		Email:           "ayse@example.com",
		Status:          domain.EmployeeStatusTerminated,
		TerminationDate: &terminated,
	}

	data, err := BuildPersonalDataWorkbook(e, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// 重新打开验证内容
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Personal Data")
	require.NoError(t, err)
	require.Greater(t, len(rows), 5)

	assert.Equal(t, []string{"Field", "Value"}, rows[0][:2])
	assert.Equal(t, "Employee ID", rows[1][0])
	assert.Equal(t, "emp-1", rows[1][1])
	assert.Equal(t, "First Name", rows[2][0])
	assert.Equal(t, "Ayşe", rows[2][1])
}

func TestBuildPersonalDataWorkbook_NilDates(t *testing.T) {
	e := &domain.Employee{
		EmployeeID: "emp-2",
		FirstName:  "Mehmet",
		LastName:   "Demir",
		Status:     domain.EmployeeStatusActive,
	}

	data, err := BuildPersonalDataWorkbook(e, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
