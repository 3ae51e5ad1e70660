package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"orbis-maintenance/internal/domain"
)

// PersonalDataHeader 个人数据导出表头
var PersonalDataHeader = []string{
	"Field",
	"Value",
}

// BuildPersonalDataWorkbook 生成员工个人数据导出 Excel 文件
// 数据携带权（KVKK/GDPR）请求的交付物
func BuildPersonalDataWorkbook(e *domain.Employee, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Personal Data"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close() // Close on error
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头
	for i, h := range PersonalDataHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	rows := [][2]string{
		{"Employee ID", e.EmployeeID},
		{"First Name", e.FirstName},
		{"Last Name", e.LastName},
		{"National ID", e.NationalID},
		{"Email", e.Email},
		{"Phone", e.Phone},
		{"Address", e.Address},
		{"IBAN", e.IBAN},
		{"Birth Date", formatDate(e.BirthDate)},
		{"Status", e.Status},
		{"Termination Date", formatDate(e.TerminationDate)},
		{"Generated At", generatedAt.UTC().Format(time.RFC3339)},
	}

	for i, row := range rows {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
