package utils

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Aashish23092/contribution-calculator/dto"
)

const (
	ResultSheetName  = "社保计算结果"
	exportFilePrefix = "社保计算结果_"
	timestampLayout  = "2006/1/2 15:04:05"
)

// ResultHeaders is the fixed column order of the result export.
var ResultHeaders = []string{"员工姓名", "年度月平均工资", "缴费基数", "公司缴纳金额", "计算时间"}

var resultColumnWidths = []float64{15, 15, 12, 15, 20}

// WriteResults renders results as a single-sheet xlsx workbook. Timestamps
// are shown in loc; a nil loc means local time.
func WriteResults(results []dto.ResultRecord, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ResultSheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(ResultHeaders))
	for i, h := range ResultHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ResultSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			r.EmployeeName,
			r.AvgSalary,
			r.ContributionBase,
			r.CompanyFee,
			FormatTimestamp(r.CreatedAt, loc),
		}
		if err := f.SetSheetRow(ResultSheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for i, w := range resultColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(ResultSheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("set width %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatTimestamp renders t the way the zh-CN locale does, e.g.
// "2024/3/5 14:07:09". The zero time renders as "".
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(timestampLayout)
}

// ExportFileName is the download name for a result export made at now,
// e.g. "社保计算结果_2024-3-5.xlsx".
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("%s%d-%d-%d.xlsx", exportFilePrefix, now.Year(), int(now.Month()), now.Day())
}
