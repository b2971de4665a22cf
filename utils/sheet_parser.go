package utils

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/Aashish23092/contribution-calculator/dto"
)

// DecodeMode controls how cells that fail type coercion are handled.
type DecodeMode int

const (
	// DecodeTolerant coerces unparseable numeric cells to 0 and keeps going.
	// Uploads come from hand-edited spreadsheets, so this is the default.
	DecodeTolerant DecodeMode = iota
	// DecodeStrict rejects the sheet with a report of every bad cell.
	DecodeStrict
)

type fieldType int

const (
	stringField fieldType = iota
	numberField
)

type fieldSpec struct {
	name    string
	kind    fieldType
	aliases []string
}

type sheetSchema struct {
	record dto.RecordKind
	fields []fieldSpec
}

var policySchema = sheetSchema{
	record: dto.RecordKindPolicy,
	fields: []fieldSpec{
		{name: "city_name", kind: stringField, aliases: []string{"city_name", "city_namte", "城市名称", "城市名"}},
		{name: "year", kind: stringField, aliases: []string{"year", "年份"}},
		{name: "base_min", kind: numberField, aliases: []string{"base_min", "基数下限", "下限", "min"}},
		{name: "base_max", kind: numberField, aliases: []string{"base_max", "基数上限", "上限", "max"}},
		{name: "rate", kind: numberField, aliases: []string{"rate", "缴纳比例", "比例"}},
	},
}

var salarySchema = sheetSchema{
	record: dto.RecordKindSalary,
	fields: []fieldSpec{
		{name: "employee_id", kind: stringField, aliases: []string{"employee_id", "员工编号", "工号", "员工id"}},
		{name: "employee_name", kind: stringField, aliases: []string{"employee_name", "员工姓名", "姓名"}},
		{name: "month", kind: stringField, aliases: []string{"month", "月份", "年月"}},
		{name: "salary_amount", kind: numberField, aliases: []string{"salary_amount", "工资金额", "工资", "金额"}},
	},
}

// SheetParser decodes uploaded spreadsheets into typed records.
type SheetParser struct {
	logger *zap.Logger
}

func NewSheetParser(logger *zap.Logger) *SheetParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetParser{logger: logger}
}

// ParsePolicies decodes a city policy sheet.
func (p *SheetParser) ParsePolicies(data []byte, mode DecodeMode) ([]dto.PolicyRecord, error) {
	return parseSheet(p, data, policySchema, mode, func(row int, r decodedRow) dto.PolicyRecord {
		return dto.PolicyRecord{
			ID:       strconv.Itoa(row),
			CityName: r.str("city_name"),
			Year:     r.str("year"),
			BaseMin:  r.num("base_min"),
			BaseMax:  r.num("base_max"),
			Rate:     r.num("rate"),
		}
	})
}

// ParseSalaries decodes a monthly salary sheet.
func (p *SheetParser) ParseSalaries(data []byte, mode DecodeMode) ([]dto.SalaryRecord, error) {
	return parseSheet(p, data, salarySchema, mode, func(row int, r decodedRow) dto.SalaryRecord {
		return dto.SalaryRecord{
			ID:           strconv.Itoa(row),
			EmployeeID:   r.str("employee_id"),
			EmployeeName: r.str("employee_name"),
			Month:        r.str("month"),
			SalaryAmount: r.num("salary_amount"),
		}
	})
}

type decodedRow struct {
	strs map[string]string
	nums map[string]float64
}

func (r decodedRow) str(field string) string  { return r.strs[field] }
func (r decodedRow) num(field string) float64 { return r.nums[field] }

func parseSheet[T any](p *SheetParser, data []byte, schema sheetSchema, mode DecodeMode, build func(row int, r decodedRow) T) ([]T, error) {
	rows, err := readFirstSheet(data)
	if err != nil {
		return nil, &dto.ParseError{Kind: dto.ParseDecodeError, Record: schema.record, Err: err}
	}
	if len(rows) < 2 {
		return nil, &dto.ParseError{Kind: dto.ParseEmptySheet, Record: schema.record}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = NormalizeHeader(h)
	}
	p.logger.Debug("Parsed sheet headers",
		zap.String("kind", string(schema.record)),
		zap.Strings("raw", rows[0]),
		zap.Strings("normalized", headers))

	columns, missing := resolveColumns(headers, schema)
	if len(missing) > 0 {
		return nil, &dto.ParseError{Kind: dto.ParseMissingColumns, Record: schema.record, Missing: missing}
	}

	var issues []dto.CellIssue
	out := make([]T, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || isFalsyCell(row[0]) {
			continue
		}

		decoded := decodedRow{strs: map[string]string{}, nums: map[string]float64{}}
		for _, f := range schema.fields {
			raw := cellValue(row, columns[f.name])
			switch f.kind {
			case numberField:
				v, ok := coerceNumber(raw)
				if !ok {
					issues = append(issues, dto.CellIssue{Row: i + 1, Field: f.name, Value: raw})
				}
				decoded.nums[f.name] = v
			default:
				decoded.strs[f.name] = coerceString(raw)
			}
		}
		out = append(out, build(i, decoded))
	}

	if len(issues) > 0 {
		if mode == DecodeStrict {
			return nil, &dto.ParseError{Kind: dto.ParseInvalidCells, Record: schema.record, Issues: issues}
		}
		p.logger.Warn("Coerced unparseable cells to 0",
			zap.String("kind", string(schema.record)),
			zap.Int("cells", len(issues)))
	}

	return out, nil
}

// isHeaderSpace reports ASCII blanks, Unicode separators (U+00A0 and U+3000
// show up in exported Chinese headers) and the BOM.
func isHeaderSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\uFEFF':
		return true
	}
	return unicode.In(r, unicode.Z)
}

// NormalizeHeader trims, lower-cases and joins inner whitespace with "_".
func NormalizeHeader(header string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(header), isHeaderSpace), "_")
}

// resolveColumns maps every schema field to a column index. A field matches
// the first header containing one of its aliases, trying aliases in order.
func resolveColumns(headers []string, schema sheetSchema) (map[string]int, []string) {
	columns := make(map[string]int, len(schema.fields))
	var missing []string
	for _, f := range schema.fields {
		idx := findColumnIndex(headers, f.aliases)
		if idx == -1 {
			missing = append(missing, f.name)
			continue
		}
		columns[f.name] = idx
	}
	return columns, missing
}

func findColumnIndex(headers []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range headers {
			if strings.Contains(h, alias) {
				return i
			}
		}
	}
	return -1
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// isFalsyCell reports cells that count as blank: empty text and numeric
// zero. Boolean false reaches here as "0" (xlsx raw value) or "" (xls, whose
// decoder drops boolean cells).
func isFalsyCell(v string) bool {
	if v == "" {
		return true
	}
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f == 0
}

func coerceString(v string) string {
	if isFalsyCell(v) {
		return ""
	}
	return v
}

// coerceNumber parses a numeric cell. Blank cells are 0 without complaint;
// anything else that does not parse is 0 with ok=false.
func coerceNumber(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
