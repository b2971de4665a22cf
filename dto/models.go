package dto

import "time"

type RecordKind string

const (
	RecordKindPolicy RecordKind = "policy"
	RecordKindSalary RecordKind = "salary"
)

// PolicyRecord is one row of the city contribution-base standard.
type PolicyRecord struct {
	ID       string  `json:"id"`
	CityName string  `json:"city_name"`
	Year     string  `json:"year"`
	BaseMin  float64 `json:"base_min"`
	BaseMax  float64 `json:"base_max"`
	Rate     float64 `json:"rate"` // fraction, e.g. 0.32
}

// SalaryRecord is one employee's salary for one month.
type SalaryRecord struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Month        string  `json:"month"` // "YYYY-MM" or whatever the sheet carried
	SalaryAmount float64 `json:"salary_amount"`
}

// ResultRecord is the computed contribution for one employee.
// CreatedAt is assigned by the store when the result set is written.
type ResultRecord struct {
	ID               string    `json:"id"`
	EmployeeName     string    `json:"employee_name"`
	AvgSalary        float64   `json:"avg_salary"`
	ContributionBase float64   `json:"contribution_base"`
	CompanyFee       float64   `json:"company_fee"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

type PolicyFilter struct {
	CityName string
	Year     string // empty matches any year
}

type ResultFilter struct {
	EmployeeName string // substring match, empty matches all
}

// CellIssue reports a cell whose value could not be coerced to its field type.
type CellIssue struct {
	Row   int    `json:"row"` // 1-based sheet row
	Field string `json:"field"`
	Value string `json:"value"`
}
