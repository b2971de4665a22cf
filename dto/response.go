package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Missing []string    `json:"missing,omitempty"`
	Issues  []CellIssue `json:"issues,omitempty"`
}

type UploadResponse struct {
	Kind     RecordKind `json:"kind"`
	Imported int        `json:"imported"`
}

type PolicyListResponse struct {
	Policies []PolicyRecord `json:"policies"`
}

type SalaryListResponse struct {
	Salaries []SalaryRecord `json:"salaries"`
}

type ResultListResponse struct {
	Results []ResultRecord `json:"results"`
	Count   int            `json:"count"`
}
