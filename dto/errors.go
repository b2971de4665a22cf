package dto

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoFile = errors.New("file is required")

type ParseErrorKind string

const (
	ParseEmptySheet     ParseErrorKind = "EmptySheet"
	ParseMissingColumns ParseErrorKind = "MissingColumns"
	ParseDecodeError    ParseErrorKind = "DecodeError"
	ParseInvalidCells   ParseErrorKind = "InvalidCells"
)

// ParseError is returned by the sheet parser.
type ParseError struct {
	Kind    ParseErrorKind
	Record  RecordKind
	Missing []string    // MissingColumns: unresolved fields in schema order
	Issues  []CellIssue // InvalidCells: strict-mode validation report
	Err     error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseEmptySheet:
		return fmt.Sprintf("%s sheet has no data rows", e.Record)
	case ParseMissingColumns:
		return fmt.Sprintf("%s sheet is missing required columns: %s", e.Record, strings.Join(e.Missing, ", "))
	case ParseInvalidCells:
		return fmt.Sprintf("%s sheet has %d invalid cells", e.Record, len(e.Issues))
	default:
		return fmt.Sprintf("failed to decode %s sheet: %v", e.Record, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

type CalcErrorKind string

const (
	CalcPolicyNotFound  CalcErrorKind = "PolicyNotFound"
	CalcPolicyAmbiguous CalcErrorKind = "PolicyAmbiguous"
	CalcStoreRead       CalcErrorKind = "StoreReadError"
	CalcStoreWrite      CalcErrorKind = "StoreWriteError"
)

// CalcError is returned by the contribution calculation.
type CalcError struct {
	Kind CalcErrorKind
	City string
	Year string
	Err  error
}

func (e *CalcError) Error() string {
	switch e.Kind {
	case CalcPolicyNotFound:
		return fmt.Sprintf("no policy found for city %q%s", e.City, yearSuffix(e.Year))
	case CalcPolicyAmbiguous:
		return fmt.Sprintf("multiple policies found for city %q%s", e.City, yearSuffix(e.Year))
	case CalcStoreRead:
		return fmt.Sprintf("failed to read from store: %v", e.Err)
	default:
		return fmt.Sprintf("failed to write results: %v", e.Err)
	}
}

func (e *CalcError) Unwrap() error { return e.Err }

func yearSuffix(year string) string {
	if year == "" {
		return ""
	}
	return fmt.Sprintf(" and year %q", year)
}

// StoreConfigError means the store endpoint or key is not configured.
type StoreConfigError struct {
	Missing []string
}

func (e *StoreConfigError) Error() string {
	return "missing store configuration: " + strings.Join(e.Missing, ", ")
}

// StoreError wraps a failed store operation on a named collection.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
