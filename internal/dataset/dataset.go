// Package dataset holds the insurance cost table: loading it from CSV, cleaning it and
// writing it back out.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Column names of the insurance schema, in canonical order.
const (
	ColAge      = "age"
	ColSex      = "sex"
	ColBMI      = "bmi"
	ColChildren = "children"
	ColSmoker   = "smoker"
	ColRegion   = "region"
	ColCharges  = "charges"
)

// Schema lists the seven columns every input file must provide.
var Schema = []string{ColAge, ColSex, ColBMI, ColChildren, ColSmoker, ColRegion, ColCharges}

// CategoricalColumns are reported by the cleaner with their distinct values.
var CategoricalColumns = []string{ColSex, ColSmoker, ColRegion}

// ErrSchema is returned when an input file lacks one or more schema columns.
var ErrSchema = errors.New("schema mismatch")

// ErrUnknownColumn is returned when a column accessor is given a name outside the schema.
var ErrUnknownColumn = errors.New("unknown column")

// Record is one policy holder. It is comparable, so equal rows are equal values.
type Record struct {
	Age      int
	Sex      string
	BMI      float64
	Children int
	Smoker   string
	Region   string
	Charges  float64
}

// Table is an in-memory record set. Columns carries the header text in schema order:
// raw as read from disk, normalised after Clean.
type Table struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// RowError reports a cell that could not be parsed.
type RowError struct {
	Row    int // 1-based data row, header excluded
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: invalid value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// NormalizeColumn lower-cases and trims a column name.
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Numeric returns the values of a numeric column as float64.
func Numeric(t *Table, column string) ([]float64, error) {
	out := make([]float64, 0, t.Len())
	switch NormalizeColumn(column) {
	case ColAge:
		for _, r := range t.Records {
			out = append(out, float64(r.Age))
		}
	case ColBMI:
		for _, r := range t.Records {
			out = append(out, r.BMI)
		}
	case ColChildren:
		for _, r := range t.Records {
			out = append(out, float64(r.Children))
		}
	case ColCharges:
		for _, r := range t.Records {
			out = append(out, r.Charges)
		}
	default:
		return nil, fmt.Errorf("%w: %q is not numeric", ErrUnknownColumn, column)
	}
	return out, nil
}

// Categorical returns the values of a categorical column.
func Categorical(t *Table, column string) ([]string, error) {
	var pick func(Record) string
	switch NormalizeColumn(column) {
	case ColSex:
		pick = func(r Record) string { return r.Sex }
	case ColSmoker:
		pick = func(r Record) string { return r.Smoker }
	case ColRegion:
		pick = func(r Record) string { return r.Region }
	default:
		return nil, fmt.Errorf("%w: %q is not categorical", ErrUnknownColumn, column)
	}
	out := make([]string, 0, t.Len())
	for _, r := range t.Records {
		out = append(out, pick(r))
	}
	return out, nil
}

// Unique returns the distinct values of a categorical column in order of first appearance.
func Unique(t *Table, column string) ([]string, error) {
	vals, err := Categorical(t, column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, 8)
	var out []string
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
