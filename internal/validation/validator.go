// Package validation checks table shapes before an operation runs and
// counts data-quality violations in written artifacts.
package validation

import (
	"github.com/paveg/reviewrisk/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the table
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// EmptyTableValidator rejects tables without rows.
type EmptyTableValidator struct {
	df    ColumnProvider
	op    string
	table string
}

// NewEmptyTableValidator creates a validator for empty table checks
func NewEmptyTableValidator(df ColumnProvider, op, table string) *EmptyTableValidator {
	return &EmptyTableValidator{df: df, op: op, table: table}
}

// Validate checks that the table has at least one row
func (v *EmptyTableValidator) Validate() error {
	if v.df.Len() == 0 {
		return errors.NewDataQualityError(v.op, v.table, "", "table has no rows")
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateNotEmpty is a convenience function for empty table validation
func ValidateNotEmpty(df ColumnProvider, op, table string) error {
	return NewEmptyTableValidator(df, op, table).Validate()
}
