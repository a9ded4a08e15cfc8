// Package errors provides the error taxonomy shared by every pipeline stage.
// PipelineError carries the failing operation plus the table, column or path
// involved, and matches the package sentinels by Kind through errors.Is.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindMissingInput
	KindSchema
	KindInvalidInput
	KindUnsupportedType
	KindDataQuality
	KindLeakage
)

func (k Kind) String() string {
	switch k {
	case KindMissingInput:
		return "missing input"
	case KindSchema:
		return "schema"
	case KindInvalidInput:
		return "invalid input"
	case KindUnsupportedType:
		return "unsupported type"
	case KindDataQuality:
		return "data quality"
	case KindLeakage:
		return "leakage"
	default:
		return "internal"
	}
}

// PipelineError represents standardized errors across all pipeline operations
type PipelineError struct {
	Kind    Kind
	Op      string // Operation name (e.g., "CleanOrders", "Join", "FitRisk")
	Table   string // Table name if applicable
	Column  string // Column name if applicable
	Path    string // File path if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.Table != "" {
		fmt.Fprintf(&b, " on table '%s'", e.Table)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column '%s'", e.Column)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for error wrapping support
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is matches sentinels by kind. A non-sentinel target must match exactly.
func (e *PipelineError) Is(target error) bool {
	pe, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	if pe.Op == "" && pe.Table == "" && pe.Column == "" && pe.Path == "" && pe.Message == "" {
		return e.Kind == pe.Kind
	}
	return e.Kind == pe.Kind && e.Op == pe.Op && e.Column == pe.Column && e.Message == pe.Message
}

// Sentinels for errors.Is checks.
var (
	ErrMissingInput    = &PipelineError{Kind: KindMissingInput}
	ErrSchema          = &PipelineError{Kind: KindSchema}
	ErrInvalidInput    = &PipelineError{Kind: KindInvalidInput}
	ErrUnsupportedType = &PipelineError{Kind: KindUnsupportedType}
	ErrDataQuality     = &PipelineError{Kind: KindDataQuality}
	ErrLeakage         = &PipelineError{Kind: KindLeakage}
)

// NewMissingInputError reports an input file that is absent or unreadable.
func NewMissingInputError(op, path string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindMissingInput,
		Op:      op,
		Path:    path,
		Message: "input not found",
		Cause:   cause,
	}
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *PipelineError {
	return &PipelineError{
		Kind:    KindSchema,
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewSchemaError reports a table whose shape does not match what an operation needs.
func NewSchemaError(op, table, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindSchema,
		Op:      op,
		Table:   table,
		Message: message,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindInvalidInput,
		Op:      op,
		Message: message,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, column, typeName string) *PipelineError {
	return &PipelineError{
		Kind:    KindUnsupportedType,
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewDataQualityError reports rows that break a table-level guarantee.
func NewDataQualityError(op, table, column, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindDataQuality,
		Op:      op,
		Table:   table,
		Column:  column,
		Message: message,
	}
}

// NewLeakageError reports a statistic that would be computed from held-out rows.
func NewLeakageError(op, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindLeakage,
		Op:      op,
		Message: message,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindInternal,
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}
