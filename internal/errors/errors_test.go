package errors_test

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.PipelineError
		want string
	}{
		{
			name: "column",
			err:  errors.NewColumnNotFoundError("Select", "price"),
			want: "Select failed column 'price': column does not exist",
		},
		{
			name: "table",
			err:  errors.NewSchemaError("Join", "reviews", "order_id is not unique"),
			want: "Join failed on table 'reviews': order_id is not unique",
		},
		{
			name: "path with cause",
			err:  errors.NewMissingInputError("ReadFile", "raw/orders.csv", os.ErrNotExist),
			want: "ReadFile failed (raw/orders.csv): input not found: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPipelineError_Is(t *testing.T) {
	t.Run("sentinel matches by kind through wrapping", func(t *testing.T) {
		err := fmt.Errorf("clean orders: %w", errors.NewMissingInputError("ReadFile", "x.csv", nil))
		assert.True(t, stderrors.Is(err, errors.ErrMissingInput))
		assert.False(t, stderrors.Is(err, errors.ErrSchema))
	})

	t.Run("cause is reachable", func(t *testing.T) {
		err := errors.NewMissingInputError("ReadFile", "x.csv", os.ErrNotExist)
		assert.True(t, stderrors.Is(err, os.ErrNotExist))
	})

	t.Run("exact match", func(t *testing.T) {
		a := errors.NewColumnNotFoundError("Select", "a")
		b := errors.NewColumnNotFoundError("Select", "a")
		c := errors.NewColumnNotFoundError("Select", "b")
		assert.True(t, stderrors.Is(a, b))
		assert.False(t, stderrors.Is(a, c))
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "leakage", errors.KindLeakage.String())
	assert.Equal(t, "internal", errors.Kind(99).String())
}
