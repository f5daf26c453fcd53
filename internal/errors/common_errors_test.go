package errors

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppValidationError("year window is empty"),
			want: "[VALIDATION] year window is empty",
		},
		{
			name: "with cause",
			err:  NewStorageError("write report", fs.ErrPermission),
			want: "[STORAGE] write report: permission denied",
		},
		{
			name: "not found",
			err:  NewNotFoundError("dataset", nil),
			want: "[NOT_FOUND] dataset not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write report", cause)

	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, error(err), &appErr)
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewNotFoundError("dataset", nil).
		WithContext("row", 3).
		WithContext("column", "Y2009")

	assert.Equal(t, ErrTypeNotFound, err.Type)
	assert.Equal(t, 3, err.Context["row"])
	assert.Equal(t, "Y2009", err.Context["column"])

	bare := &AppError{Type: ErrTypeConfig}
	bare.WithContext("key", "value")
	assert.Equal(t, "value", bare.Context["key"])
}

func TestNewConfigError(t *testing.T) {
	cause := errors.New("bad yaml")
	err := NewConfigError("load config", cause)

	assert.Equal(t, ErrTypeConfig, err.Type)
	assert.Equal(t, "[CONFIG] load config: bad yaml", err.Error())
}
