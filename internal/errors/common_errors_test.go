package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewSourceNotFoundError("no workbook for group Cono1"),
			wantMessage: "[SOURCE_NOT_FOUND] no workbook for group Cono1",
		},
		{
			name:        "error with cause",
			appError:    NewParsingError("cannot open workbook", fmt.Errorf("zip: not a valid zip file")),
			wantMessage: "[PARSING] cannot open workbook: zip: not a valid zip file",
		},
		{
			name:        "config reference",
			appError:    NewConfigReferenceError("x column \"Vname\" not found", nil),
			wantMessage: "[CONFIG_REFERENCE] x column \"Vname\" not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewWriteError("save failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	err := NewConfigError("bad value", nil).
		WithContext("field", "run.concurrency").
		WithContext("value", -1)

	require.Len(t, err.Context, 2)
	assert.Equal(t, "run.concurrency", err.Context["field"])
	assert.Equal(t, -1, err.Context["value"])

	bare := &AppError{Type: ErrTypeWrite, Message: "x"}
	bare.WithContext("path", "/tmp/out.xlsx")
	assert.Equal(t, "/tmp/out.xlsx", bare.Context["path"])
}

func TestIsType(t *testing.T) {
	inner := NewParsingError("bad sheet", nil)
	outer := NewWriteError("report failed", inner)
	wrapped := fmt.Errorf("group Cono1: %w", outer)

	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"direct match", inner, ErrTypeParsing, true},
		{"outer of chain", wrapped, ErrTypeWrite, true},
		{"inner of chain", wrapped, ErrTypeParsing, true},
		{"absent type", wrapped, ErrTypeConfig, false},
		{"plain error", errors.New("boom"), ErrTypeWrite, false},
		{"nil error", nil, ErrTypeWrite, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeSourceNotFound, TypeOf(fmt.Errorf("wrap: %w", NewSourceNotFoundError("none"))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"source not found", NewSourceNotFoundError("none"), http.StatusNotFound},
		{"config reference", NewConfigReferenceError("missing", nil), http.StatusUnprocessableEntity},
		{"config", NewConfigError("invalid", nil), http.StatusUnprocessableEntity},
		{"write", NewWriteError("save", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromAppError(tt.err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, string(tt.err.Type), apiErr.ErrorCode)
			assert.Equal(t, tt.err.Message, apiErr.Error())
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("group Cono9")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "group Cono9 not found", err.Message)

	resp := NewErrorResponse(err)
	assert.False(t, resp.Success)
	assert.Same(t, err, resp.Error)
}
