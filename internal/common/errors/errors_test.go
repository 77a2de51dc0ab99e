package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryIdentifyingDetail(t *testing.T) {
	tests := []struct {
		name     string
		err      *GenerationError
		code     ErrorCode
		contains string
	}{
		{"template not found", NewTemplateNotFoundError("quotation"), ErrCodeTemplateNotFound, "quotation"},
		{"format invalid", NewTemplateFormatInvalidError("/t/quotation.xls"), ErrCodeTemplateFormatInvalid, "quotation.xls"},
		{"missing field", NewMissingFieldError("clientName"), ErrCodeMissingField, "clientName"},
		{"cell write", NewCellWriteError("ZZ99", fmt.Errorf("out of range")), ErrCodeCellWrite, "ZZ99"},
		{"path exhausted", NewOutputPathExhaustedError("quote_20250101", 100), ErrCodeOutputPathExhausted, "quote_20250101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Contains(t, tt.err.Details, tt.contains)
			assert.Contains(t, tt.err.Error(), string(tt.code))
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestCodeOf(t *testing.T) {
	err := NewMissingFieldError("total")
	assert.Equal(t, ErrCodeMissingField, CodeOf(err))
	assert.True(t, IsCode(err, ErrCodeMissingField))

	wrapped := fmt.Errorf("generate: %w", err)
	assert.Equal(t, ErrCodeMissingField, CodeOf(wrapped))

	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewRenderIOError("/out/q.xlsx", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeTemplateNotFound, http.StatusNotFound},
		{ErrCodeMissingField, http.StatusUnprocessableEntity},
		{ErrCodeRecordInvalid, http.StatusUnprocessableEntity},
		{ErrCodeTemplateFormatInvalid, http.StatusConflict},
		{ErrCodeRenderIO, http.StatusInternalServerError},
		{ErrCodeOutputPathExhausted, http.StatusInsufficientStorage},
		{ErrorCode("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
		})
	}
}
