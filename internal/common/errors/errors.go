// Package errors provides the typed failure taxonomy for document generation.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTemplateNotFound      ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateFormatInvalid ErrorCode = "TEMPLATE_FORMAT_INVALID"
	ErrCodeMissingField          ErrorCode = "MISSING_FIELD"
	ErrCodeRenderIO              ErrorCode = "RENDER_IO_ERROR"
	ErrCodeCellWrite             ErrorCode = "CELL_WRITE_ERROR"
	ErrCodeOutputPathExhausted   ErrorCode = "OUTPUT_PATH_EXHAUSTED"
	ErrCodeRecordInvalid         ErrorCode = "RECORD_INVALID"
	ErrCodeRequestParseFailed    ErrorCode = "REQUEST_PARSE_FAILED"
)

// GenerationError represents a structured failure of one generation request.
// Details always carries the identifying element (field name, cell reference,
// or path) so the caller can render a user-facing message.
type GenerationError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *GenerationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("GenerationError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("GenerationError[%s]: %s", e.Code, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.cause
}

// ==========================
// Error Constructors
// ==========================

// NewTemplateNotFoundError reports that no template file exists for a kind.
func NewTemplateNotFoundError(kind string) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "No template found for requested kind",
		Details:   fmt.Sprintf("kind: %s", kind),
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateFormatInvalidError reports a candidate template whose extension is
// not the style-preserving workbook format.
func NewTemplateFormatInvalidError(path string) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeTemplateFormatInvalid,
		Message:   "Template is not an .xlsx workbook",
		Details:   fmt.Sprintf("path: %s", path),
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingFieldError names the first mapped field absent from the record.
func NewMissingFieldError(field string) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeMissingField,
		Message:   "Record is missing a mapped field",
		Details:   fmt.Sprintf("field: %s", field),
		Timestamp: time.Now().UTC(),
	}
}

// NewRenderIOError wraps a filesystem or workbook-open failure during rendering.
func NewRenderIOError(path string, err error) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeRenderIO,
		Message:   "Failed to read or write workbook",
		Details:   fmt.Sprintf("path: %s, error: %v", path, err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCellWriteError reports a target cell that cannot be written in the
// template's sheet.
func NewCellWriteError(cellRef string, err error) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeCellWrite,
		Message:   "Target cell cannot be written",
		Details:   fmt.Sprintf("cell: %s, error: %v", cellRef, err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewOutputPathExhaustedError reports that no free output name was found within
// the attempt budget.
func NewOutputPathExhaustedError(base string, attempts int) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeOutputPathExhausted,
		Message:   "No free output filename after maximum attempts",
		Details:   fmt.Sprintf("base: %s, attempts: %d", base, attempts),
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordInvalidError reports schema validation failures for a record.
func NewRecordInvalidError(details string) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeRecordInvalid,
		Message:   "Record failed schema validation",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestParseFailedError reports an unparseable request workbook.
func NewRequestParseFailedError(path string, err error) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeRequestParseFailed,
		Message:   "Request workbook could not be parsed",
		Details:   fmt.Sprintf("path: %s, error: %v", path, err),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// Utility Functions
// ==========================

// CodeOf extracts the error code from an error chain, or "" for plain errors.
func CodeOf(err error) ErrorCode {
	var genErr *GenerationError
	if stderrors.As(err, &genErr) {
		return genErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given generation error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps an error code to the status the console layer should return.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeTemplateNotFound:
		return http.StatusNotFound
	case ErrCodeMissingField, ErrCodeRecordInvalid, ErrCodeRequestParseFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeTemplateFormatInvalid, ErrCodeCellWrite:
		return http.StatusConflict
	case ErrCodeOutputPathExhausted:
		return http.StatusInsufficientStorage
	case ErrCodeRenderIO:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
