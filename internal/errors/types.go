// Package errors defines the structured error type used by snail's
// services and the command line, and converts engine errors into it.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodeInvalidName      = "ERR_INVALID_NAME"
	ErrCodeDuplicateName    = "ERR_DUPLICATE_NAME"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodePermissionDenied = "ERR_PERMISSION_DENIED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeSyntaxInvalid    = "ERR_SYNTAX_INVALID"
	ErrCodeParamsInvalid    = "ERR_PARAMS_INVALID"
	ErrCodeTemplateParse    = "ERR_TEMPLATE_PARSE"
	ErrCodeTemplateNotFound = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeMissingParameter = "ERR_MISSING_PARAMETER"
	ErrCodeEmptyValueList   = "ERR_EMPTY_VALUE_LIST"
	ErrCodeTypeMismatch     = "ERR_TYPE_MISMATCH"
	ErrCodeDepthExceeded    = "ERR_DEPTH_EXCEEDED"
	ErrCodeMarkupInvalid    = "ERR_MARKUP_INVALID"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeMultipleErrors   = "ERR_MULTIPLE_ERRORS"
)

// SnailError is a structured error type with context.
type SnailError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Template    string
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *SnailError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Template != "" {
		parts = append(parts, "template:"+e.Template)
	}
	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)
	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SnailError) Unwrap() error {
	return e.Cause
}

// Is matches another *SnailError with the same type and code.
func (e *SnailError) Is(target error) bool {
	var t *SnailError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *SnailError) WithContext(key string, value interface{}) *SnailError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *SnailError) WithLocation(filePath string, line int) *SnailError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithTemplate records the template the error belongs to.
func (e *SnailError) WithTemplate(name string) *SnailError {
	e.Template = name

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *SnailError {
	return &SnailError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *SnailError {
	return &SnailError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *SnailError {
	return &SnailError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewRenderError creates a render error.
func NewRenderError(code, message string, cause error) *SnailError {
	return &SnailError{
		Type:        ErrorTypeRender,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *SnailError {
	return &SnailError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var se *SnailError
	if errors.As(err, &se) {
		return se.Recoverable
	}

	return false
}

// IsType reports whether err is a SnailError of the given type.
func IsType(err error, t ErrorType) bool {
	var se *SnailError
	if errors.As(err, &se) {
		return se.Type == t
	}

	return false
}

// HasErrorCode reports whether any SnailError in err's chain carries code.
func HasErrorCode(err error, code string) bool {
	return FindError(err, code) != nil
}

// FindError returns the outermost SnailError in err's chain carrying code,
// or nil.
func FindError(err error, code string) *SnailError {
	for err != nil {
		var se *SnailError
		if !errors.As(err, &se) {
			return nil
		}
		if se.Code == code {
			return se
		}
		err = se.Cause
	}

	return nil
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level chosen from its type. Recoverable template
// problems are warnings, everything else is an error.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var se *SnailError
	if !errors.As(err, &se) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	fields := []interface{}{"type", se.Type, "code", se.Code}
	if se.Template != "" {
		fields = append(fields, "template", se.Template)
	}
	if se.FilePath != "" {
		fields = append(fields, "file", se.FilePath)
	}
	if se.Line > 0 {
		fields = append(fields, "line", se.Line)
	}
	if root := GetRootCause(err); root != nil && root != error(se) {
		fields = append(fields, "cause", root.Error())
	}

	switch se.Type {
	case ErrorTypeParse:
		h.logger.Warn(ctx, err, "Template parse error", fields...)
	case ErrorTypeRender:
		h.logger.Warn(ctx, err, "Template render error", fields...)
	case ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Validation error occurred", fields...)
	default:
		h.logger.Error(ctx, err, "Error occurred", fields...)
	}
}
