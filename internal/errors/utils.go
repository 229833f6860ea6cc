package errors

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/conneroisu/snail/pkg/snail"
)

// Wrap wraps an error with additional context, keeping location details
// when err is already a SnailError.
func Wrap(err error, errType ErrorType, code, message string) *SnailError {
	if err == nil {
		return nil
	}

	var se *SnailError
	if errors.As(err, &se) {
		return &SnailError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       se,
			Context:     se.Context,
			Template:    se.Template,
			FilePath:    se.FilePath,
			Line:        se.Line,
			Recoverable: se.Recoverable,
		}
	}

	return &SnailError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeRender,
	}
}

// WrapIO wraps a filesystem error for path. Missing files and permission
// problems get their own codes.
func WrapIO(err error, path, message string) *SnailError {
	if err == nil {
		return nil
	}

	code := ErrCodeInvalidPath
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = ErrCodeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		code = ErrCodePermissionDenied
	}

	se := Wrap(err, ErrorTypeIO, code, message)
	se.FilePath = path
	se.Recoverable = false

	return se
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, message string) *SnailError {
	se := Wrap(err, ErrorTypeConfig, ErrCodeConfigInvalid, message)
	if se != nil {
		se.Recoverable = false
	}

	return se
}

var engineCodes = map[snail.ErrorKind]string{
	snail.KindConfig:           ErrCodeSyntaxInvalid,
	snail.KindParse:            ErrCodeTemplateParse,
	snail.KindMissingParameter: ErrCodeMissingParameter,
	snail.KindEmptyValueList:   ErrCodeEmptyValueList,
	snail.KindTypeMismatch:     ErrCodeTypeMismatch,
	snail.KindMissingTemplate:  ErrCodeTemplateNotFound,
	snail.KindDepthExceeded:    ErrCodeDepthExceeded,
}

// FromEngineError converts an error returned by pkg/snail into a
// SnailError for template name loaded from file. Errors that do not come
// from the engine are wrapped as internal errors.
func FromEngineError(err error, name, file string) *SnailError {
	if err == nil {
		return nil
	}

	var ee *snail.Error
	if !errors.As(err, &ee) {
		return Wrap(err, ErrorTypeInternal, ErrCodeInternalError, "unexpected engine failure").
			WithTemplate(name).WithLocation(file, 0)
	}

	var errType ErrorType
	switch ee.Kind.Category() {
	case "config":
		errType = ErrorTypeConfig
	case "parse":
		errType = ErrorTypeParse
	default:
		errType = ErrorTypeRender
	}

	se := &SnailError{
		Type:        errType,
		Code:        engineCodes[ee.Kind],
		Message:     ee.Message,
		Cause:       err,
		Template:    name,
		FilePath:    file,
		Line:        ee.Line,
		Recoverable: errType != ErrorTypeConfig,
	}
	if ee.Parameter != "" {
		se.WithContext("parameter", ee.Parameter)
	}
	if len(ee.Template) > 0 {
		// The line number belongs to the innermost referenced template.
		se.Line = 0
		se.WithContext("reference_chain", append([]string(nil), ee.Template...))
		se.WithContext("reference_line", ee.Line)
	}
	if ee.Source != "" {
		se.WithContext("source", ee.Source)
	}

	return se
}

// GetRootCause follows Unwrap until the innermost error.
func GetRootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}

	return nil
}

// CombineErrors combines multiple errors into a single error with context
func CombineErrors(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	if len(nonNil) == 1 {
		return nonNil[0]
	}

	messages := make([]string, 0, len(nonNil))
	for _, err := range nonNil {
		messages = append(messages, err.Error())
	}

	return &SnailError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeMultipleErrors,
		Message: fmt.Sprintf("multiple errors occurred: %d errors", len(nonNil)),
		Cause:   errors.Join(nonNil...),
		Context: map[string]interface{}{
			"error_count": len(nonNil),
			"errors":      messages,
		},
	}
}
