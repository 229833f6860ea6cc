package snail

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies engine errors.
type ErrorKind string

const (
	KindConfig           ErrorKind = "config"
	KindParse            ErrorKind = "parse"
	KindMissingParameter ErrorKind = "missing_parameter"
	KindEmptyValueList   ErrorKind = "empty_value_list"
	KindTypeMismatch     ErrorKind = "type_mismatch"
	KindMissingTemplate  ErrorKind = "missing_template"
	KindDepthExceeded    ErrorKind = "depth_exceeded"
)

// Category returns "config", "parse" or "render".
func (k ErrorKind) Category() string {
	switch k {
	case KindConfig:
		return "config"
	case KindParse:
		return "parse"
	default:
		return "render"
	}
}

// Sentinel errors for use with errors.Is. They match any *Error of the same kind.
var (
	ErrConfig           = &Error{Kind: KindConfig}
	ErrParse            = &Error{Kind: KindParse}
	ErrMissingParameter = &Error{Kind: KindMissingParameter}
	ErrEmptyValueList   = &Error{Kind: KindEmptyValueList}
	ErrTypeMismatch     = &Error{Kind: KindTypeMismatch}
	ErrMissingTemplate  = &Error{Kind: KindMissingTemplate}
	ErrDepthExceeded    = &Error{Kind: KindDepthExceeded}
)

// Error is returned by parser construction, parsing and rendering.
type Error struct {
	Kind    ErrorKind
	Message string
	// Parameter is the parameter or reference name involved, if any.
	Parameter string
	// Template is the chain of references being rendered, outermost first.
	Template []string
	// Line is the 1-based line number within the innermost template, 0 if unknown.
	Line int
	// Source is the offending line text for parse errors.
	Source string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("snail: ")
	b.WriteString(e.Message)

	var loc []string
	if e.Line > 0 {
		loc = append(loc, fmt.Sprintf("line %d", e.Line))
	}
	if len(e.Template) > 0 {
		loc = append(loc, "in "+strings.Join(e.Template, " > "))
	}
	if len(loc) > 0 {
		b.WriteString(" (" + strings.Join(loc, ", ") + ")")
	}
	if e.Source != "" {
		fmt.Fprintf(&b, ": %q", e.Source)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// IsConfigError reports whether err is a parser configuration error.
func IsConfigError(err error) bool {
	return hasCategory(err, "config")
}

// IsParseError reports whether err is a parse error.
func IsParseError(err error) bool {
	return hasCategory(err, "parse")
}

// IsRenderError reports whether err is a render error.
func IsRenderError(err error) bool {
	return hasCategory(err, "render")
}

func hasCategory(err error, category string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Category() == category
	}
	return false
}

func configError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

func renderError(kind ErrorKind, name string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Parameter: name, Message: fmt.Sprintf(format, args...)}
}
