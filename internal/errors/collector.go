package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// TemplateError is a problem found in one template file.
type TemplateError struct {
	Template  string
	File      string
	Line      int
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// Error implements the error interface
func (te *TemplateError) Error() string {
	location := te.File
	if location == "" {
		location = te.Template
	}
	if te.Line > 0 {
		location = fmt.Sprintf("%s:%d", location, te.Line)
	}
	return fmt.Sprintf("%s: %s: %s", location, te.Severity, te.Message)
}

// ErrorCollector gathers template problems from concurrent validation.
type ErrorCollector struct {
	templateErrors []TemplateError
	errors         []error
	mutex          sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		templateErrors: make([]TemplateError, 0),
		errors:         make([]error, 0),
	}
}

// Add records a template problem.
func (ec *ErrorCollector) Add(err TemplateError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.templateErrors = append(ec.templateErrors, err)
}

// AddError records err. SnailErrors with a template or file become
// TemplateErrors so they can be grouped per file.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}

	var se *SnailError
	if errors.As(err, &se) && (se.Template != "" || se.FilePath != "") {
		severity := ErrorSeverityError
		if se.Type == ErrorTypeValidation {
			severity = ErrorSeverityWarning
		}
		ec.Add(TemplateError{
			Template: se.Template,
			File:     se.FilePath,
			Line:     se.Line,
			Message:  se.Message,
			Severity: severity,
		})
		return
	}

	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetErrors returns a copy of the collected template errors ordered by
// file and line.
func (ec *ErrorCollector) GetErrors() []TemplateError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	result := make([]TemplateError, len(ec.templateErrors))
	copy(result, ec.templateErrors)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].File != result[j].File {
			return result[i].File < result[j].File
		}
		return result[i].Line < result[j].Line
	})
	return result
}

// GetAllErrors returns all collected errors
func (ec *ErrorCollector) GetAllErrors() []error {
	templateErrors := ec.GetErrors()

	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	all := make([]error, 0, len(templateErrors)+len(ec.errors))
	for i := range templateErrors {
		all = append(all, &templateErrors[i])
	}
	return append(all, ec.errors...)
}

// HasErrors reports whether anything of severity error was collected.
// Warnings alone do not count.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) > 0 {
		return true
	}
	for _, err := range ec.templateErrors {
		if err.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of collected entries.
func (ec *ErrorCollector) Count() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.templateErrors) + len(ec.errors)
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.templateErrors = ec.templateErrors[:0]
	ec.errors = ec.errors[:0]
}

// GetErrorsByFile returns errors for a specific file
func (ec *ErrorCollector) GetErrorsByFile(file string) []TemplateError {
	var fileErrors []TemplateError
	for _, err := range ec.GetErrors() {
		if err.File == file {
			fileErrors = append(fileErrors, err)
		}
	}
	return fileErrors
}

// Summary renders every collected entry on its own line.
func (ec *ErrorCollector) Summary() string {
	var b strings.Builder
	for _, err := range ec.GetAllErrors() {
		b.WriteString(err.Error())
		b.WriteByte('\n')
	}
	return b.String()
}
