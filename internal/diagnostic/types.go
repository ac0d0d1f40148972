package diagnostic

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"serialcompat/internal/common"
)

// Diagnostic codes.
const (
	CodeShadowed   = "shadowed"   // identifier declared at several embedding depths
	CodeTypeLevel  = "type_level" // blank or serial:"-" field, never persisted
	CodeGeneric    = "generic"    // generic type or instantiated generic embed
	CodeNotStruct  = "not_struct" // requested type is not a struct
	CodeNotFound   = "not_found"  // requested type is not declared
	CodeDuplicated = "duplicated" // two fields with the same qualified key
)

// Diagnostics holds all diagnostic information from analysis.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Type identifies the root type this relates to (if any).
	Type string
	// Field identifies the qualified field key this relates to (if any).
	Field string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

func (d *Diagnostics) add(sev DiagnosticSeverity, code, message, typ, field string) {
	diag := Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  message,
		Type:     typ,
		Field:    field,
	}

	switch sev {
	case DiagnosticError:
		d.Errors = append(d.Errors, diag)
	case DiagnosticWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddSuggested adds an error diagnostic carrying suggestions.
func (d *Diagnostics) AddSuggested(code, message, typ string, suggestions []string) {
	d.add(DiagnosticError, code, message, typ, "")
	d.Errors[len(d.Errors)-1].Suggestions = suggestions
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, typ, field string) {
	d.add(DiagnosticError, code, message, typ, field)
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, typ, field string) {
	d.add(DiagnosticWarning, code, message, typ, field)
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, typ, field string) {
	d.add(DiagnosticInfo, code, message, typ, field)
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// Log writes every diagnostic to logger: errors and warnings at warn level,
// infos at debug level.
func (d *Diagnostics) Log(logger *zap.Logger) {
	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, diag := range group {
			fields := []zap.Field{
				zap.String("severity", diag.Severity.String()),
				zap.String("code", diag.Code),
			}
			if diag.Type != "" {
				fields = append(fields, zap.String("type", diag.Type))
			}
			if diag.Field != "" {
				fields = append(fields, zap.String("field", diag.Field))
			}
			if len(diag.Suggestions) > 0 {
				fields = append(fields, zap.Strings("suggestions", diag.Suggestions))
			}

			if diag.Severity == DiagnosticInfo {
				logger.Debug(diag.Message, fields...)
			} else {
				logger.Warn(diag.Message, fields...)
			}
		}
	}
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Type != "" {
		prefix = append(prefix, "["+d.Type+"]")
	}

	if d.Field != "" {
		prefix = append(prefix, d.Field)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
