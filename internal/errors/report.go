package errors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/safedi/safedi-go/internal/lexer"
)

// SchemaV1 is the structured-report schema identifier.
const SchemaV1 = "safedi.error/v1"

// Fix is a suggested textual edit: replace the report's span (or the fix's
// own span, when set) with Replacement.
type Fix struct {
	Suggestion  string      `json:"suggestion"`
	Replacement string      `json:"replacement,omitempty"`
	Span        *lexer.Span `json:"span,omitempty"`
	Confidence  float64     `json:"confidence,omitempty"`
}

// Report is the canonical structured error type for SafeDI.
// All error builders should return *Report, which can be wrapped as ReportError.
type Report struct {
	Schema  string         `json:"schema"`         // Always "safedi.error/v1"
	Code    string         `json:"code"`           // Error code (PAR001, GRF003, ...)
	Phase   string         `json:"phase"`          // Phase: "parse", "graph", "generate", "driver"
	Message string         `json:"message"`        // Human-readable message
	Span    *lexer.Span    `json:"span,omitempty"` // Source location (optional)
	Data    map[string]any `json:"data,omitempty"` // Structured data (sorted keys)
	Fix     *Fix           `json:"fix,omitempty"`  // Suggested fix (optional)
}

// New builds a Report for a known code. The phase comes from the registry.
func New(code, message string) *Report {
	phase := ""
	if info, ok := GetErrorInfo(code); ok {
		phase = info.Phase
	}
	return &Report{
		Schema:  SchemaV1,
		Code:    code,
		Phase:   phase,
		Message: message,
	}
}

// Newf builds a Report with a formatted message.
func Newf(code, format string, args ...any) *Report {
	return New(code, fmt.Sprintf(format, args...))
}

// WithSpan attaches a source span and returns the report.
func (r *Report) WithSpan(span lexer.Span) *Report {
	r.Span = &span
	return r
}

// WithData attaches one structured data entry and returns the report.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// WithFix attaches a suggested edit and returns the report.
func (r *Report) WithFix(fix Fix) *Report {
	r.Fix = &fix
	return r
}

// String renders the report as a single diagnostic line:
// "file:line:col: CODE: message" with the span omitted when absent.
func (r *Report) String() string {
	if r.Span != nil {
		return fmt.Sprintf("%s: %s: %s", r.Span.Start, r.Code, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// ReportError wraps a Report as an error.
// This allows structured reports to survive errors.As() unwrapping.
type ReportError struct {
	Rep *Report
}

// Error implements the error interface
func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.String()
}

// AsReport attempts to extract a Report from an error chain.
// Returns the Report and true if found, nil and false otherwise.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as a ReportError.
// Call sites should return errors.WrapReport(report) to preserve structure.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON converts a Report to JSON (deterministic: fields in declaration
// order, Data keys sorted).
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error

	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}

	if err != nil {
		return "", err
	}
	return string(data), nil
}
