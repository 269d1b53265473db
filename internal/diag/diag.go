// Package diag reports positioned diagnostics as text or JSON lines.
package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"svgen/internal/ir"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one reported message.
type Diagnostic struct {
	Severity  Severity `json:"severity"`
	File      string   `json:"file,omitempty"`
	Line      int      `json:"line,omitempty"`
	Component string   `json:"component,omitempty"`
	Message   string   `json:"message"`
}

func (d Diagnostic) String() string {
	prefix := ""
	switch {
	case d.File != "" && d.Line > 0:
		prefix = fmt.Sprintf("%s:%d: ", d.File, d.Line)
	case d.File != "":
		prefix = d.File + ": "
	}
	if d.Component != "" {
		return fmt.Sprintf("%s%s: %s: %s", prefix, d.Severity, d.Component, d.Message)
	}
	return fmt.Sprintf("%s%s: %s", prefix, d.Severity, d.Message)
}

// Reporter writes diagnostics to w and counts errors. It is safe for
// concurrent use.
type Reporter struct {
	mu       sync.Mutex
	w        io.Writer
	json     bool
	errors   int
	warnings int
}

// NewReporter returns a reporter writing in format, "text" or "json".
// Unknown formats fall back to text.
func NewReporter(w io.Writer, format string) *Reporter {
	return &Reporter{w: w, json: format == "json"}
}

// Error reports an error at loc, which may be nil.
func (r *Reporter) Error(loc *ir.Location, msg string) {
	r.Report(at(SeverityError, loc, msg))
}

// Errorf reports an unpositioned error.
func (r *Reporter) Errorf(format string, args ...any) {
	r.Report(Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Warning reports a warning at loc, which may be nil.
func (r *Reporter) Warning(loc *ir.Location, msg string) {
	r.Report(at(SeverityWarning, loc, msg))
}

// ComponentError reports an error attributed to one component.
func (r *Reporter) ComponentError(component string, loc *ir.Location, err error) {
	d := at(SeverityError, loc, err.Error())
	d.Component = component
	r.Report(d)
}

// Report records d and writes it out.
func (r *Reporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch d.Severity {
	case SeverityError:
		r.errors++
	case SeverityWarning:
		r.warnings++
	}
	if r.json {
		data, err := json.Marshal(d)
		if err != nil {
			fmt.Fprintln(r.w, d.String())
			return
		}
		fmt.Fprintln(r.w, string(data))
		return
	}
	fmt.Fprintln(r.w, d.String())
}

// HasErrors reports whether any error was recorded.
func (r *Reporter) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of errors recorded so far.
func (r *Reporter) ErrorCount() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// WarningCount returns the number of warnings recorded so far.
func (r *Reporter) WarningCount() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

func at(sev Severity, loc *ir.Location, msg string) Diagnostic {
	d := Diagnostic{Severity: sev, Message: msg}
	if loc != nil {
		d.File = loc.File
		d.Line = loc.Line
	}
	return d
}
