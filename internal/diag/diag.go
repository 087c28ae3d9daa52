// Package diag defines the diagnostics reported by the matching engine.
//
// Codes are stable strings so tests, golden files and tools can match on
// them. Structural errors (PM00xx) block graph construction for the offending
// sub-pattern; advisory diagnostics (PM01xx) never do.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Structural error codes (PM0001-PM0099).
const (
	CodeCaptureUnderCombinator = "PM0001" // capture nested under or/not
	CodeMisplacedSlice         = "PM0002" // slice outside a list, or two slices in one list
	CodeAmbiguousDeconstruct   = "PM0003" // two equally applicable deconstruction members
	CodeMissingDeconstruct     = "PM0004" // no way to deconstruct the type with that arity
	CodeUnsupportedDomain      = "PM0005" // pattern kind not valid for the input type
	CodeUnknownMember          = "PM0006" // property pattern names no member
)

// Advisory codes (PM0101-PM0199).
const (
	CodeArmSubsumed     = "PM0101" // arm handled by previous arms
	CodeArmImpossible   = "PM0102" // arm pattern matches no value
	CodeRedundant       = "PM0103" // redundant sub-pattern, visible tier
	CodeRedundantNested = "PM0104" // redundant sub-pattern, informational tier
	CodeAlwaysMatches   = "PM0105" // is-pattern always true
	CodeNeverMatches    = "PM0106" // is-pattern always false
	CodeNonExhaustive   = "PM0107" // switch does not cover every value
)

// Severity orders diagnostics by attention required.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity parses a severity name as written in configuration.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "hidden":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Diagnostic is one finding about a construct.
type Diagnostic struct {
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	Subject  string   `json:"subject,omitempty" yaml:"subject,omitempty"` // pattern text the finding is about
	Arm      int      `json:"arm" yaml:"arm"`                             // arm index, -1 for the construct
	Args     []string `json:"args,omitempty" yaml:"args,omitempty"`       // witness, missing values
}

// Error implements the error interface so structural errors can be returned.
func (d Diagnostic) Error() string {
	return d.String()
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", d.Severity, d.Code)
	if d.Arm >= 0 {
		fmt.Fprintf(&b, " arm %d", d.Arm)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// New creates a diagnostic not tied to a particular arm.
func New(code string, sev Severity, subject, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: sev,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
		Arm:      -1,
	}
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Codes returns the codes in order, duplicates included.
func (l List) Codes() []string {
	codes := make([]string, len(l))
	for i, d := range l {
		codes[i] = d.Code
	}
	return codes
}

// WithCode returns the diagnostics carrying code.
func (l List) WithCode(code string) List {
	var out List
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders diagnostics by arm, then code, then subject.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Arm != l[j].Arm {
			return l[i].Arm < l[j].Arm
		}
		if l[i].Code != l[j].Code {
			return l[i].Code < l[j].Code
		}
		return l[i].Subject < l[j].Subject
	})
}
