package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/roach88/matchdag/internal/diag"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Failure (error diagnostics, invalid constructs, failed scenarios)
	ExitCommandError = 2 // Command error (invalid paths, unreadable documents, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	// Styles colors diagnostics by severity; nil prints them plain.
	// Output that is not a terminal gets styles that render no colors.
	Styles *DiagnosticStyles
}

// NewOutputFormatter creates a formatter writing to the command's streams.
// Colors are used only for text output to a terminal.
func NewOutputFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbosity > 0,
	}
	if opts.Format == "text" {
		r := lipgloss.NewRenderer(out)
		if !isTerminal(out) {
			r.SetColorProfile(termenv.Ascii)
		}
		f.Styles = NewDiagnosticStyles(r)
	}
	return f
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`           // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`   // success payload
	Error  *CLIError   `json:"error,omitempty"`  // error details
	RunID  string      `json:"run_id,omitempty"` // optional run correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E101", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// DiagnosticStyles holds one style per severity, bound to a renderer.
type DiagnosticStyles struct {
	bySeverity map[diag.Severity]lipgloss.Style
	plain      lipgloss.Style
}

// NewDiagnosticStyles builds the severity styles for r. A renderer with
// the Ascii profile renders every style as plain text.
func NewDiagnosticStyles(r *lipgloss.Renderer) *DiagnosticStyles {
	return &DiagnosticStyles{
		bySeverity: map[diag.Severity]lipgloss.Style{
			diag.SeverityError:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			diag.SeverityWarning: r.NewStyle().Foreground(lipgloss.Color("3")),
			diag.SeverityInfo:    r.NewStyle().Foreground(lipgloss.Color("6")),
		},
		plain: r.NewStyle(),
	}
}

// Render styles line for severity sev.
func (s *DiagnosticStyles) Render(sev diag.Severity, line string) string {
	if st, ok := s.bySeverity[sev]; ok {
		return st.Render(line)
	}
	return s.plain.Render(line)
}

// Diagnostic writes one diagnostic line in text format.
func (f *OutputFormatter) Diagnostic(d diag.Diagnostic) {
	line := d.String()
	if d.Subject != "" && d.Code != diag.CodeNonExhaustive {
		line += fmt.Sprintf(" (%s)", d.Subject)
	}
	if f.Styles != nil {
		line = f.Styles.Render(d.Severity, line)
	}
	fmt.Fprintf(f.Writer, "  %s\n", line)
}
