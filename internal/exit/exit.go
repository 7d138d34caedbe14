package exit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	CodeSuccess = 0
	CodeFailure = 1
	CodeUsage   = 2
)

// ErrUsage marks errors caused by invalid command-line input.
var ErrUsage = errors.New("usage error")

// Result holds the output destination and exit code for program termination.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

// Print writes the result message to the configured output destination.
func (r *Result) Print() {
	if r.Message == "" {
		return
	}
	msg := r.Message
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(r.Output, msg)
}

// Success creates a successful exit result that outputs to stdout with exit code 0.
func Success(message string) *Result {
	return &Result{
		Output:   os.Stdout,
		ExitCode: CodeSuccess,
		Message:  message,
	}
}

// Error creates an error exit result that outputs to stderr with exit code 1.
func Error(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeFailure,
		Message:  message,
	}
}

// Errorf creates an error exit result with formatted message.
func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// Usagef creates an exit result for invalid invocations, with exit code 2.
func Usagef(format string, a ...any) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeUsage,
		Message:  fmt.Sprintf(format, a...),
	}
}

// FromError maps err to an exit result. A nil error is a silent success.
func FromError(err error) *Result {
	switch {
	case err == nil:
		return Success("")
	case errors.Is(err, ErrUsage):
		return Usagef("Error: %v", err)
	default:
		return Errorf("Error: %v", err)
	}
}
