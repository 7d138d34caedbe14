package stdout

import (
	"fmt"
	"io"
	"os"

	"github.com/thomsbe/MarcLinkFinc/internal/formatter"
	"github.com/thomsbe/MarcLinkFinc/internal/results"
)

const separator = "--------------------------------------------------------------------------------"

// Formatter implements stdout-based output formatting.
type Formatter struct {
	writer io.Writer
}

// New creates a new stdout formatter that outputs to stdout.
func New() formatter.Formatter {
	return &Formatter{
		writer: os.Stdout,
	}
}

// NewWithWriter creates a new stdout formatter with a custom writer.
func NewWithWriter(writer io.Writer) formatter.Formatter {
	return &Formatter{
		writer: writer,
	}
}

func (f *Formatter) Format(s *results.Summary) error {
	if s == nil {
		return nil
	}

	for _, fileResult := range s.FileResults {
		status := "Success"
		if fileResult.Error != nil {
			status = fmt.Sprintf("Failed: %v", fileResult.Error)
		}
		_, err := fmt.Fprintf(f.writer, "%s: %s (%d record(s), %d converted, %d invalid in %d ms)\n",
			fileResult.Filename, status, fileResult.Records, fileResult.Converted, fileResult.Invalid,
			fileResult.Duration.Milliseconds())
		if err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(f.writer, separator); err != nil {
		return err
	}

	if s.Target != "" {
		if _, err := fmt.Fprintf(f.writer, "Output:            %s\n", s.Target); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(f.writer, "Processed files:   %d\n", s.ExecutedFiles); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Records read:      %d (%.2f/s)\n", s.Records, s.RecordsPerSecond()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Records converted: %d (%.1f%%)\n", s.Converted, s.ConvertedPercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Records invalid:   %d\n", s.Invalid); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Succeeded files:   %d (%.1f%%)\n", s.SucceededFiles, s.SuccessPercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Failed files:      %d (%.1f%%)\n", s.FailedFiles, s.FailurePercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Duration:          %d ms\n", s.TotalDuration.Milliseconds()); err != nil {
		return err
	}

	return nil
}
