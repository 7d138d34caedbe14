package stdout

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/thomsbe/MarcLinkFinc/internal/results"
)

func TestFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		summary  *results.Summary
		expected []string
	}{
		{
			name: "successful_single_file",
			summary: &results.Summary{
				Target: "out/finc.jsonl",
				FileResults: []results.FileResult{
					{
						Filename:  "records.mrc",
						Records:   4,
						Converted: 3,
						Invalid:   1,
						Duration:  500 * time.Millisecond,
					},
				},
				ExecutedFiles:  1,
				Records:        4,
				Converted:      3,
				Invalid:        1,
				SucceededFiles: 1,
				TotalDuration:  500 * time.Millisecond,
			},
			expected: []string{
				"records.mrc: Success (4 record(s), 3 converted, 1 invalid in 500 ms)",
				"Output:            out/finc.jsonl",
				"Processed files:   1",
				"Records read:      4 (8.00/s)",
				"Records converted: 3 (75.0%)",
				"Records invalid:   1",
				"Succeeded files:   1 (100.0%)",
				"Failed files:      0 (0.0%)",
				"Duration:          500 ms",
			},
		},
		{
			name: "multiple_files_mixed_results",
			summary: &results.Summary{
				FileResults: []results.FileResult{
					{
						Filename:  "good.mrc",
						Records:   2,
						Converted: 2,
						Duration:  300 * time.Millisecond,
					},
					{
						Filename: "broken.mrc",
						Records:  1,
						Duration: 100 * time.Millisecond,
						Error:    errors.New("marc: malformed record"),
					},
				},
				ExecutedFiles:  2,
				Records:        3,
				Converted:      2,
				SucceededFiles: 1,
				FailedFiles:    1,
				TotalDuration:  400 * time.Millisecond,
			},
			expected: []string{
				"good.mrc: Success (2 record(s), 2 converted, 0 invalid in 300 ms)",
				"broken.mrc: Failed: marc: malformed record (1 record(s), 0 converted, 0 invalid in 100 ms)",
				"Processed files:   2",
				"Records read:      3 (7.50/s)",
				"Succeeded files:   1 (50.0%)",
				"Failed files:      1 (50.0%)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter := NewWithWriter(&buf)
			err := formatter.Format(tt.summary)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			output := buf.String()
			for _, expected := range tt.expected {
				if !strings.Contains(output, expected) {
					t.Errorf("Expected output to contain %q, but got:\n%s", expected, output)
				}
			}
		})
	}
}

func TestFormatter_Format_NilSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWithWriter(&buf).Format(nil); err != nil {
		t.Fatalf("Format(nil) error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected empty output for nil summary, got: %s", buf.String())
	}
}

func TestFormatter_Format_OmitsEmptyTarget(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWithWriter(&buf).Format(&results.Summary{}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "Output:") {
		t.Errorf("Expected no output line without target, got:\n%s", buf.String())
	}
}

func TestNew(t *testing.T) {
	formatter := New()
	if formatter == nil {
		t.Error("New() returned nil")
	}
}
