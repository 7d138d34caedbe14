package results

import (
	"time"
)

// FileResult describes the conversion of one source file.
type FileResult struct {
	Filename  string
	Records   int
	Converted int
	Invalid   int
	Duration  time.Duration
	Error     error
}

type FileResultBuilder struct {
	filename  string
	records   int
	converted int
	invalid   int
	duration  time.Duration
	err       error
}

func NewFileResultBuilder(filename string) *FileResultBuilder {
	return &FileResultBuilder{
		filename: filename,
	}
}

func (b *FileResultBuilder) WithRecords(count int) *FileResultBuilder {
	b.records = count
	return b
}

func (b *FileResultBuilder) WithConverted(count int) *FileResultBuilder {
	b.converted = count
	return b
}

func (b *FileResultBuilder) WithInvalid(count int) *FileResultBuilder {
	b.invalid = count
	return b
}

func (b *FileResultBuilder) WithDuration(duration time.Duration) *FileResultBuilder {
	b.duration = duration
	return b
}

func (b *FileResultBuilder) WithError(err error) *FileResultBuilder {
	b.err = err
	return b
}

func (b *FileResultBuilder) Build() FileResult {
	return FileResult{
		Filename:  b.filename,
		Records:   b.records,
		Converted: b.converted,
		Invalid:   b.invalid,
		Duration:  b.duration,
		Error:     b.err,
	}
}

// Summary aggregates the results of a conversion run.
type Summary struct {
	RunID          string
	Target         string
	FileResults    []FileResult
	ExecutedFiles  int
	Records        int
	Converted      int
	Invalid        int
	SucceededFiles int
	FailedFiles    int
	TotalDuration  time.Duration
}

func NewSummary(expectedFiles int) *Summary {
	return &Summary{
		FileResults: make([]FileResult, 0, expectedFiles),
	}
}

func (s *Summary) Add(builder *FileResultBuilder) {
	result := builder.Build()

	s.FileResults = append(s.FileResults, result)
	s.ExecutedFiles++
	s.Records += result.Records
	s.Converted += result.Converted
	s.Invalid += result.Invalid

	if result.Error != nil {
		s.FailedFiles++
	} else {
		s.SucceededFiles++
	}
}

func (s *Summary) SetTotalDuration(duration time.Duration) {
	s.TotalDuration = duration
}

// HasFailures reports whether any file failed.
func (s *Summary) HasFailures() bool {
	return s.FailedFiles > 0
}

func (s *Summary) RecordsPerSecond() float64 {
	if s.TotalDuration == 0 {
		return 0
	}
	return float64(s.Records) / s.TotalDuration.Seconds()
}

// ConvertedPercentage is the share of read records that were written.
func (s *Summary) ConvertedPercentage() float64 {
	if s.Records == 0 {
		return 0
	}
	return (float64(s.Converted) / float64(s.Records)) * 100
}

func (s *Summary) SuccessPercentage() float64 {
	if s.ExecutedFiles == 0 {
		return 0
	}
	return (float64(s.SucceededFiles) / float64(s.ExecutedFiles)) * 100
}

func (s *Summary) FailurePercentage() float64 {
	if s.ExecutedFiles == 0 {
		return 0
	}
	return (float64(s.FailedFiles) / float64(s.ExecutedFiles)) * 100
}
