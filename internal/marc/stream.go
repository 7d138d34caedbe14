package marc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Format names a record serialization.
type Format string

const (
	FormatISO2709 Format = "iso2709"
	FormatMRK     Format = "mrk"
)

// Formats lists the supported serializations.
var Formats = []Format{FormatISO2709, FormatMRK}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iso2709", "marc", "mrc":
		return FormatISO2709, nil
	case "mrk", "line", "text":
		return FormatMRK, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath guesses the serialization from a file extension, falling
// back to ISO 2709.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".mrk") || strings.HasSuffix(lower, ".txt") {
		return FormatMRK
	}
	return FormatISO2709
}

type recordDecoder interface {
	Decode() (*Record, error)
}

func newRecordDecoder(r io.Reader, format Format) (recordDecoder, error) {
	switch format {
	case FormatISO2709:
		return NewDecoder(r), nil
	case FormatMRK:
		return NewLineDecoder(r), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Stream returns a lazy iterator over the records in r.
//
// Iteration stops after the first decoding error or when ctx is cancelled;
// in both cases the error is yielded once.
func Stream(ctx context.Context, r io.Reader, format Format) (iter.Seq2[*Record, error], error) {
	dec, err := newRecordDecoder(r, format)
	if err != nil {
		return nil, err
	}

	seq := iter.Seq2[*Record, error](func(yield func(*Record, error) bool) {
		for {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			rec, err := dec.Decode()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	})

	return seq, nil
}

// ReadAll decodes every record in r.
func ReadAll(r io.Reader, format Format) ([]*Record, error) {
	seq, err := Stream(context.Background(), r, format)
	if err != nil {
		return nil, err
	}

	var records []*Record
	for rec, err := range seq {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}
