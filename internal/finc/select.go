package finc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/theory/jsonpath"
)

var ErrInvalidPath = errors.New("invalid JSONPath")

// Select evaluates a JSONPath expression against the JSON form of doc.
func Select(doc *Document, expr string) ([]any, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, expr, err)
	}
	return path.Select(doc.Fields()), nil
}

// LineMatch is the result of a JSONPath query over one line of a JSON Lines
// stream.
type LineMatch struct {
	Line   int
	Values []any
}

// SelectLines evaluates expr against every document of a JSON Lines stream.
// Lines without matches are skipped.
func SelectLines(ctx context.Context, r io.Reader, expr string) (iter.Seq2[LineMatch, error], error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, expr, err)
	}

	seq := iter.Seq2[LineMatch, error](func(yield func(LineMatch, error) bool) {
		s := bufio.NewScanner(r)
		s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

		line := 0
		for s.Scan() {
			if ctx.Err() != nil {
				yield(LineMatch{}, ctx.Err())
				return
			}
			line++

			raw := s.Bytes()
			if len(raw) == 0 {
				continue
			}

			var data any
			if err := json.Unmarshal(raw, &data); err != nil {
				yield(LineMatch{}, fmt.Errorf("line %d: %w", line, err))
				return
			}

			results := path.Select(data)
			if len(results) == 0 {
				continue
			}
			if !yield(LineMatch{Line: line, Values: results}, nil) {
				return
			}
		}

		if err := s.Err(); err != nil {
			yield(LineMatch{}, err)
		}
	})

	return seq, nil
}
