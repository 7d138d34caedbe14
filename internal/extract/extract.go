// Package extract applies MARC path queries to records and shapes the
// selected values for output: cleaning, pattern removal, joining and
// first-value selection.
package extract

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/thomsbe/MarcLinkFinc/internal/marcspec"
)

// Options controls how the values selected by a set of specs are combined.
type Options struct {
	// Join, when set, concatenates the values of each matching field into a
	// single string.
	Join string
	// Clean trims surrounding whitespace and drops empty values.
	Clean bool
	// Normalize converts values to Unicode NFC. MARC21 exports often carry
	// decomposed diacritics.
	Normalize bool
	// Remove patterns are deleted from every value before cleaning.
	Remove []*regexp.Regexp
	// First keeps only the first resulting value.
	First bool
	// Default is returned when nothing was selected.
	Default string
}

// SplitComplex splits a combined spec such as "600abc:610ab" into single
// specs. ':' takes precedence over ';'. Separators inside "{...}" or "[...]"
// and escaped ones belong to the spec.
func SplitComplex(spec string) []string {
	parts := splitTopLevel(spec, ':')
	if len(parts) == 1 {
		parts = splitTopLevel(spec, ';')
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitTopLevel(spec string, sep byte) []string {
	var parts []string
	open := make([]byte, 0, 4)
	last := 0

	for i := 0; i < len(spec); i++ {
		switch c := spec[i]; c {
		case '\\':
			i++
		case '[', '{':
			open = append(open, c)
		case ']', '}':
			if n := len(open); n > 0 && open[n-1] == matching(c) {
				open = open[:n-1]
			}
		case sep:
			if len(open) == 0 {
				parts = append(parts, spec[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, spec[last:])
}

func matching(closing byte) byte {
	if closing == ']' {
		return '['
	}
	return '{'
}

type plan struct {
	query *marcspec.Query
	err   error
}

// Extractor compiles every distinct spec once and is safe for concurrent use.
type Extractor struct {
	exec   *marcspec.Executor
	logger *slog.Logger

	mu    sync.RWMutex
	plans map[string]plan
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		exec:   marcspec.NewExecutor(),
		logger: logger,
		plans:  make(map[string]plan),
	}
}

// Compile returns the parsed query for spec. Results, including failures,
// are cached; diagnostics are logged the first time a spec is seen.
func (e *Extractor) Compile(spec string) (*marcspec.Query, error) {
	e.mu.RLock()
	p, ok := e.plans[spec]
	e.mu.RUnlock()
	if ok {
		return p.query, p.err
	}

	q, err := marcspec.Parse(spec)
	switch {
	case err != nil:
		e.logger.Warn("skipping malformed spec", "spec", spec, "error", err)
	case q.Rest != "":
		e.logger.Warn("spec has unparsed trailing text", "spec", spec, "rest", q.Rest)
	}

	e.mu.Lock()
	if existing, ok := e.plans[spec]; ok {
		e.mu.Unlock()
		return existing.query, existing.err
	}
	e.plans[spec] = plan{query: q, err: err}
	e.mu.Unlock()

	return q, err
}

// Extract applies every spec to rec in order and returns the shaped values.
// Malformed specs are skipped; an invalid regular expression inside a spec
// is returned as an error.
func (e *Extractor) Extract(rec marcspec.Record, opts Options, specs ...string) ([]string, error) {
	var out []string

	for _, spec := range specs {
		q, err := e.Compile(spec)
		if err != nil {
			continue
		}

		groups, err := e.exec.ExecuteFields(rec, q)
		if err != nil {
			return nil, fmt.Errorf("spec %q: %w", spec, err)
		}

		for _, g := range groups {
			values := shape(g, opts)
			if opts.Join != "" {
				if len(values) > 0 {
					out = append(out, strings.Join(values, opts.Join))
				}
				continue
			}
			out = append(out, values...)
		}
	}

	e.logger.Debug("extracted values", "specs", len(specs), "values", len(out))

	if opts.First && len(out) > 1 {
		out = out[:1]
	}
	if len(out) == 0 && opts.Default != "" {
		out = []string{opts.Default}
	}
	return out, nil
}

// ExtractComplex is Extract over the parts of a combined spec.
func (e *Extractor) ExtractComplex(rec marcspec.Record, opts Options, spec string) ([]string, error) {
	return e.Extract(rec, opts, SplitComplex(spec)...)
}

func shape(values []string, opts Options) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if opts.Normalize {
			v = norm.NFC.String(v)
		}
		for _, re := range opts.Remove {
			v = re.ReplaceAllString(v, "")
		}
		if opts.Clean {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

// CompilePatterns compiles removal patterns.
func CompilePatterns(patterns ...string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid removal pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
