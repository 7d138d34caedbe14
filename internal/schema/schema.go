// Package schema describes the output document: which slots it has, where
// each slot's values come from and which constraints they must satisfy.
package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"

	"github.com/thomsbe/MarcLinkFinc/internal/extract"
	"github.com/thomsbe/MarcLinkFinc/internal/marcspec"
)

// ErrInvalidSchema is wrapped by every schema loading and validation failure.
var ErrInvalidSchema = errors.New("invalid schema")

//go:embed finc.yaml
var defaultSchema []byte

// Schema is an ordered list of output slots.
type Schema struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Slots       []*Slot `yaml:"slots"`

	index map[string]*Slot
}

// Slot maps MARC values, or a constant, to one output field.
type Slot struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Source is a single or colon separated list of path queries.
	Source   string `yaml:"source,omitempty"`
	Constant string `yaml:"constant,omitempty"`
	Default  string `yaml:"default,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`

	Join   string   `yaml:"join,omitempty"`
	First  bool     `yaml:"first,omitempty"`
	Remove []string `yaml:"remove,omitempty"`
	// Clean defaults to true.
	Clean     *bool `yaml:"clean,omitempty"`
	Normalize bool  `yaml:"normalize,omitempty"`

	Multivalued bool   `yaml:"multivalued,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	Pattern     string `yaml:"pattern,omitempty"`

	specs   []string
	pattern *regexp.Regexp
	remove  []*regexp.Regexp
}

// Specs returns the single path queries of Source.
func (s *Slot) Specs() []string {
	return s.specs
}

// Options returns the extraction options of the slot.
func (s *Slot) Options() extract.Options {
	return extract.Options{
		Join:      s.Join,
		Clean:     s.Clean == nil || *s.Clean,
		Normalize: s.Normalize,
		Remove:    s.remove,
		First:     s.First,
		Default:   s.Default,
	}
}

// Matches reports whether value satisfies the slot pattern. Slots without a
// pattern accept any value.
func (s *Slot) Matches(value string) bool {
	return s.pattern == nil || s.pattern.MatchString(value)
}

// Slot returns the slot called name.
func (s *Schema) Slot(name string) (*Slot, bool) {
	slot, ok := s.index[name]
	return slot, ok
}

// Default returns the built-in finc schema.
func Default() *Schema {
	s, err := Parse(bytes.NewReader(defaultSchema))
	if err != nil {
		panic(fmt.Sprintf("schema: built-in schema: %v", err))
	}
	return s
}

// DefaultSource returns the YAML of the built-in schema.
func DefaultSource() []byte {
	return bytes.Clone(defaultSchema)
}

// Load reads and validates the schema at path.
func Load(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a YAML schema. Unknown keys are rejected.
func Parse(r io.Reader) (*Schema, error) {
	var s Schema
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: failed to decode YAML: %v", ErrInvalidSchema, err)
	}

	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// compile validates every slot and prepares its patterns and queries. All
// problems are reported together.
func (s *Schema) compile() error {
	if len(s.Slots) == 0 {
		return fmt.Errorf("%w: no slots defined", ErrInvalidSchema)
	}

	var errs []error
	s.index = make(map[string]*Slot, len(s.Slots))

	for i, slot := range s.Slots {
		if slot == nil {
			errs = append(errs, fmt.Errorf("%w: slot %d is empty", ErrInvalidSchema, i))
			continue
		}
		if slot.Name == "" {
			errs = append(errs, fmt.Errorf("%w: slot %d has no name", ErrInvalidSchema, i))
			continue
		}
		if _, dup := s.index[slot.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate slot %q", ErrInvalidSchema, slot.Name))
			continue
		}
		s.index[slot.Name] = slot

		if err := slot.compile(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Slot) compile() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: slot %q: %s", ErrInvalidSchema, s.Name, fmt.Sprintf(format, args...)))
	}

	switch {
	case s.Source == "" && s.Constant == "":
		fail("one of source or constant is required")
	case s.Source != "" && s.Constant != "":
		fail("source and constant are mutually exclusive")
	}

	s.specs = extract.SplitComplex(s.Source)
	for _, spec := range s.specs {
		q, err := marcspec.Parse(spec)
		if err != nil {
			fail("source %q: %v", spec, err)
			continue
		}
		if q.Rest != "" {
			fail("source %q: unexpected %q", spec, q.Rest)
		}
	}

	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			fail("pattern: %v", err)
		}
		s.pattern = re
	}

	remove, err := extract.CompilePatterns(s.Remove...)
	if err != nil {
		fail("remove: %v", err)
	}
	s.remove = remove

	if s.Multivalued && s.First {
		fail("first cannot be combined with multivalued")
	}

	return errors.Join(errs...)
}
