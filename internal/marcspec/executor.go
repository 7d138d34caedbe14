package marcspec

import (
	"fmt"

	"github.com/thomsbe/MarcLinkFinc/internal/predicate"
)

// Record is the read-only view of a bibliographic record the executor needs.
type Record interface {
	// FieldsWithTag returns the fields carrying tag, in record order.
	FieldsWithTag(tag string) []Field
}

// Field is a single control or data field.
type Field interface {
	IsControl() bool
	// Indicator returns the indicator at position 1 or 2.
	Indicator(pos int) byte
	// WholeValue is the control field data, or the text of a data field.
	WholeValue() string
	// SubfieldsWithCode returns the values of all subfields with code, in order.
	SubfieldsWithCode(code byte) []string
}

// Executor evaluates queries against records. An Executor holds no
// per-record state and is safe for concurrent use.
type Executor struct {
	eval *predicate.Evaluator
}

func NewExecutor() *Executor {
	return &Executor{eval: predicate.NewEvaluator()}
}

// Execute returns the values selected by q, in field order then subfield
// order. Out-of-range indexes and character ranges select nothing; only an
// invalid regular expression in a sub-specification is reported as an error.
func (e *Executor) Execute(rec Record, q *Query) ([]string, error) {
	groups, err := e.ExecuteFields(rec, q)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out, nil
}

// ExecuteFields is like Execute but keeps the values of each matching field
// together. Fields that yield no value are omitted.
func (e *Executor) ExecuteFields(rec Record, q *Query) ([][]string, error) {
	fields := selectFields(rec.FieldsWithTag(q.Tag), q.Index)

	var groups [][]string
	for _, f := range fields {
		if !matchIndicators(f, q.Indicators) {
			continue
		}

		values, err := e.candidates(f, q)
		if err != nil {
			return nil, fmt.Errorf("evaluating %q on field %s: %w", q.spec, q.Tag, err)
		}

		values = sliceAll(values, q.CharRange)
		if len(values) > 0 {
			groups = append(groups, values)
		}
	}
	return groups, nil
}

func (e *Executor) candidates(f Field, q *Query) ([]string, error) {
	if len(q.Subfields) == 0 {
		return e.keep(nil, f.WholeValue(), q.exprs)
	}

	var out []string
	for _, code := range q.Subfields {
		for _, v := range f.SubfieldsWithCode(code) {
			var err error
			out, err = e.keep(out, v, q.exprs)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (e *Executor) keep(dst []string, value string, exprs []predicate.Expr) ([]string, error) {
	ok, err := e.eval.MatchAll(value, exprs)
	if err != nil {
		return nil, err
	}
	if ok {
		dst = append(dst, value)
	}
	return dst, nil
}

func selectFields(fields []Field, index *Range) []Field {
	if index == nil {
		return fields
	}

	lo, hi, ok := index.resolve(len(fields))
	if !ok {
		return nil
	}
	return fields[lo : hi+1]
}

func matchIndicators(f Field, indicators []Indicator) bool {
	if len(indicators) == 0 {
		return true
	}
	if f.IsControl() {
		return false
	}
	for _, ind := range indicators {
		if f.Indicator(ind.Position) != ind.Value {
			return false
		}
	}
	return true
}

var defaultExecutor = NewExecutor()

// Execute evaluates q against rec using a shared Executor.
func Execute(rec Record, q *Query) ([]string, error) {
	return defaultExecutor.Execute(rec, q)
}

// ExecuteSpec parses spec and evaluates it against rec.
func ExecuteSpec(rec Record, spec string) ([]string, error) {
	q, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	return defaultExecutor.Execute(rec, q)
}
