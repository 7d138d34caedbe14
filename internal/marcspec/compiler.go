package marcspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thomsbe/MarcLinkFinc/internal/predicate"
)

const tagLen = 3

// Parse compiles a spec string into a Query.
//
// Only a missing or malformed tag is an error. Any component that cannot be
// recognised stops parsing; the remaining text is kept in Query.Rest.
func Parse(spec string) (*Query, error) {
	if err := validateTag(spec); err != nil {
		return nil, err
	}

	q := &Query{Tag: spec[:tagLen], spec: spec}
	i := tagLen

	if r, next, ok := parseIndex(spec, i); ok {
		q.Index = r
		i = next
	}

	for {
		inds, next, ok := parseIndicator(spec, i, len(q.Indicators) == 0)
		if !ok {
			break
		}
		q.Indicators = append(q.Indicators, inds...)
		i = next
	}

	if r, next, ok := parseCharRange(spec, i); ok {
		q.CharRange = r
		i = next
	}

	for {
		code, next, ok := parseSubfield(spec, i)
		if !ok {
			break
		}
		q.Subfields = append(q.Subfields, code)
		i = next
	}

	for {
		p, next, ok := parsePredicate(spec, i)
		if !ok {
			break
		}
		q.Predicates = append(q.Predicates, p)
		q.exprs = append(q.exprs, p.Expr())
		i = next
	}

	// "600[0]{$a=x}/0-2": a character range may close the spec.
	if q.CharRange == nil {
		if r, next, ok := parseCharRange(spec, i); ok {
			q.CharRange = r
			i = next
		}
	}

	q.Rest = spec[i:]
	return q, nil
}

// MustParse is like Parse but panics on error. It is meant for specs
// that are compile-time constants.
func MustParse(spec string) *Query {
	q, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return q
}

func validateTag(spec string) error {
	if len(spec) <= tagLen {
		return fmt.Errorf("%w: %q is too short, expected a tag followed by at least one component", ErrInvalidSpec, spec)
	}
	for i := 0; i < tagLen; i++ {
		if !isAlnum(spec[i]) {
			return fmt.Errorf("%w: tag %q must be three alphanumeric characters", ErrInvalidSpec, spec[:tagLen])
		}
	}
	return nil
}

func parseIndex(expr string, i int) (*Range, int, bool) {
	if i >= len(expr) || expr[i] != '[' {
		return nil, i, false
	}

	end := findClosing(expr, i)
	if end == -1 {
		return nil, i, false
	}

	r, ok := parseRangeBody(expr[i+1 : end])
	if !ok {
		return nil, i, false
	}
	return &r, end + 1, true
}

// parseIndicator reads one indicator group. As the first group, "^" followed
// by a digit or '_' and then a digit sets both indicators ("^10", "^_7").
// Otherwise "^", a position (1 or 2) and one character constrain a single
// indicator ("^1a", "^2_").
func parseIndicator(expr string, i int, first bool) ([]Indicator, int, bool) {
	if i+2 >= len(expr) || expr[i] != '^' {
		return nil, i, false
	}

	a, b := expr[i+1], expr[i+2]
	if first && (isDigit(a) || a == '_') && isDigit(b) {
		return []Indicator{
			{Position: 1, Value: indicatorValue(a)},
			{Position: 2, Value: b},
		}, i + 3, true
	}

	var pos int
	switch a {
	case '1':
		pos = 1
	case '2':
		pos = 2
	default:
		return nil, i, false
	}
	return []Indicator{{Position: pos, Value: indicatorValue(b)}}, i + 3, true
}

func indicatorValue(c byte) byte {
	if c == '_' {
		return ' '
	}
	return c
}

func parseCharRange(expr string, i int) (*Range, int, bool) {
	if i >= len(expr) || expr[i] != '/' {
		return nil, i, false
	}

	start, next, ok := parseBound(expr, i+1)
	if !ok {
		return nil, i, false
	}

	r := Range{Start: start}
	if next+1 < len(expr) && expr[next] == '-' {
		end, after, ok := parseBound(expr, next+1)
		if ok {
			r.End = end
			r.IsRange = true
			next = after
		}
	}
	return &r, next, true
}

func parseSubfield(expr string, i int) (byte, int, bool) {
	if i >= len(expr) {
		return 0, i, false
	}
	if expr[i] == '$' {
		if i+1 >= len(expr) {
			return 0, i, false
		}
		return expr[i+1], i + 2, true
	}
	if isSubfieldCode(expr[i]) {
		return expr[i], i + 1, true
	}
	return 0, i, false
}

func parsePredicate(expr string, i int) (Predicate, int, bool) {
	if i >= len(expr) || expr[i] != '{' {
		return Predicate{}, i, false
	}

	end := findClosing(expr, i)
	if end == -1 {
		return Predicate{}, i, false
	}

	body := expr[i+1 : end]
	for _, op := range predicate.Operators {
		if idx := strings.Index(body, string(op)); idx >= 0 {
			return Predicate{
				Key:   body[:idx],
				Op:    op,
				Value: body[idx+len(op):],
			}, end + 1, true
		}
	}
	return Predicate{}, i, false
}

// parseRangeBody parses "n", "#" or "start-end" where either bound may be '#'.
func parseRangeBody(body string) (Range, bool) {
	start, next, ok := parseBound(body, 0)
	if !ok {
		return Range{}, false
	}
	if next == len(body) {
		return Range{Start: start}, true
	}
	if body[next] != '-' {
		return Range{}, false
	}

	end, next, ok := parseBound(body, next+1)
	if !ok || next != len(body) {
		return Range{}, false
	}
	return Range{Start: start, End: end, IsRange: true}, true
}

func parseBound(expr string, i int) (Bound, int, bool) {
	if i >= len(expr) {
		return Bound{}, i, false
	}
	if expr[i] == '#' {
		return Bound{Last: true}, i + 1, true
	}

	start := i
	for i < len(expr) && isDigit(expr[i]) {
		i++
	}
	if start == i {
		return Bound{}, start, false
	}

	v, err := strconv.Atoi(expr[start:i])
	if err != nil {
		return Bound{}, start, false
	}
	return Bound{Value: v}, i, true
}

// findClosing returns the position of the delimiter closing the '[' or '{'
// at start, or -1. Nested '[]' and '{}' pairs (as found in regular
// expressions) are tracked; a backslash escapes the following byte.
func findClosing(expr string, start int) int {
	open := make([]byte, 0, 4)

	for i := start; i < len(expr); i++ {
		c := expr[i]
		if c == '\\' {
			i++
			continue
		}

		switch c {
		case '[', '{':
			open = append(open, c)
		case ']', '}':
			if len(open) == 0 || open[len(open)-1] != opening(c) {
				continue
			}
			open = open[:len(open)-1]
			if len(open) == 0 {
				return i
			}
		}
	}
	return -1
}

func opening(closing byte) byte {
	if closing == ']' {
		return '['
	}
	return '{'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlnum(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// isSubfieldCode reports whether b may be written as a bare subfield code.
func isSubfieldCode(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z')
}
