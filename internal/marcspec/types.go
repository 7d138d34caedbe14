package marcspec

import (
	"strconv"
	"strings"

	"github.com/thomsbe/MarcLinkFinc/internal/predicate"
)

// Bound is one end of an index or character range.
type Bound struct {
	Value int
	Last  bool // '#' sentinel
}

func (b Bound) String() string {
	if b.Last {
		return "#"
	}
	return strconv.Itoa(b.Value)
}

// Range selects a single position or an inclusive start-end span.
type Range struct {
	Start   Bound
	End     Bound
	IsRange bool
}

func (r Range) String() string {
	if !r.IsRange {
		return r.Start.String()
	}
	return r.Start.String() + "-" + r.End.String()
}

// Indicator requires the field indicator at Position (1 or 2) to equal Value.
type Indicator struct {
	Position int
	Value    byte
}

// Predicate is a parsed sub-specification. Key is the left-hand side as
// written, e.g. "$a"; candidate values are compared using Op and Value.
type Predicate struct {
	Key   string
	Op    predicate.Operator
	Value string
}

func (p Predicate) Expr() predicate.Expr {
	return predicate.Expr{Op: p.Op, Value: p.Value}
}

func (p Predicate) String() string {
	return "{" + p.Key + string(p.Op) + p.Value + "}"
}

// Query is the compiled form of a spec string.
type Query struct {
	Tag        string
	Index      *Range
	Indicators []Indicator
	CharRange  *Range
	Subfields  []byte
	Predicates []Predicate

	// Rest holds trailing text the parser could not recognise.
	Rest string

	spec  string
	exprs []predicate.Expr
}

// Spec returns the text the query was parsed from.
func (q *Query) Spec() string {
	return q.spec
}

// String renders the query in canonical component order.
func (q *Query) String() string {
	var b strings.Builder
	b.WriteString(q.Tag)
	if q.Index != nil {
		b.WriteByte('[')
		b.WriteString(q.Index.String())
		b.WriteByte(']')
	}
	inds := q.Indicators
	if len(inds) >= 2 && inds[0].Position == 1 && inds[1].Position == 2 &&
		(isDigit(inds[0].Value) || inds[0].Value == ' ') && isDigit(inds[1].Value) {
		b.WriteByte('^')
		writeIndicatorValue(&b, inds[0].Value)
		b.WriteByte(inds[1].Value)
		inds = inds[2:]
	}
	for _, ind := range inds {
		b.WriteByte('^')
		b.WriteString(strconv.Itoa(ind.Position))
		writeIndicatorValue(&b, ind.Value)
	}
	if q.CharRange != nil {
		b.WriteByte('/')
		b.WriteString(q.CharRange.String())
	}
	for _, code := range q.Subfields {
		b.WriteByte('$')
		b.WriteByte(code)
	}
	for _, p := range q.Predicates {
		b.WriteString(p.String())
	}
	return b.String()
}

func writeIndicatorValue(b *strings.Builder, v byte) {
	if v == ' ' {
		b.WriteByte('_')
		return
	}
	b.WriteByte(v)
}
