package predicate

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

var (
	ErrInvalidInput = errors.New("invalid predicate input")
	ErrUnsupported  = errors.New("unsupported predicate operation")
)

type Operator string

const (
	OpEquals    Operator = "="
	OpNotEquals Operator = "!="
	OpRegex     Operator = "~"
	OpNotRegex  Operator = "!~"
)

// Operators lists the operators in the order a sub-specification body is
// scanned for them. Negated operators come first so that "!=" is not split
// as "!" + "=".
var Operators = []Operator{OpNotEquals, OpNotRegex, OpEquals, OpRegex}

// Expr is a single comparison applied to a candidate value.
type Expr struct {
	Op    Operator
	Value string
}

func (e Expr) String() string {
	return string(e.Op) + e.Value
}

type regexCompiler interface {
	Compile(pattern string) (*regexp.Regexp, error)
}

type cachedRegexCompiler struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func newCachedRegexCompiler() *cachedRegexCompiler {
	return &cachedRegexCompiler{
		patterns: make(map[string]*regexp.Regexp),
	}
}

func (c *cachedRegexCompiler) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	if compiled, ok := c.patterns[pattern]; ok {
		c.mu.RUnlock()
		return compiled, nil
	}
	c.mu.RUnlock()

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex %q: %v", ErrInvalidInput, pattern, err)
	}

	c.mu.Lock()
	c.patterns[pattern] = compiled
	c.mu.Unlock()

	return compiled, nil
}

type operationFunc func(actual, expected string) (bool, error)

// Evaluator applies predicate expressions to string values. It is safe for
// concurrent use; compiled regular expressions are shared between calls.
type Evaluator struct {
	regexCompiler regexCompiler
	operations    map[Operator]operationFunc
}

func NewEvaluator() *Evaluator {
	return newEvaluator(newCachedRegexCompiler())
}

func newEvaluator(compiler regexCompiler) *Evaluator {
	e := &Evaluator{
		regexCompiler: compiler,
	}

	e.operations = map[Operator]operationFunc{
		OpEquals: func(actual, expected string) (bool, error) {
			return actual == expected, nil
		},
		OpNotEquals: func(actual, expected string) (bool, error) {
			return actual != expected, nil
		},
		OpRegex: e.evaluateRegex,
		OpNotRegex: func(actual, expected string) (bool, error) {
			found, err := e.evaluateRegex(actual, expected)
			return !found, err
		},
	}

	return e
}

func (e *Evaluator) Evaluate(expr Expr, actual string) (bool, error) {
	opFunc, ok := e.operations[expr.Op]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnsupported, expr.Op)
	}

	return opFunc(actual, expr.Value)
}

// MatchAll reports whether actual satisfies every expression. It stops at the
// first expression that fails or errors. An empty list always matches.
func (e *Evaluator) MatchAll(actual string, exprs []Expr) (bool, error) {
	for _, expr := range exprs {
		ok, err := e.Evaluate(expr, actual)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evaluateRegex reports whether the pattern is found anywhere in actual.
func (e *Evaluator) evaluateRegex(actual, pattern string) (bool, error) {
	regex, err := e.regexCompiler.Compile(pattern)
	if err != nil {
		return false, err
	}

	return regex.MatchString(actual), nil
}
