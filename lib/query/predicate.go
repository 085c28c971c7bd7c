package query

import (
	"strings"
)

// --------------------------------------------------------------------------
// Predicate Interface
// --------------------------------------------------------------------------

// Predicate is a node of an immutable filter tree.
// A tree can be evaluated concurrently from any number of goroutines.
type Predicate interface {
	// Apply evaluates the predicate against a single entry.
	// An error is only returned if two operands cannot be ordered (ErrUnsupportedComparison)
	// or an expression fails to extract its value.
	Apply(entry Entry) (bool, error)
	// String returns the canonical filter string of the predicate.
	// Parsing the result yields an equivalent predicate as long as attribute
	// names are identifiers and all operands are filter literals.
	String() string
}

// --------------------------------------------------------------------------
// Leaf Predicates
// --------------------------------------------------------------------------

type equalPredicate struct {
	expr  Expression
	value Value
}

func (p *equalPredicate) Apply(entry Entry) (bool, error) {
	v, err := p.expr.Value(entry)
	if err != nil {
		return false, err
	}
	return ValueOf(v).Equal(p.value), nil
}

func (p *equalPredicate) String() string {
	return p.expr.String() + "=" + p.value.String()
}

// cmpOp is one of the ordering operators
type cmpOp uint8

const (
	opGreater cmpOp = iota
	opGreaterEqual
	opLess
	opLessEqual
)

func (op cmpOp) String() string {
	switch op {
	case opGreater:
		return ">"
	case opGreaterEqual:
		return ">="
	case opLess:
		return "<"
	default:
		return "<="
	}
}

// holds reports whether a comparison result satisfies the operator
func (op cmpOp) holds(c int) bool {
	switch op {
	case opGreater:
		return c > 0
	case opGreaterEqual:
		return c >= 0
	case opLess:
		return c < 0
	default:
		return c <= 0
	}
}

type comparisonPredicate struct {
	expr  Expression
	op    cmpOp
	value Value
}

func (p *comparisonPredicate) Apply(entry Entry) (bool, error) {
	raw, err := p.expr.Value(entry)
	if err != nil {
		return false, err
	}
	v := ValueOf(raw)
	if v.IsNull() || p.value.IsNull() {
		return false, nil
	}
	c, err := v.Compare(p.value)
	if err != nil {
		return false, err
	}
	return p.op.holds(c), nil
}

func (p *comparisonPredicate) String() string {
	return p.expr.String() + p.op.String() + p.value.String()
}

type betweenPredicate struct {
	expr Expression
	from Value
	to   Value
}

func (p *betweenPredicate) Apply(entry Entry) (bool, error) {
	raw, err := p.expr.Value(entry)
	if err != nil {
		return false, err
	}
	v := ValueOf(raw)
	if v.IsNull() || p.from.IsNull() || p.to.IsNull() {
		return false, nil
	}
	lo, err := v.Compare(p.from)
	if err != nil || lo < 0 {
		return false, err
	}
	hi, err := v.Compare(p.to)
	if err != nil {
		return false, err
	}
	return hi <= 0, nil
}

func (p *betweenPredicate) String() string {
	return p.expr.String() + " BETWEEN " + p.from.String() + " AND " + p.to.String()
}

type inPredicate struct {
	expr   Expression
	values []Value
}

func (p *inPredicate) Apply(entry Entry) (bool, error) {
	raw, err := p.expr.Value(entry)
	if err != nil {
		return false, err
	}
	v := ValueOf(raw)
	for _, candidate := range p.values {
		if v.Equal(candidate) {
			return true, nil
		}
	}
	return false, nil
}

func (p *inPredicate) String() string {
	parts := make([]string, len(p.values))
	for i, v := range p.values {
		parts[i] = v.String()
	}
	return p.expr.String() + " IN (" + strings.Join(parts, ",") + ")"
}

type constPredicate struct {
	match bool
}

func (p *constPredicate) Apply(Entry) (bool, error) {
	return p.match, nil
}

func (p *constPredicate) String() string {
	if p.match {
		return "TRUE"
	}
	return "FALSE"
}

// --------------------------------------------------------------------------
// Composite Predicates
// --------------------------------------------------------------------------

type andPredicate struct {
	children []Predicate
}

func (p *andPredicate) Apply(entry Entry) (bool, error) {
	for _, child := range p.children {
		ok, err := child.Apply(entry)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (p *andPredicate) String() string {
	return join(p.children, " AND ")
}

type orPredicate struct {
	children []Predicate
}

func (p *orPredicate) Apply(entry Entry) (bool, error) {
	for _, child := range p.children {
		ok, err := child.Apply(entry)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (p *orPredicate) String() string {
	return join(p.children, " OR ")
}

type notPredicate struct {
	child Predicate
}

func (p *notPredicate) Apply(entry Entry) (bool, error) {
	ok, err := p.child.Apply(entry)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (p *notPredicate) String() string {
	// composite children already render their own parentheses
	if isComposite(p.child) {
		return "NOT" + p.child.String()
	}
	return "NOT(" + p.child.String() + ")"
}

// join renders the children of a conjunction or disjunction
func join(children []Predicate, sep string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, child := range children {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(child.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func isComposite(p Predicate) bool {
	switch p.(type) {
	case *andPredicate, *orPredicate:
		return true
	default:
		return false
	}
}
