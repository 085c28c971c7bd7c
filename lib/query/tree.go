package query

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Tree Form
// --------------------------------------------------------------------------

// Keys and operator names of the tree form. They are part of the wire format.
const (
	treeOp       = "op"
	treeExpr     = "expr"
	treeValue    = "value"
	treeFrom     = "from"
	treeTo       = "to"
	treeValues   = "values"
	treeChildren = "children"
	treeChild    = "child"
	treeMatch    = "match"
	treeAttr     = "attr"
	treeConst    = "const"

	opNameEqual   = "eq"
	opNameBetween = "between"
	opNameIn      = "in"
	opNameAnd     = "and"
	opNameOr      = "or"
	opNameNot     = "not"
	opNameConst   = "const"
)

var cmpOpNames = map[cmpOp]string{
	opGreater:      "gt",
	opGreaterEqual: "ge",
	opLess:         "lt",
	opLessEqual:    "le",
}

// ToTree converts a predicate into a tree of plain values: maps with string keys,
// []any lists and the operand values in their native Go type.
// It is the form codecs use to transfer predicates.
//
// Only predicates and expressions created by this package can be converted,
// everything else fails with ErrUnsupportedPredicate.
func ToTree(p Predicate) (map[string]any, error) {
	switch n := p.(type) {
	case *equalPredicate:
		return leafTree(opNameEqual, n.expr, treeValue, n.value.Interface())
	case *comparisonPredicate:
		return leafTree(cmpOpNames[n.op], n.expr, treeValue, n.value.Interface())
	case *betweenPredicate:
		tree, err := leafTree(opNameBetween, n.expr, treeFrom, n.from.Interface())
		if err != nil {
			return nil, err
		}
		tree[treeTo] = n.to.Interface()
		return tree, nil
	case *inPredicate:
		values := make([]any, len(n.values))
		for i, v := range n.values {
			values[i] = v.Interface()
		}
		return leafTree(opNameIn, n.expr, treeValues, values)
	case *andPredicate:
		return compositeTree(opNameAnd, n.children)
	case *orPredicate:
		return compositeTree(opNameOr, n.children)
	case *notPredicate:
		child, err := ToTree(n.child)
		if err != nil {
			return nil, err
		}
		return map[string]any{treeOp: opNameNot, treeChild: child}, nil
	case *constPredicate:
		return map[string]any{treeOp: opNameConst, treeMatch: n.match}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPredicate, p)
	}
}

func leafTree(op string, expr Expression, key string, value any) (map[string]any, error) {
	var e map[string]any
	switch x := expr.(type) {
	case attribute:
		e = map[string]any{treeAttr: x.name}
	case constant:
		e = map[string]any{treeConst: x.value}
	default:
		return nil, fmt.Errorf("%w: expression %T", ErrUnsupportedPredicate, expr)
	}
	return map[string]any{treeOp: op, treeExpr: e, key: value}, nil
}

func compositeTree(op string, children []Predicate) (map[string]any, error) {
	items := make([]any, len(children))
	for i, child := range children {
		tree, err := ToTree(child)
		if err != nil {
			return nil, err
		}
		items[i] = tree
	}
	return map[string]any{treeOp: op, treeChildren: items}, nil
}

// FromTree restores a predicate from the output of ToTree.
// Malformed trees fail with ErrMalformedTree.
func FromTree(tree map[string]any) (Predicate, error) {
	op, ok := tree[treeOp].(string)
	if !ok {
		return nil, malformedTree("missing operator")
	}

	switch op {
	case opNameAnd, opNameOr:
		items, ok := tree[treeChildren].([]any)
		if !ok {
			return nil, malformedTree("%s without children", op)
		}
		children := make([]Predicate, len(items))
		for i, item := range items {
			sub, ok := item.(map[string]any)
			if !ok {
				return nil, malformedTree("child %d of %s is %T", i, op, item)
			}
			child, err := FromTree(sub)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		if op == opNameAnd {
			return And(children...), nil
		}
		return Or(children...), nil
	case opNameNot:
		sub, ok := tree[treeChild].(map[string]any)
		if !ok {
			return nil, malformedTree("not without child")
		}
		child, err := FromTree(sub)
		if err != nil {
			return nil, err
		}
		return Not(child), nil
	case opNameConst:
		match, ok := tree[treeMatch].(bool)
		if !ok {
			return nil, malformedTree("const without match")
		}
		return &constPredicate{match: match}, nil
	}

	expr, err := exprFromTree(tree[treeExpr])
	if err != nil {
		return nil, err
	}

	switch op {
	case opNameEqual:
		value, err := operand(tree, treeValue)
		if err != nil {
			return nil, err
		}
		return Equal(expr, value), nil
	case opNameBetween:
		from, err := operand(tree, treeFrom)
		if err != nil {
			return nil, err
		}
		to, err := operand(tree, treeTo)
		if err != nil {
			return nil, err
		}
		return Between(expr, from, to), nil
	case opNameIn:
		values, ok := tree[treeValues].([]any)
		if !ok {
			return nil, malformedTree("in without values")
		}
		return In(expr, values...), nil
	}

	for cmp, name := range cmpOpNames {
		if name == op {
			value, err := operand(tree, treeValue)
			if err != nil {
				return nil, err
			}
			return &comparisonPredicate{expr: expr, op: cmp, value: ValueOf(value)}, nil
		}
	}
	return nil, malformedTree("unknown operator %q", op)
}

func exprFromTree(raw any) (Expression, error) {
	e, ok := raw.(map[string]any)
	if !ok {
		return nil, malformedTree("missing expression")
	}
	if name, ok := e[treeAttr].(string); ok && name != "" {
		return Attribute(name), nil
	}
	if value, ok := e[treeConst]; ok {
		return Constant(value), nil
	}
	return nil, malformedTree("unknown expression")
}

// operand returns a required operand, a present nil stands for null
func operand(tree map[string]any, key string) (any, error) {
	v, ok := tree[key]
	if !ok {
		return nil, malformedTree("missing %s", key)
	}
	return v, nil
}

func malformedTree(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedTree, fmt.Sprintf(format, args...))
}
