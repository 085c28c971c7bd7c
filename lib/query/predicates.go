package query

// --------------------------------------------------------------------------
// Predicate Factory Functions
// --------------------------------------------------------------------------

// Equal matches entries whose expression value equals value.
// Numbers compare by numeric value across int and float kinds.
func Equal(expr Expression, value any) Predicate {
	return &equalPredicate{expr: expr, value: ValueOf(value)}
}

// NotEqual is the negation of Equal.
func NotEqual(expr Expression, value any) Predicate {
	return Not(Equal(expr, value))
}

// GreaterThan matches entries whose expression value is strictly greater than value.
func GreaterThan(expr Expression, value any) Predicate {
	return &comparisonPredicate{expr: expr, op: opGreater, value: ValueOf(value)}
}

// GreaterEqual matches entries whose expression value is greater than or equal to value.
func GreaterEqual(expr Expression, value any) Predicate {
	return &comparisonPredicate{expr: expr, op: opGreaterEqual, value: ValueOf(value)}
}

// LessThan matches entries whose expression value is strictly less than value.
func LessThan(expr Expression, value any) Predicate {
	return &comparisonPredicate{expr: expr, op: opLess, value: ValueOf(value)}
}

// LessEqual matches entries whose expression value is less than or equal to value.
func LessEqual(expr Expression, value any) Predicate {
	return &comparisonPredicate{expr: expr, op: opLessEqual, value: ValueOf(value)}
}

// Between matches entries with from <= value <= to (both ends inclusive).
func Between(expr Expression, from, to any) Predicate {
	return &betweenPredicate{expr: expr, from: ValueOf(from), to: ValueOf(to)}
}

// In matches entries whose expression value equals any of values.
func In(expr Expression, values ...any) Predicate {
	vs := make([]Value, len(values))
	for i, v := range values {
		vs[i] = ValueOf(v)
	}
	return &inPredicate{expr: expr, values: vs}
}

// And matches entries matched by every predicate, evaluated left to right.
// A single predicate is returned unchanged, no predicates at all yield True.
func And(predicates ...Predicate) Predicate {
	switch len(predicates) {
	case 0:
		return True()
	case 1:
		return predicates[0]
	}
	return &andPredicate{children: predicates}
}

// Or matches entries matched by at least one predicate, evaluated left to right.
// A single predicate is returned unchanged, no predicates at all yield False.
func Or(predicates ...Predicate) Predicate {
	switch len(predicates) {
	case 0:
		return False()
	case 1:
		return predicates[0]
	}
	return &orPredicate{children: predicates}
}

// True matches every entry. It renders as TRUE.
func True() Predicate {
	return &constPredicate{match: true}
}

// False matches no entry. It renders as FALSE.
func False() Predicate {
	return &constPredicate{match: false}
}

// Not negates a predicate.
func Not(predicate Predicate) Predicate {
	return &notPredicate{child: predicate}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// Matches evaluates p against an entry made of key and value.
// A nil predicate matches everything.
func Matches(p Predicate, key, value any) (bool, error) {
	if p == nil {
		return true, nil
	}
	return p.Apply(NewEntry(key, value))
}
