// Package query implements the predicate engine used to select map entries.
//
// A predicate is an immutable tree of leaf comparisons (equal, >, >=, <, <=,
// between, in) and composites (and, or, not). Trees are built either with the
// factory functions of this package or by parsing a SQL-like filter string:
//
//	p := query.And(
//	  query.Equal(query.Attribute("active"), true),
//	  query.GreaterThan(query.Attribute("age"), 4),
//	)
//
//	q, err := query.Parse("active AND age > 4")
//	q.String() == p.String() // "(active=true AND age>4)"
//
// Key Components:
//
//   - Value: A tagged variant (null, int, float, bool, string, bytes, other) with
//     explicit comparison rules. Integers and floats compare by numeric value,
//     booleans by truth value. Ordering values of unrelated kinds fails with
//     ErrUnsupportedComparison.
//
//   - Expression: Extracts the compared value from an entry. Attribute resolves
//     dotted paths through maps, structs and Attributes implementations.
//
//   - Parse: Recursive descent parser with the precedence OR < AND < NOT <
//     comparison. Malformed input fails with an error wrapping ErrMalformedFilter.
//
// The String method of every predicate returns a canonical filter string. It is
// stable for a given tree and parses back into an equivalent tree, which is why
// the codec package uses it as the wire representation of predicates.
//
// Thread Safety:
//
//	Predicates hold no mutable state and can be evaluated concurrently.
package query
