package query

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Tokens
// --------------------------------------------------------------------------

type tokenKind uint8

const (
	tokIdent tokenKind = iota
	tokKeyword
	tokNumber
	tokString
	tokOperator
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string // keywords are upper-cased, strings are unquoted
	pos  int
}

var keywords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "IN": true, "BETWEEN": true,
	"TRUE": true, "FALSE": true, "NULL": true,
}

// --------------------------------------------------------------------------
// Public API
// --------------------------------------------------------------------------

// Parse turns a SQL-like filter string into a predicate tree.
//
// The language supports AND, OR and NOT (case-insensitive, precedence
// OR < AND < NOT < comparison), the operators = == != <> > >= < <=,
// "x BETWEEN a AND b", "x IN (a, b, ...)", their NOT forms and parenthesised
// groups. A bare attribute name is short for "name=true", the keywords TRUE
// and FALSE on their own match every or no entry.
//
// Example:
//
//	p, err := query.Parse("active AND age BETWEEN 18 AND 65")
//	p.String() // "(active=true AND age BETWEEN 18 AND 65)"
func Parse(filter string) (Predicate, error) {
	tokens, err := tokenize(filter)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &FilterError{Filter: filter, Pos: 0, Msg: "empty filter"}
	}

	p, rest, err := parseOr(tokens)
	if err != nil {
		return nil, withFilter(err, filter)
	}
	if len(rest) > 0 {
		msg := fmt.Sprintf("unexpected %q", rest[0].text)
		if rest[0].kind == tokRParen {
			msg = "unmatched closing parenthesis"
		}
		return nil, &FilterError{Filter: filter, Pos: rest[0].pos, Msg: msg}
	}
	return p, nil
}

// MustParse is like Parse but panics if the filter is malformed.
// It simplifies initialization of package level predicates.
func MustParse(filter string) Predicate {
	p, err := Parse(filter)
	if err != nil {
		panic(err)
	}
	return p
}

// withFilter attaches the complete input to errors raised by the parse functions
func withFilter(err error, filter string) error {
	if fe, ok := err.(*FilterError); ok {
		fe.Filter = filter
		if fe.Pos < 0 {
			fe.Pos = len(filter)
		}
	}
	return err
}

// --------------------------------------------------------------------------
// Lexer
// --------------------------------------------------------------------------

func tokenize(filter string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(filter) {
		c := filter[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
			i++
		case c == '=' || c == '!' || c == '<' || c == '>':
			op, n := scanOperator(filter[i:])
			if n == 0 {
				return nil, &FilterError{Filter: filter, Pos: i, Msg: fmt.Sprintf("unknown operator %q", string(c))}
			}
			tokens = append(tokens, token{kind: tokOperator, text: op, pos: i})
			i += n
		case c == '\'' || c == '"':
			s, n, ok := scanString(filter[i:])
			if !ok {
				return nil, &FilterError{Filter: filter, Pos: i, Msg: "unterminated string"}
			}
			tokens = append(tokens, token{kind: tokString, text: s, pos: i})
			i += n
		case isDigit(c) || ((c == '-' || c == '+' || c == '.') && i+1 < len(filter) && (isDigit(filter[i+1]) || filter[i+1] == '.')):
			n := scanNumber(filter[i:])
			tokens = append(tokens, token{kind: tokNumber, text: filter[i : i+n], pos: i})
			i += n
		case isIdentStart(c):
			n := 1
			for i+n < len(filter) && isIdentPart(filter[i+n]) {
				n++
			}
			word := filter[i : i+n]
			if upper := strings.ToUpper(word); keywords[upper] {
				tokens = append(tokens, token{kind: tokKeyword, text: upper, pos: i})
			} else {
				tokens = append(tokens, token{kind: tokIdent, text: word, pos: i})
			}
			i += n
		default:
			return nil, &FilterError{Filter: filter, Pos: i, Msg: fmt.Sprintf("unexpected character %q", string(c))}
		}
	}
	return tokens, nil
}

// scanOperator returns the operator at the start of s and its length (0 if invalid)
func scanOperator(s string) (string, int) {
	if len(s) >= 2 {
		switch s[:2] {
		case "==", "!=", "<>", "<=", ">=":
			return s[:2], 2
		}
	}
	switch s[0] {
	case '=', '<', '>':
		return s[:1], 1
	}
	return "", 0
}

// scanString reads a quoted string, a doubled quote stands for a literal quote
func scanString(s string) (string, int, bool) {
	quote := s[0]
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != quote {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			sb.WriteByte(quote)
			i++
			continue
		}
		return sb.String(), i + 1, true
	}
	return "", 0, false
}

// scanNumber returns the length of the numeric literal at the start of s
func scanNumber(s string) int {
	n := 0
	if s[0] == '-' || s[0] == '+' {
		n++
	}
	for n < len(s) && (isDigit(s[n]) || s[n] == '.') {
		n++
	}
	// exponent
	if n < len(s) && (s[n] == 'e' || s[n] == 'E') {
		m := n + 1
		if m < len(s) && (s[m] == '+' || s[m] == '-') {
			m++
		}
		if m < len(s) && isDigit(s[m]) {
			for m < len(s) && isDigit(s[m]) {
				m++
			}
			n = m
		}
	}
	return n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) || c == '.' }

// --------------------------------------------------------------------------
// Parser (recursive descent, each function returns the remaining tokens)
// --------------------------------------------------------------------------

func parseOr(ts []token) (Predicate, []token, error) {
	first, rest, err := parseAnd(ts)
	if err != nil {
		return nil, nil, err
	}
	children := []Predicate{first}
	for isKeyword(rest, "OR") {
		var next Predicate
		if next, rest, err = parseAnd(rest[1:]); err != nil {
			return nil, nil, err
		}
		children = append(children, next)
	}
	return Or(children...), rest, nil
}

func parseAnd(ts []token) (Predicate, []token, error) {
	first, rest, err := parseNot(ts)
	if err != nil {
		return nil, nil, err
	}
	children := []Predicate{first}
	for isKeyword(rest, "AND") {
		var next Predicate
		if next, rest, err = parseNot(rest[1:]); err != nil {
			return nil, nil, err
		}
		children = append(children, next)
	}
	return And(children...), rest, nil
}

func parseNot(ts []token) (Predicate, []token, error) {
	if isKeyword(ts, "NOT") {
		p, rest, err := parseNot(ts[1:])
		if err != nil {
			return nil, nil, err
		}
		return Not(p), rest, nil
	}
	return parsePrimary(ts)
}

func parsePrimary(ts []token) (Predicate, []token, error) {
	if len(ts) == 0 {
		return nil, nil, errAt(ts, "unexpected end of filter")
	}
	switch {
	case isKeyword(ts, "TRUE"):
		return True(), ts[1:], nil
	case isKeyword(ts, "FALSE"):
		return False(), ts[1:], nil
	case ts[0].kind != tokLParen:
		return parseComparison(ts)
	}

	p, rest, err := parseOr(ts[1:])
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 || rest[0].kind != tokRParen {
		return nil, nil, &FilterError{Pos: ts[0].pos, Msg: "unmatched opening parenthesis"}
	}
	return p, rest[1:], nil
}

func parseComparison(ts []token) (Predicate, []token, error) {
	if ts[0].kind != tokIdent {
		return nil, nil, errAt(ts, fmt.Sprintf("expected attribute name, got %q", ts[0].text))
	}
	attr := Attribute(ts[0].text)
	rest := ts[1:]

	// bare attribute
	if len(rest) == 0 {
		return Equal(attr, true), rest, nil
	}

	if rest[0].kind == tokOperator {
		op := rest[0].text
		value, rest, err := parseLiteral(rest[1:])
		if err != nil {
			return nil, nil, err
		}
		switch op {
		case "=", "==":
			return Equal(attr, value), rest, nil
		case "!=", "<>":
			return NotEqual(attr, value), rest, nil
		case ">":
			return GreaterThan(attr, value), rest, nil
		case ">=":
			return GreaterEqual(attr, value), rest, nil
		case "<":
			return LessThan(attr, value), rest, nil
		default:
			return LessEqual(attr, value), rest, nil
		}
	}

	negate := false
	if isKeyword(rest, "NOT") && (isKeyword(rest[1:], "IN") || isKeyword(rest[1:], "BETWEEN")) {
		negate, rest = true, rest[1:]
	}

	var p Predicate
	var err error
	switch {
	case isKeyword(rest, "IN"):
		p, rest, err = parseIn(attr, rest[1:])
	case isKeyword(rest, "BETWEEN"):
		p, rest, err = parseBetween(attr, rest[1:])
	default:
		return Equal(attr, true), rest, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if negate {
		p = Not(p)
	}
	return p, rest, nil
}

// parseIn parses "( literal [, literal]* )"
func parseIn(attr Expression, ts []token) (Predicate, []token, error) {
	if len(ts) == 0 || ts[0].kind != tokLParen {
		return nil, nil, errAt(ts, "IN must be followed by a parenthesised list")
	}
	rest := ts[1:]
	var values []any
	for {
		value, next, err := parseLiteral(rest)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, value)
		rest = next

		if len(rest) > 0 && rest[0].kind == tokComma {
			rest = rest[1:]
			continue
		}
		if len(rest) > 0 && rest[0].kind == tokRParen {
			return In(attr, values...), rest[1:], nil
		}
		return nil, nil, errAt(rest, "IN list must be closed by ')'")
	}
}

// parseBetween parses "literal AND literal"
func parseBetween(attr Expression, ts []token) (Predicate, []token, error) {
	from, rest, err := parseLiteral(ts)
	if err != nil {
		return nil, nil, err
	}
	if !isKeyword(rest, "AND") {
		return nil, nil, errAt(rest, "BETWEEN requires 'AND' between its bounds")
	}
	to, rest, err := parseLiteral(rest[1:])
	if err != nil {
		return nil, nil, err
	}
	return Between(attr, from, to), rest, nil
}

func parseLiteral(ts []token) (any, []token, error) {
	if len(ts) == 0 {
		return nil, nil, errAt(ts, "expected a value")
	}
	t := ts[0]
	switch t.kind {
	case tokNumber:
		v, err := parseNumber(t.text)
		if err != nil {
			return nil, nil, &FilterError{Pos: t.pos, Msg: fmt.Sprintf("invalid number %q", t.text)}
		}
		return v, ts[1:], nil
	case tokString, tokIdent:
		return t.text, ts[1:], nil
	case tokKeyword:
		switch t.text {
		case "TRUE":
			return true, ts[1:], nil
		case "FALSE":
			return false, ts[1:], nil
		case "NULL":
			return nil, ts[1:], nil
		}
	}
	return nil, nil, &FilterError{Pos: t.pos, Msg: fmt.Sprintf("expected a value, got %q", t.text)}
}

// parseNumber keeps integers as int64 unless they overflow
func parseNumber(text string) (any, error) {
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
	}
	return strconv.ParseFloat(text, 64)
}

func isKeyword(ts []token, kw string) bool {
	return len(ts) > 0 && ts[0].kind == tokKeyword && ts[0].text == kw
}

// errAt creates an error positioned at the first token, or at the end of the input
func errAt(ts []token, msg string) *FilterError {
	if len(ts) == 0 {
		return &FilterError{Pos: -1, Msg: msg}
	}
	return &FilterError{Pos: ts[0].pos, Msg: msg}
}
