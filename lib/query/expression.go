package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// --------------------------------------------------------------------------
// Entries
// --------------------------------------------------------------------------

// Entry is the unit a predicate is evaluated against: a key/value pair.
// Implementations may carry additional metadata (versions, timestamps, ...).
type Entry interface {
	Key() any
	Value() any
}

// mapEntry is the minimal Entry implementation
type mapEntry struct {
	key   any
	value any
}

func (e mapEntry) Key() any   { return e.key }
func (e mapEntry) Value() any { return e.value }

// NewEntry wraps a key and a value into an Entry.
func NewEntry(key, value any) Entry {
	return mapEntry{key: key, value: value}
}

// --------------------------------------------------------------------------
// Expressions
// --------------------------------------------------------------------------

// Expression extracts the value a leaf predicate compares against.
type Expression interface {
	// Value returns the extracted value, nil if it is absent
	Value(entry Entry) (any, error)
	// String returns the name used when a predicate is rendered
	String() string
}

// Attributes can be implemented by entry values that expose their fields
// without relying on maps or struct decoding.
type Attributes interface {
	Attribute(name string) (value any, ok bool)
}

const (
	// KeyAttribute refers to the key of an entry
	KeyAttribute = "__key"
	// ThisAttribute refers to the whole value of an entry
	ThisAttribute = "this"
)

// attribute resolves a (possibly dotted) attribute path on an entry
type attribute struct {
	name string
	path []string
}

// Attribute returns an expression reading the named attribute of an entry value.
// Nested attributes are separated by dots ("address.city"). The names "__key"
// and "this" refer to the entry key and the entry value itself.
func Attribute(name string) Expression {
	return attribute{name: name, path: strings.Split(name, ".")}
}

func (a attribute) String() string {
	return a.name
}

func (a attribute) Value(entry Entry) (any, error) {
	if entry == nil {
		return nil, nil
	}

	path := a.path
	var current any
	switch path[0] {
	case KeyAttribute:
		current, path = entry.Key(), path[1:]
	case ThisAttribute:
		current, path = entry.Value(), path[1:]
	default:
		current = entry.Value()
	}

	for _, step := range path {
		next, err := lookup(current, step)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.name, err)
		}
		if next == nil {
			return nil, nil
		}
		current = next
	}
	return current, nil
}

// lookup reads a single field of a record value
func lookup(record any, field string) (any, error) {
	switch r := record.(type) {
	case nil:
		return nil, nil
	case Attributes:
		v, _ := r.Attribute(field)
		return v, nil
	case map[string]any:
		return lookupMap(r, field), nil
	}

	// Structs are flattened into a map first
	rv := reflect.Indirect(reflect.ValueOf(record))
	if rv.Kind() != reflect.Struct {
		return nil, nil
	}
	fields := map[string]any{}
	if err := mapstructure.Decode(rv.Interface(), &fields); err != nil {
		return nil, err
	}
	return lookupMap(fields, field), nil
}

// lookupMap prefers an exact match and falls back to a case-insensitive one.
// If several keys match case-insensitively the lexicographically smallest wins.
func lookupMap(m map[string]any, field string) any {
	if v, ok := m[field]; ok {
		return v
	}
	var (
		match string
		value any
		found bool
	)
	for k, v := range m {
		if strings.EqualFold(k, field) && (!found || k < match) {
			match, value, found = k, v, true
		}
	}
	return value
}

// constant is an expression that ignores the entry, mostly useful in tests
// and for predicates over computed values.
type constant struct {
	value any
}

// Constant returns an expression that always yields value.
func Constant(value any) Expression {
	return constant{value: value}
}

func (c constant) Value(Entry) (any, error) {
	return c.value, nil
}

func (c constant) String() string {
	return ValueOf(c.value).String()
}
