package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseRendering checks the canonical string of parsed filters
func TestParseRendering(t *testing.T) {
	tests := []struct {
		filter string
		want   string
	}{
		{"age BETWEEN 10 AND 15 AND active", "(age BETWEEN 10 AND 15 AND active=true)"},
		{"NOT(age BETWEEN 10 AND 15)", "NOT(age BETWEEN 10 AND 15)"},
		{"age NOT BETWEEN 10 AND 15", "NOT(age BETWEEN 10 AND 15)"},
		{"age <= 10 AND (active OR NOT age IN (10, 15))", "(age<=10 AND (active=true OR NOT(age IN (10,15))))"},
		{"age>10 AND (active or (age IN (10, 15 )))", "(age>10 AND (active=true OR age IN (10,15)))"},
		{"active= false and age <= 4", "(active=false AND age<=4)"},
		{"active=false AND (age>=4)", "(active=false AND age>=4)"},
		{"a = 1 AND b = 2 AND c = 3", "(a=1 AND b=2 AND c=3)"},
		{"a = 1 OR b = 2 AND c = 3", "(a=1 OR (b=2 AND c=3))"},
		{"(a = 1 AND b = 2) AND c = 3", "((a=1 AND b=2) AND c=3)"},
		{"NOT (a = 1 OR b = 2)", "NOT(a=1 OR b=2)"},
		{"NOT NOT active", "NOT(NOT(active=true))"},
		{"name = 'it''s'", "name='it''s'"},
		{"name = \"double\"", "name='double'"},
		{"name = bare", "name='bare'"},
		{"name == 'x'", "name='x'"},
		{"name != 'x'", "NOT(name='x')"},
		{"name <> 'x'", "NOT(name='x')"},
		{"age NOT IN (1,2)", "NOT(age IN (1,2))"},
		{"score > 1.5", "score>1.5"},
		{"score < -2", "score<-2"},
		{"score >= 1e3", "score>=1000"},
		{"deleted = null", "deleted=null"},
		{"address.city = 'Ulm'", "address.city='Ulm'"},
		{"__key IN ('a', 'b')", "__key IN ('a','b')"},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			p, err := Parse(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

// TestParseInvariance checks that whitespace and keyword case do not change the result
func TestParseInvariance(t *testing.T) {
	variants := []string{
		"active AND age BETWEEN 18 AND 65",
		"active and age between 18 and 65",
		"  active\tAnD\nage   BETWEEN 18   AND 65  ",
		"(active AND age BETWEEN 18 AND 65)",
		"((active) AND (age BETWEEN 18 AND 65))",
	}

	want := "(active=true AND age BETWEEN 18 AND 65)"
	for _, filter := range variants {
		p, err := Parse(filter)
		require.NoError(t, err, filter)
		assert.Equal(t, want, p.String(), filter)
	}
}

// TestParseStability checks that rendering is a fixed point of parsing
func TestParseStability(t *testing.T) {
	filters := []string{
		"age <= 10 AND (active OR NOT age IN (10, 15))",
		"NOT (a = 1 OR b = 2) AND c BETWEEN 'a' AND 'z'",
		"x = 'it''s' OR y = 2.25 OR z = null",
		"a > -1e-3 AND b < 9223372036854775807",
	}

	for _, filter := range filters {
		t.Run(filter, func(t *testing.T) {
			first, err := Parse(filter)
			require.NoError(t, err)
			second, err := Parse(first.String())
			require.NoError(t, err)
			assert.Equal(t, first.String(), second.String())
		})
	}
}

// TestParseMalformed checks that invalid filters report ErrMalformedFilter
func TestParseMalformed(t *testing.T) {
	tests := []struct {
		filter string
		pos    int
	}{
		{"", 0},
		{"   ", 0},
		{"age >", 5},
		{"age > 10 AND", 12},
		{"(age > 10", 0},
		{"age > 10)", 8},
		{"age IN 1, 2", 7},
		{"age IN (1, 2", 12},
		{"age BETWEEN 1 OR 2", 14},
		{"name = 'open", 7},
		{"age ! 3", 4},
		{"age > 10 # 3", 9},
		{"= 3", 0},
		{"AND active", 0},
		{"age > 10 active", 9},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			p, err := Parse(tt.filter)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrMalformedFilter))

			var fe *FilterError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.filter, fe.Filter)
			assert.Equal(t, tt.pos, fe.Pos)
		})
	}
}

// TestMustParse checks the panicking variant
func TestMustParse(t *testing.T) {
	assert.NotPanics(t, func() { MustParse("active") })
	assert.Panics(t, func() { MustParse("active AND") })
}

// TestParsedNumbers checks that integer literals keep their integer kind
func TestParsedNumbers(t *testing.T) {
	p := MustParse("n = 9007199254740993")

	ok, err := Matches(p, nil, map[string]any{"n": int64(9007199254740993)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(p, nil, map[string]any{"n": int64(9007199254740992)})
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestValueRendering checks literal rendering of values
func TestValueRendering(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, "null"},
		{42, "42"},
		{uint8(7), "7"},
		{15.22, "15.22"},
		{float32(0.5), "0.5"},
		{true, "true"},
		{"it's", "'it''s'"},
		{[]byte{0xca, 0xfe}, "'cafe'"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValueOf(tt.value).String())
	}
}

// TestValueKinds checks kind detection of plain Go values
func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindNull, ValueOf([]byte(nil)).Kind())
	assert.Equal(t, KindInt, ValueOf(uint64(1)).Kind())
	assert.Equal(t, KindFloat, ValueOf(uint64(1<<63)).Kind())
	assert.Equal(t, KindOther, ValueOf([]int{1}).Kind())
	assert.True(t, ValueOf([]int{1}).Equal(ValueOf([]int{1})))
	assert.Equal(t, int64(3), ValueOf(int8(3)).Interface())
}
