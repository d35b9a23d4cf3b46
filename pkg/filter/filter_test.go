package filter

import (
	"testing"

	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmahmoudi/formgen/pkg/models"
)

func TestAddressingFor(t *testing.T) {
	tests := []struct {
		name     string
		op       Operator
		value    any
		expected Addressing
	}{
		{"contains is text", OpContains, "abc", AddressText},
		{"startsWith is text", OpStartsWith, "abc", AddressText},
		{"endsWith is text", OpEndsWith, "abc", AddressText},
		{"equals string is text", OpEquals, "abc", AddressText},
		{"equals number is native", OpEquals, float64(5), AddressNative},
		{"equals bool is native", OpEquals, true, AddressNative},
		{"isTrue is native", OpIsTrue, true, AddressNative},
		{"isFalse is native", OpIsFalse, false, AddressNative},
		{"greaterThan is native", OpGreaterThan, float64(5), AddressNative},
		{"lessThanOrEqual is native", OpLessThanOrEqual, float64(5), AddressNative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddressingFor(tt.op, tt.value))
		})
	}
}

func TestSkip(t *testing.T) {
	tests := []struct {
		name string
		f    Filter
		skip bool
	}{
		{"empty string", Filter{Operator: OpContains, Value: ""}, true},
		{"nil value", Filter{Operator: OpEquals, Value: nil}, true},
		{"literal string nil is kept", Filter{Operator: OpContains, Value: "nil"}, false},
		{"false without isFalse", Filter{Operator: OpEquals, Value: false}, true},
		{"false with isFalse", Filter{Operator: OpIsFalse, Value: false}, false},
		{"true", Filter{Operator: OpIsTrue, Value: true}, false},
		{"zero is kept", Filter{Operator: OpEquals, Value: float64(0)}, false},
		{"text value", Filter{Operator: OpContains, Value: "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.skip, Skip(tt.f))
		})
	}
}

func TestDefaultOperator(t *testing.T) {
	assert.Equal(t, OpContains, DefaultOperator(models.FieldTypeText, "x"))
	assert.Equal(t, OpContains, DefaultOperator(models.FieldTypeEmail, "x"))
	assert.Equal(t, OpContains, DefaultOperator(models.FieldTypeTextarea, "x"))
	assert.Equal(t, OpIsTrue, DefaultOperator(models.FieldTypeCheckbox, true))
	assert.Equal(t, OpIsFalse, DefaultOperator(models.FieldTypeCheckbox, false))
	assert.Equal(t, OpEquals, DefaultOperator(models.FieldTypeSelect, "x"))
	assert.Equal(t, OpEquals, DefaultOperator(models.FieldTypeRadio, "x"))
	assert.Equal(t, OpEquals, DefaultOperator(models.FieldTypeRelation, "id"))
	assert.Equal(t, OpEquals, DefaultOperator(models.FieldTypeNumber, float64(1)))
	assert.Equal(t, OpEquals, DefaultOperator(models.FieldTypeDate, "2024-01-01"))
}

func buildQuery(t *testing.T, filters map[string]Filter) (string, []any) {
	t.Helper()
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*").From("form_responses")
	require.NoError(t, Apply(sb, filters))
	return sb.Build()
}

func TestApply_TextOperators(t *testing.T) {
	t.Run("contains wraps with wildcards", func(t *testing.T) {
		sql, args := buildQuery(t, map[string]Filter{
			"name": {Operator: OpContains, Value: "ali"},
		})
		assert.Contains(t, sql, "(data ->> $1) ILIKE $2")
		assert.Equal(t, []any{"name", "%ali%"}, args)
	})

	t.Run("startsWith appends wildcard", func(t *testing.T) {
		_, args := buildQuery(t, map[string]Filter{
			"name": {Operator: OpStartsWith, Value: "al"},
		})
		assert.Equal(t, []any{"name", "al%"}, args)
	})

	t.Run("endsWith prepends wildcard", func(t *testing.T) {
		_, args := buildQuery(t, map[string]Filter{
			"name": {Operator: OpEndsWith, Value: "ce"},
		})
		assert.Equal(t, []any{"name", "%ce"}, args)
	})

	t.Run("like metacharacters are escaped", func(t *testing.T) {
		_, args := buildQuery(t, map[string]Filter{
			"name": {Operator: OpContains, Value: "50%_off"},
		})
		assert.Equal(t, []any{"name", `%50\%\_off%`}, args)
	})

	t.Run("equals string uses text extraction", func(t *testing.T) {
		sql, args := buildQuery(t, map[string]Filter{
			"name": {Operator: OpEquals, Value: "Alice"},
		})
		assert.Contains(t, sql, "(data ->> $1) = $2")
		assert.Equal(t, []any{"name", "Alice"}, args)
	})
}

func TestApply_NativeOperators(t *testing.T) {
	t.Run("equals number uses jsonb comparison", func(t *testing.T) {
		sql, args := buildQuery(t, map[string]Filter{
			"age": {Operator: OpEquals, Value: float64(42)},
		})
		assert.Contains(t, sql, "(data -> $1) = $2::jsonb")
		assert.Equal(t, []any{"age", "42"}, args)
	})

	t.Run("isTrue compares against jsonb true", func(t *testing.T) {
		sql, _ := buildQuery(t, map[string]Filter{
			"active": {Operator: OpIsTrue, Value: true},
		})
		assert.Contains(t, sql, "(data -> $1) = 'true'::jsonb")
	})

	t.Run("isFalse survives the skip rule", func(t *testing.T) {
		sql, _ := buildQuery(t, map[string]Filter{
			"active": {Operator: OpIsFalse, Value: false},
		})
		assert.Contains(t, sql, "(data -> $1) = 'false'::jsonb")
	})

	t.Run("numeric comparison casts to numeric", func(t *testing.T) {
		sql, args := buildQuery(t, map[string]Filter{
			"age": {Operator: OpGreaterThanOrEqual, Value: float64(18)},
		})
		assert.Contains(t, sql, "(data ->> $1)::numeric >= $2")
		assert.Equal(t, []any{"age", float64(18)}, args)
	})

	t.Run("numeric string is accepted", func(t *testing.T) {
		_, args := buildQuery(t, map[string]Filter{
			"age": {Operator: OpLessThan, Value: "21"},
		})
		assert.Equal(t, []any{"age", float64(21)}, args)
	})
}

func TestApply_SkippedFiltersProduceNoConstraints(t *testing.T) {
	sql, args := buildQuery(t, map[string]Filter{
		"name":   {Operator: OpContains, Value: ""},
		"email":  {Operator: OpContains, Value: nil},
		"active": {Operator: OpEquals, Value: false},
	})
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)
}

func TestApply_Errors(t *testing.T) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*").From("form_responses")

	t.Run("unsupported operator", func(t *testing.T) {
		err := Apply(sb, map[string]Filter{"x": {Operator: "matches", Value: "v"}})
		require.Error(t, err)
	})

	t.Run("non-numeric value for comparison", func(t *testing.T) {
		err := Apply(sb, map[string]Filter{"x": {Operator: OpGreaterThan, Value: "abc"}})
		require.Error(t, err)
	})
}

func TestPageRange(t *testing.T) {
	tests := []struct {
		page, size, from, to int
	}{
		{1, 10, 0, 9},
		{2, 10, 10, 19},
		{3, 10, 20, 29},
		{1, 25, 0, 24},
	}
	for _, tt := range tests {
		from, to := PageRange(tt.page, tt.size)
		assert.Equal(t, tt.from, from)
		assert.Equal(t, tt.to, to)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
}

func TestRequest_Normalize(t *testing.T) {
	r := Request{Page: 0, PageSize: 0}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, DefaultPageSize, r.PageSize)

	r = Request{Page: 2, PageSize: 500}
	r.Normalize()
	assert.Equal(t, 2, r.Page)
	assert.Equal(t, MaxPageSize, r.PageSize)
}

func TestOperator_IsValid(t *testing.T) {
	assert.True(t, OpContains.IsValid())
	assert.True(t, OpLessThanOrEqual.IsValid())
	assert.False(t, Operator("matches").IsValid())
	assert.False(t, Operator("").IsValid())
}
