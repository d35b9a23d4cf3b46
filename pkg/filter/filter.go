// Package filter translates per-field {operator, value} filters into SQL
// constraints against a jsonb data column. Text operators address the column
// with ->> (text extraction); boolean operators and non-string equality
// address it with -> (native JSON). Ordering operators compare numerically:
// the value is extracted as text and cast to numeric so numbers stored as
// JSON strings still participate.
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/devmahmoudi/formgen/pkg/models"
)

// Operator identifies a comparison applied to one field's value.
type Operator string

const (
	OpContains           Operator = "contains"
	OpStartsWith         Operator = "startsWith"
	OpEndsWith           Operator = "endsWith"
	OpEquals             Operator = "equals"
	OpIsTrue             Operator = "isTrue"
	OpIsFalse            Operator = "isFalse"
	OpGreaterThan        Operator = "greaterThan"
	OpLessThan           Operator = "lessThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
)

// Addressing selects how the jsonb column is extracted for comparison.
type Addressing int

const (
	// AddressText compares the text extraction of the value (data ->> key).
	AddressText Addressing = iota
	// AddressNative compares against the JSON value itself: data -> key for
	// booleans and non-string equality, a numeric cast for ordering operators.
	AddressNative
)

// Filter is one field's constraint in a search request.
type Filter struct {
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Request is the body of a filtered, paginated response search.
type Request struct {
	Filters  map[string]Filter `json:"filters"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// IsValid reports whether op is a supported operator.
func (op Operator) IsValid() bool {
	switch op {
	case OpContains, OpStartsWith, OpEndsWith, OpEquals, OpIsTrue, OpIsFalse,
		OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		return true
	}
	return false
}

// AddressingFor classifies the comparison semantics for an operator and
// value. equals switches on the value's type: strings compare as text,
// everything else as native JSON.
func AddressingFor(op Operator, value any) Addressing {
	switch op {
	case OpContains, OpStartsWith, OpEndsWith:
		return AddressText
	case OpEquals:
		if _, ok := value.(string); ok {
			return AddressText
		}
		return AddressNative
	default:
		return AddressNative
	}
}

// Skip reports whether a filter entry should be omitted from the constraint
// set. Empty string and nil skip always; false skips unless the operator is
// isFalse, which keeps checkbox filters tri-state.
func Skip(f Filter) bool {
	switch v := f.Value.(type) {
	case nil:
		return true
	case string:
		if v == "" {
			return true
		}
	case bool:
		if !v && f.Operator != OpIsFalse {
			return true
		}
	}
	return false
}

// DefaultOperator picks the operator the response browser uses when the user
// has not chosen one explicitly.
func DefaultOperator(fieldType models.FieldType, value any) Operator {
	switch fieldType {
	case models.FieldTypeText, models.FieldTypeEmail, models.FieldTypeTextarea:
		return OpContains
	case models.FieldTypeCheckbox:
		if b, ok := value.(bool); ok && !b {
			return OpIsFalse
		}
		return OpIsTrue
	default:
		return OpEquals
	}
}

// Apply adds the non-skipped filter constraints to a select builder. The
// caller is responsible for the form id constraint and ordering. Unknown
// operators and unencodable native values produce an error rather than a
// silent partial query.
func Apply(sb *sqlbuilder.SelectBuilder, filters map[string]Filter) error {
	for fieldID, f := range filters {
		if Skip(f) {
			continue
		}
		cond, err := condition(sb, fieldID, f)
		if err != nil {
			return err
		}
		sb.Where(cond)
	}
	return nil
}

func condition(sb *sqlbuilder.SelectBuilder, fieldID string, f Filter) (string, error) {
	key := sb.Var(fieldID)

	switch f.Operator {
	case OpContains:
		return fmt.Sprintf("(data ->> %s) ILIKE %s", key, sb.Var("%"+escapeLike(stringValue(f.Value))+"%")), nil
	case OpStartsWith:
		return fmt.Sprintf("(data ->> %s) ILIKE %s", key, sb.Var(escapeLike(stringValue(f.Value))+"%")), nil
	case OpEndsWith:
		return fmt.Sprintf("(data ->> %s) ILIKE %s", key, sb.Var("%"+escapeLike(stringValue(f.Value)))), nil
	case OpEquals:
		if s, ok := f.Value.(string); ok {
			return fmt.Sprintf("(data ->> %s) = %s", key, sb.Var(s)), nil
		}
		encoded, err := json.Marshal(f.Value)
		if err != nil {
			return "", fmt.Errorf("encode filter value for %q: %w", fieldID, err)
		}
		return fmt.Sprintf("(data -> %s) = %s::jsonb", key, sb.Var(string(encoded))), nil
	case OpIsTrue:
		return fmt.Sprintf("(data -> %s) = 'true'::jsonb", key), nil
	case OpIsFalse:
		return fmt.Sprintf("(data -> %s) = 'false'::jsonb", key), nil
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		// ->> plus a cast compares both JSON numbers and string-encoded numbers
		num, err := numericValue(f.Value)
		if err != nil {
			return "", fmt.Errorf("filter on %q: %w", fieldID, err)
		}
		return fmt.Sprintf("(data ->> %s)::numeric %s %s", key, comparator(f.Operator), sb.Var(num)), nil
	default:
		return "", fmt.Errorf("unsupported filter operator %q", f.Operator)
	}
}

func comparator(op Operator) string {
	switch op {
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	case OpGreaterThanOrEqual:
		return ">="
	default:
		return "<="
	}
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func numericValue(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("value of type %T is not numeric", v)
}
