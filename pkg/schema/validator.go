package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/devmahmoudi/formgen/pkg/models"
)

// ValidationResult represents the result of validating response data against
// a form schema. Errors maps field id to a human-readable message; an absent
// key means the field is valid.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateResponse checks submitted data against the schema's field rules.
// Every field is checked; validation never stops at the first error.
func ValidateResponse(s Schema, data map[string]any) ValidationResult {
	result := ValidationResult{Valid: true, Errors: map[string]string{}}

	for _, field := range s.Fields {
		value, exists := data[field.ID]

		if field.Required && isEmpty(field, value, exists) {
			result.Errors[field.ID] = requiredMessage(field)
			continue
		}

		if !exists || value == nil {
			continue
		}

		switch field.Type {
		case models.FieldTypeEmail:
			str, ok := value.(string)
			if ok && strings.TrimSpace(str) != "" && !emailRegex.MatchString(str) {
				result.Errors[field.ID] = fmt.Sprintf("%s must be a valid email address", field.Label)
			}
		case models.FieldTypeNumber:
			if !isNumeric(value) {
				result.Errors[field.ID] = fmt.Sprintf("%s must be a number", field.Label)
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateForm checks a schema at authoring time. Violations block saving the
// form rather than submitting responses.
func ValidateForm(title string, s Schema) ValidationResult {
	result := ValidationResult{Valid: true, Errors: map[string]string{}}

	if strings.TrimSpace(title) == "" {
		result.Errors["title"] = "title is required"
	}

	seen := map[string]bool{}
	for _, field := range s.Fields {
		if field.ID == "" {
			result.Errors["fields"] = "every field must have an id"
			continue
		}
		if seen[field.ID] {
			result.Errors[field.ID] = "field id is not unique"
			continue
		}
		seen[field.ID] = true

		if !field.Type.IsValid() {
			result.Errors[field.ID] = fmt.Sprintf("unknown field type %q", field.Type)
			continue
		}

		switch field.Type {
		case models.FieldTypeSelect, models.FieldTypeRadio:
			if len(field.Options) == 0 {
				result.Errors[field.ID] = fmt.Sprintf("%s must have at least one option", labelOrID(field))
			}
		case models.FieldTypeRelation:
			if field.RelationConfig == nil || field.RelationConfig.FormID == "" {
				result.Errors[field.ID] = fmt.Sprintf("%s must reference a form", labelOrID(field))
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// isEmpty reports whether a value counts as missing for a required field.
// Whitespace-only strings are empty; checkboxes are empty unless true.
func isEmpty(field models.FormField, value any, exists bool) bool {
	if !exists || value == nil {
		return true
	}

	if field.Type == models.FieldTypeCheckbox {
		checked, ok := value.(bool)
		return !ok || !checked
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	}
	return false
}

func requiredMessage(field models.FormField) string {
	if field.Type == models.FieldTypeSelect || field.Type == models.FieldTypeRadio {
		return fmt.Sprintf("Please select a value for %s", labelOrID(field))
	}
	return fmt.Sprintf("%s is required", labelOrID(field))
}

func labelOrID(field models.FormField) string {
	if field.Label != "" {
		return field.Label
	}
	return field.ID
}

func isNumeric(value any) bool {
	switch v := value.(type) {
	case float64, float32, int, int32, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil
	}
	return false
}
