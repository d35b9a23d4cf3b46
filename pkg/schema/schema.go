// Package schema parses, serializes and validates form schemas. A schema is
// the ordered field list stored on a form's jsonb column. Historical write
// paths stored it either as native JSON or as a JSON-encoded string, so the
// decoder accepts both.
package schema

import (
	"bytes"
	"encoding/json"

	"github.com/devmahmoudi/formgen/pkg/models"
)

// Schema is the decoded shape of a form's stored schema. Title and
// Description are redundant copies some writers include alongside the form
// columns; Fields is the authoritative part.
type Schema struct {
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Fields      []models.FormField `json:"fields"`
}

// Decode parses a stored schema value. The value may be a JSON object or a
// JSON string containing an encoded object.
func Decode(raw []byte) (Schema, error) {
	var s Schema

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return s, nil
	}

	// String storage: unwrap the inner document first.
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return Schema{}, err
		}
		trimmed = []byte(inner)
	}

	if err := json.Unmarshal(trimmed, &s); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// DecodeLenient parses a stored schema value, substituting an empty field
// list when the value is malformed so callers can still render a "no fields"
// state. The ok result is false when the fallback was taken.
func DecodeLenient(raw []byte) (s Schema, ok bool) {
	s, err := Decode(raw)
	if err != nil {
		return Schema{Fields: []models.FormField{}}, false
	}
	if s.Fields == nil {
		s.Fields = []models.FormField{}
	}
	return s, true
}

// Encode serializes a schema for storage as native JSON.
func (s Schema) Encode() (json.RawMessage, error) {
	if s.Fields == nil {
		s.Fields = []models.FormField{}
	}
	return json.Marshal(s)
}

// Field returns the field with the given id, or nil.
func (s Schema) Field(id string) *models.FormField {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

// RelationFields returns the fields of type relation that have a target form
// configured.
func (s Schema) RelationFields() []models.FormField {
	var out []models.FormField
	for _, f := range s.Fields {
		if f.Type == models.FieldTypeRelation && f.RelationConfig != nil && f.RelationConfig.FormID != "" {
			out = append(out, f)
		}
	}
	return out
}
