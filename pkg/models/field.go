package models

// FieldType enumerates the field kinds a form schema can declare.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDate     FieldType = "date"
	FieldTypeRelation FieldType = "relation"
)

// IsChoice reports whether the field stores one of a fixed set of values.
func (t FieldType) IsChoice() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio || t == FieldTypeRelation
}

// IsTextual reports whether the field stores free text.
func (t FieldType) IsTextual() bool {
	return t == FieldTypeText || t == FieldTypeEmail || t == FieldTypeTextarea
}

// IsValid reports whether t is one of the supported field types.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypeNumber, FieldTypeTextarea,
		FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox, FieldTypeDate,
		FieldTypeRelation:
		return true
	}
	return false
}

// RelationConfig points a relation field at another form. The stored value of
// a relation field is always the related response's id; DisplayField names the
// target form's field shown to the user in place of the raw id.
type RelationConfig struct {
	FormID       string `json:"formId"`
	FormTitle    string `json:"formTitle,omitempty"`
	DisplayField string `json:"displayField,omitempty"`
	ValueField   string `json:"valueField,omitempty"`
}

// FormField is a single entry in a form schema. ID is the key into response
// data and must be unique within the owning form.
type FormField struct {
	ID             string          `json:"id"`
	Type           FieldType       `json:"type"`
	Label          string          `json:"label"`
	Required       bool            `json:"required"`
	Placeholder    string          `json:"placeholder,omitempty"`
	Options        []string        `json:"options,omitempty"`
	RelationConfig *RelationConfig `json:"relationConfig,omitempty"`
}
