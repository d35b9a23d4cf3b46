package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmahmoudi/formgen/pkg/models"
)

func TestDecode_NativeJSON(t *testing.T) {
	raw := []byte(`{"fields": [{"id": "name", "type": "text", "label": "Name", "required": true}]}`)

	s, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, "name", s.Fields[0].ID)
	assert.Equal(t, models.FieldTypeText, s.Fields[0].Type)
	assert.True(t, s.Fields[0].Required)
}

func TestDecode_StringEncoded(t *testing.T) {
	inner := `{"fields": [{"id": "email", "type": "email", "label": "Email"}]}`
	raw, err := json.Marshal(inner)
	require.NoError(t, err)

	s, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, models.FieldTypeEmail, s.Fields[0].Type)
}

func TestDecode_Empty(t *testing.T) {
	s, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Fields)
}

func TestDecodeLenient_Malformed(t *testing.T) {
	s, ok := DecodeLenient([]byte(`{"fields": [{`))
	assert.False(t, ok)
	assert.NotNil(t, s.Fields)
	assert.Empty(t, s.Fields)
}

func TestDecodeLenient_NilFields(t *testing.T) {
	s, ok := DecodeLenient([]byte(`{"title": "Sparse"}`))
	assert.True(t, ok)
	assert.NotNil(t, s.Fields)
}

func TestEncode_RoundTrip(t *testing.T) {
	s := Schema{
		Fields: []models.FormField{
			{ID: "color", Type: models.FieldTypeSelect, Label: "Color", Options: []string{"red", "blue"}},
			{ID: "name", Type: models.FieldTypeText, Label: "Name", Required: true, Placeholder: "Your name"},
			{ID: "owner", Type: models.FieldTypeRelation, Label: "Owner", RelationConfig: &models.RelationConfig{
				FormID:       "people",
				FormTitle:    "People",
				DisplayField: "name",
				ValueField:   "id",
			}},
		},
	}

	raw, err := s.Encode()
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, s.Fields, decoded.Fields)
}

func TestEncode_NilFieldsBecomesEmptyArray(t *testing.T) {
	raw, err := Schema{}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields": []}`, string(raw))
}

func TestSchema_Field(t *testing.T) {
	s := Schema{Fields: []models.FormField{
		{ID: "a", Type: models.FieldTypeText},
		{ID: "b", Type: models.FieldTypeNumber},
	}}

	require.NotNil(t, s.Field("b"))
	assert.Equal(t, models.FieldTypeNumber, s.Field("b").Type)
	assert.Nil(t, s.Field("missing"))
}

func TestSchema_RelationFields(t *testing.T) {
	s := Schema{Fields: []models.FormField{
		{ID: "name", Type: models.FieldTypeText},
		{ID: "owner", Type: models.FieldTypeRelation, RelationConfig: &models.RelationConfig{FormID: "f1", DisplayField: "name"}},
		{ID: "broken", Type: models.FieldTypeRelation},
	}}

	rels := s.RelationFields()
	require.Len(t, rels, 1)
	assert.Equal(t, "owner", rels[0].ID)
}
