package relation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/schema"
)

type fakeForms struct {
	forms map[string]*models.Form
	err   error
	calls int
}

func (f *fakeForms) GetByID(_ context.Context, id string) (*models.Form, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.forms[id], nil
}

type fakeResponses struct {
	responses map[string][]models.Response
	err       error
}

func (f *fakeResponses) ListByForm(_ context.Context, formID string) ([]models.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[formID], nil
}

func formWith(t *testing.T, id string, fields ...models.FormField) *models.Form {
	t.Helper()
	raw, err := schema.Schema{Fields: fields}.Encode()
	require.NoError(t, err)
	return &models.Form{ID: id, Title: "Target", Schema: json.RawMessage(raw)}
}

func relationField(id, formID, displayField string) models.FormField {
	return models.FormField{
		ID:   id,
		Type: models.FieldTypeRelation,
		RelationConfig: &models.RelationConfig{
			FormID:       formID,
			DisplayField: displayField,
		},
	}
}

func TestResolver_DisplayField(t *testing.T) {
	forms := &fakeForms{forms: map[string]*models.Form{
		"people": formWith(t, "people",
			models.FormField{ID: "name", Type: models.FieldTypeText},
		),
	}}
	responses := &fakeResponses{responses: map[string][]models.Response{
		"people": {
			{ID: "r1", FormID: "people", Data: map[string]any{"name": "Alice"}},
			{ID: "r2", FormID: "people", Data: map[string]any{"name": "Bob"}},
		},
	}}

	resolver := NewResolver(forms, responses)
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		relationField("owner", "people", "name"),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Valid)
	assert.Equal(t, "Alice", out[0].Labels["r1"])
	assert.Equal(t, "Bob", out[0].Labels["r2"])
}

func TestResolver_FallbackToFirstTextualField(t *testing.T) {
	forms := &fakeForms{forms: map[string]*models.Form{
		"people": formWith(t, "people",
			models.FormField{ID: "age", Type: models.FieldTypeNumber},
			models.FormField{ID: "name", Type: models.FieldTypeText},
		),
	}}
	responses := &fakeResponses{responses: map[string][]models.Response{
		"people": {{ID: "r1", FormID: "people", Data: map[string]any{"name": "Jane", "age": float64(30)}}},
	}}

	resolver := NewResolver(forms, responses)
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		relationField("owner", "people", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", out[0].Labels["r1"])
}

func TestResolver_SyntheticLabel(t *testing.T) {
	forms := &fakeForms{forms: map[string]*models.Form{
		"things": formWith(t, "things",
			models.FormField{ID: "count", Type: models.FieldTypeNumber},
		),
	}}
	responses := &fakeResponses{responses: map[string][]models.Response{
		"things": {{ID: "abcdef123456", FormID: "things", Data: map[string]any{"count": float64(3)}}},
	}}

	resolver := NewResolver(forms, responses)
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		relationField("thing", "things", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Response abcdef12", out[0].Labels["abcdef123456"])
}

func TestResolver_Truncation(t *testing.T) {
	long := strings.Repeat("x", MaxLabelLength+10)
	forms := &fakeForms{forms: map[string]*models.Form{
		"people": formWith(t, "people",
			models.FormField{ID: "name", Type: models.FieldTypeText},
		),
	}}
	responses := &fakeResponses{responses: map[string][]models.Response{
		"people": {{ID: "r1", FormID: "people", Data: map[string]any{"name": long}}},
	}}

	resolver := NewResolver(forms, responses)
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		relationField("owner", "people", "name"),
	})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", MaxLabelLength)+"...", out[0].Labels["r1"])
}

func TestResolver_TruncationCountsRunes(t *testing.T) {
	long := strings.Repeat("é", MaxLabelLength+10)
	forms := &fakeForms{forms: map[string]*models.Form{
		"people": formWith(t, "people",
			models.FormField{ID: "name", Type: models.FieldTypeText},
		),
	}}
	responses := &fakeResponses{responses: map[string][]models.Response{
		"people": {{ID: "r1", FormID: "people", Data: map[string]any{"name": long}}},
	}}

	resolver := NewResolver(forms, responses)
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		relationField("owner", "people", "name"),
	})
	require.NoError(t, err)
	label := out[0].Labels["r1"]
	assert.Equal(t, strings.Repeat("é", MaxLabelLength)+"...", label)
	assert.True(t, utf8.ValidString(label))
}

func TestResolver_TargetFormMissing(t *testing.T) {
	resolver := NewResolver(&fakeForms{forms: map[string]*models.Form{}}, &fakeResponses{})
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		relationField("owner", "gone", "name"),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].Valid)
	assert.Equal(t, "Form not found", out[0].Error)
	assert.Equal(t, "gone", out[0].FormID)
}

func TestResolver_FetchFailureDegrades(t *testing.T) {
	forms := &fakeForms{forms: map[string]*models.Form{
		"people": formWith(t, "people", models.FormField{ID: "name", Type: models.FieldTypeText}),
	}}
	responses := &fakeResponses{err: errors.New("connection refused")}

	resolver := NewResolver(forms, responses)
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		relationField("owner", "people", "name"),
	})
	require.NoError(t, err)
	assert.False(t, out[0].Valid)
	assert.Contains(t, out[0].Error, "connection refused")
}

func TestResolver_BatchesPerForm(t *testing.T) {
	forms := &fakeForms{forms: map[string]*models.Form{
		"people": formWith(t, "people", models.FormField{ID: "name", Type: models.FieldTypeText}),
	}}
	responses := &fakeResponses{responses: map[string][]models.Response{
		"people": {{ID: "r1", FormID: "people", Data: map[string]any{"name": "Alice"}}},
	}}

	resolver := NewResolver(forms, responses)
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		relationField("owner", "people", "name"),
		relationField("reviewer", "people", "name"),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, forms.calls)
}

func TestResolver_SkipsNonRelationFields(t *testing.T) {
	resolver := NewResolver(&fakeForms{}, &fakeResponses{})
	out, err := resolver.Resolve(context.Background(), []models.FormField{
		{ID: "name", Type: models.FieldTypeText},
		{ID: "broken", Type: models.FieldTypeRelation},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLabel(t *testing.T) {
	resolutions := []Resolution{
		{FieldID: "owner", FormID: "people", Valid: true, Labels: map[string]string{"r1": "Alice"}},
		{FieldID: "lost", FormID: "gone", Valid: false, Error: "Form not found"},
	}

	assert.Equal(t, "Alice", Label(resolutions, "owner", "r1"))
	assert.Equal(t, "Response r2", Label(resolutions, "owner", "r2"))
	assert.Equal(t, "Form not found", Label(resolutions, "lost", "r1"))
	assert.Equal(t, "", Label(resolutions, "owner", nil))
	assert.Equal(t, "", Label(resolutions, "owner", ""))
}

func TestResolver_SelfReferencingLink(t *testing.T) {
	// A form with a text field and a relation field pointing at itself.
	fields := []models.FormField{
		{ID: "name", Type: models.FieldTypeText, Label: "Name", Required: true},
		relationField("link", "f1", "name"),
	}
	form := formWith(t, "f1", fields...)

	forms := &fakeForms{forms: map[string]*models.Form{"f1": form}}
	responses := &fakeResponses{responses: map[string][]models.Response{
		"f1": {
			{ID: "a", FormID: "f1", Data: map[string]any{"name": "Alice"}},
			{ID: "b", FormID: "f1", Data: map[string]any{"name": "Bob", "link": "a"}},
		},
	}}

	resolver := NewResolver(forms, responses)
	out, err := resolver.Resolve(context.Background(), fields)
	require.NoError(t, err)

	assert.Equal(t, "Alice", Label(out, "link", "a"))
}
