package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/relation"
	"github.com/devmahmoudi/formgen/pkg/schema"
)

func TestWriteCSV(t *testing.T) {
	s := schema.Schema{Fields: []models.FormField{
		{ID: "name", Type: models.FieldTypeText, Label: "Name"},
		{ID: "age", Type: models.FieldTypeNumber, Label: "Age"},
		{ID: "subscribed", Type: models.FieldTypeCheckbox, Label: "Subscribed"},
	}}
	submitted := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	responses := []models.Response{
		{ID: "r1", FormID: "f1", Data: map[string]any{"name": "Alice", "age": float64(30), "subscribed": true}, CreatedAt: submitted},
		{ID: "r2", FormID: "f1", Data: map[string]any{"name": "Bob, Jr."}, CreatedAt: submitted},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s, responses, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"Submitted At", "Name", "Age", "Subscribed", "Response ID"}, records[0])
	assert.Equal(t, []string{"2024-03-15 10:30:00", "Alice", "30", "true", "r1"}, records[1])
	assert.Equal(t, []string{"2024-03-15 10:30:00", "Bob, Jr.", "", "", "r2"}, records[2])
}

func TestWriteCSV_QuotingSurvivesRoundTrip(t *testing.T) {
	s := schema.Schema{Fields: []models.FormField{
		{ID: "note", Type: models.FieldTypeTextarea, Label: "Note"},
	}}
	tricky := "line one\nsays \"hi\", twice"
	responses := []models.Response{
		{ID: "r1", FormID: "f1", Data: map[string]any{"note": tricky}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s, responses, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, tricky, records[1][1])
}

func TestWriteCSV_RelationLabels(t *testing.T) {
	s := schema.Schema{Fields: []models.FormField{
		{ID: "owner", Type: models.FieldTypeRelation, Label: "Owner", RelationConfig: &models.RelationConfig{FormID: "people", DisplayField: "name"}},
	}}
	responses := []models.Response{
		{ID: "r1", FormID: "f1", Data: map[string]any{"owner": "p1"}},
	}
	resolutions := []relation.Resolution{
		{FieldID: "owner", FormID: "people", Valid: true, Labels: map[string]string{"p1": "Alice"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s, responses, resolutions))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Alice", records[1][1])
}

func TestWriteCSV_LabelFallsBackToFieldID(t *testing.T) {
	s := schema.Schema{Fields: []models.FormField{
		{ID: "unnamed", Type: models.FieldTypeText},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s, nil, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Submitted At", "unnamed", "Response ID"}, records[0])
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "contact-form-2024-03-15.csv", Filename("Contact Form", now))
	assert.Equal(t, "responses-2024-03-15.csv", Filename("  ", now))
}
