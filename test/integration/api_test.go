package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmahmoudi/formgen/pkg/filter"
	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/schema"
)

func TestCreateFormRequest_Shape(t *testing.T) {
	t.Run("valid request round-trips", func(t *testing.T) {
		body := map[string]any{
			"title":       "Contact",
			"description": "Reach out",
			"schema": map[string]any{
				"fields": []map[string]any{
					{"id": "name", "type": "text", "label": "Name", "required": true},
					{"id": "email", "type": "email", "label": "Email"},
				},
			},
		}

		data, err := json.Marshal(body)
		require.NoError(t, err)

		var req models.CreateFormRequest
		require.NoError(t, json.Unmarshal(data, &req))
		assert.Equal(t, "Contact", req.Title)

		parsed, err := schema.Decode(req.Schema)
		require.NoError(t, err)
		require.Len(t, parsed.Fields, 2)
		assert.Equal(t, models.FieldTypeText, parsed.Fields[0].Type)
		assert.True(t, parsed.Fields[0].Required)
	})

	t.Run("relation config round-trips camelCase", func(t *testing.T) {
		raw := []byte(`{
			"fields": [{
				"id": "owner",
				"type": "relation",
				"label": "Owner",
				"relationConfig": {
					"formId": "people",
					"formTitle": "People",
					"displayField": "name",
					"valueField": "id"
				}
			}]
		}`)

		parsed, err := schema.Decode(raw)
		require.NoError(t, err)
		require.Len(t, parsed.Fields, 1)
		require.NotNil(t, parsed.Fields[0].RelationConfig)
		assert.Equal(t, "people", parsed.Fields[0].RelationConfig.FormID)
		assert.Equal(t, "name", parsed.Fields[0].RelationConfig.DisplayField)
	})
}

func TestSearchRequest_Shape(t *testing.T) {
	raw := []byte(`{
		"filters": {
			"name": {"operator": "contains", "value": "ali"},
			"age": {"operator": "greaterThan", "value": 18},
			"active": {"operator": "isFalse", "value": false}
		},
		"page": 2,
		"page_size": 25
	}`)

	var req filter.Request
	require.NoError(t, json.Unmarshal(raw, &req))

	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 25, req.PageSize)
	require.Len(t, req.Filters, 3)
	assert.Equal(t, filter.OpContains, req.Filters["name"].Operator)
	assert.Equal(t, float64(18), req.Filters["age"].Value)
	assert.False(t, filter.Skip(req.Filters["active"]))
}

func TestResponsePage_Shape(t *testing.T) {
	page := models.ResponsePage{
		Data: []models.Response{
			{ID: "r1", FormID: "f1", Data: map[string]any{"name": "Alice"}},
		},
		Total:      25,
		Page:       3,
		PageSize:   10,
		TotalPages: filter.TotalPages(25, 10),
	}

	data, err := json.Marshal(page)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(25), decoded["total"])
	assert.Equal(t, float64(3), decoded["total_pages"])
	assert.Equal(t, float64(10), decoded["page_size"])
}

func TestSubmitFlow_ValidationGate(t *testing.T) {
	// A submission must pass schema validation before it would be persisted.
	raw := []byte(`{"fields": [
		{"id": "name", "type": "text", "label": "Name", "required": true},
		{"id": "email", "type": "email", "label": "Email"}
	]}`)
	formSchema, ok := schema.DecodeLenient(raw)
	require.True(t, ok)

	t.Run("invalid submission is rejected with a per-field map", func(t *testing.T) {
		result := schema.ValidateResponse(formSchema, map[string]any{"email": "nope"})
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 2)
		assert.Contains(t, result.Errors, "name")
		assert.Contains(t, result.Errors, "email")
	})

	t.Run("valid submission passes", func(t *testing.T) {
		result := schema.ValidateResponse(formSchema, map[string]any{
			"name":  "Alice",
			"email": "alice@example.com",
		})
		assert.True(t, result.Valid)
	})
}
