// Package relation resolves relation-typed fields to human-readable display
// labels. A relation field stores the id of a response in another form;
// resolving it means fetching that form's schema and responses and mapping
// each response id to a display string.
package relation

import (
	"context"
	"fmt"
	"strings"

	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/schema"
	"github.com/devmahmoudi/formgen/pkg/tracing"
)

// MaxLabelLength bounds display labels; longer values are truncated with an
// ellipsis.
const MaxLabelLength = 50

// FormSource fetches a form by id. A nil form with a nil error means the
// form does not exist.
type FormSource interface {
	GetByID(ctx context.Context, id string) (*models.Form, error)
}

// ResponseSource fetches every response of a form.
type ResponseSource interface {
	ListByForm(ctx context.Context, formID string) ([]models.Response, error)
}

// Resolution holds the resolved labels for one relation field's target form.
type Resolution struct {
	FieldID string            `json:"field_id"`
	FormID  string            `json:"form_id"`
	Valid   bool              `json:"valid"`
	Error   string            `json:"error,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`
}

// Resolver batches label resolution per distinct target form.
type Resolver struct {
	forms     FormSource
	responses ResponseSource
}

func NewResolver(forms FormSource, responses ResponseSource) *Resolver {
	return &Resolver{forms: forms, responses: responses}
}

// Resolve builds a response-id -> label mapping for every relation field in
// the given field list. Fields pointing at the same form share one fetch.
// A missing target form marks the resolution invalid with a "Form not found"
// error; per-form fetch failures degrade that field's resolution without
// failing the others.
func (r *Resolver) Resolve(ctx context.Context, fields []models.FormField) ([]Resolution, error) {
	ctx, span := tracing.StartSpan(ctx, "relation.Resolve")
	defer span.End()

	type target struct {
		labels map[string]string
		valid  bool
		errMsg string
	}
	targets := map[string]*target{}

	var out []Resolution
	for _, field := range fields {
		if field.Type != models.FieldTypeRelation || field.RelationConfig == nil || field.RelationConfig.FormID == "" {
			continue
		}
		formID := field.RelationConfig.FormID

		tgt, seen := targets[formID]
		if !seen {
			tgt = &target{}
			labels, err := r.resolveForm(ctx, formID, field.RelationConfig.DisplayField)
			switch {
			case err == errFormNotFound:
				tgt.errMsg = "Form not found"
			case err != nil:
				tgt.errMsg = err.Error()
			default:
				tgt.labels = labels
				tgt.valid = true
			}
			targets[formID] = tgt
		}

		out = append(out, Resolution{
			FieldID: field.ID,
			FormID:  formID,
			Valid:   tgt.valid,
			Error:   tgt.errMsg,
			Labels:  tgt.labels,
		})
	}
	return out, nil
}

// Label resolves a single stored relation value against a resolution set.
// Unresolvable values fall back to a synthetic "Response <id>" label.
func Label(resolutions []Resolution, fieldID string, value any) string {
	id, ok := value.(string)
	if !ok || id == "" {
		return ""
	}
	for _, res := range resolutions {
		if res.FieldID != fieldID {
			continue
		}
		if !res.Valid {
			return "Form not found"
		}
		if label, ok := res.Labels[id]; ok {
			return label
		}
	}
	return syntheticLabel(id)
}

var errFormNotFound = fmt.Errorf("form not found")

func (r *Resolver) resolveForm(ctx context.Context, formID, displayField string) (map[string]string, error) {
	form, err := r.forms.GetByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, errFormNotFound
	}

	targetSchema, _ := schema.DecodeLenient(form.Schema)

	responses, err := r.responses.ListByForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	labels := make(map[string]string, len(responses))
	for _, resp := range responses {
		labels[resp.ID] = displayLabel(targetSchema, resp, displayField)
	}
	return labels, nil
}

// displayLabel applies the ordered fallback chain: configured display field,
// then the first textual field with a value, then a synthetic label.
func displayLabel(s schema.Schema, resp models.Response, displayField string) string {
	if displayField != "" {
		if v := stringField(resp.Data, displayField); v != "" {
			return truncate(v)
		}
	}
	for _, field := range s.Fields {
		if !field.Type.IsTextual() {
			continue
		}
		if v := stringField(resp.Data, field.ID); v != "" {
			return truncate(v)
		}
	}
	return syntheticLabel(resp.ID)
}

func stringField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(s)
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxLabelLength {
		return s
	}
	return string(runes[:MaxLabelLength]) + "..."
}

func syntheticLabel(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "Response " + id
}
