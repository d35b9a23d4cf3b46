package models

import (
	"encoding/json"
	"time"
)

// Form is a stored form definition. Schema holds the raw jsonb column value;
// decode it with the schema package, which tolerates both native JSON and
// double-encoded string storage.
type Form struct {
	ID          string          `json:"id" db:"id"`
	Title       string          `json:"title" db:"title" validate:"required"`
	Description string          `json:"description,omitempty" db:"description"`
	Schema      json.RawMessage `json:"schema" db:"schema"`
	Version     int             `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateFormRequest is the request body for creating a form
type CreateFormRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema" validate:"required"`
}

// UpdateFormRequest is the request body for updating a form. Updating the
// schema increments the form's version.
type UpdateFormRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Schema      *json.RawMessage `json:"schema,omitempty"`
}

// FormListResponse is the API response for listing forms
type FormListResponse struct {
	Items      []Form `json:"items"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}
