package models

import "time"

// Response is a submitted form response. Data maps field id to the submitted
// value; its shape is dictated by the owning form's schema at submission time.
// Keys that no longer appear in the current schema are preserved verbatim.
type Response struct {
	ID        string         `json:"id" db:"id"`
	FormID    string         `json:"form_id" db:"form_id"`
	Data      map[string]any `json:"data" db:"data"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// SubmitResponseRequest is the request body for submitting a response
type SubmitResponseRequest struct {
	Data map[string]any `json:"data" validate:"required"`
}

// UpdateResponseRequest is the request body for updating a response
type UpdateResponseRequest struct {
	Data map[string]any `json:"data" validate:"required"`
}

// ResponsePage is a page of responses plus the totals the caller needs to
// paginate.
type ResponsePage struct {
	Data       []Response `json:"data"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
