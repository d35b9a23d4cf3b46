package formresponse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/devmahmoudi/formgen/pkg/database"
	"github.com/devmahmoudi/formgen/pkg/filter"
	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/tracing"
)

// ResponseRepository defines the interface for form response operations
type ResponseRepository interface {
	Create(ctx context.Context, formID string, data map[string]any) (*models.Response, error)
	GetByID(ctx context.Context, formID, id string) (*models.Response, error)
	ListByForm(ctx context.Context, formID string) ([]models.Response, error)
	Search(ctx context.Context, formID string, req filter.Request) (*models.ResponsePage, error)
	Update(ctx context.Context, formID, id string, data map[string]any) (*models.Response, error)
	Delete(ctx context.Context, formID, id string) error
}

// Repository implements ResponseRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new form response repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "form_responses"

var columns = []string{"id", "form_id", "data", "created_at", "updated_at"}

// row is the database shape of a response; data scans through the generic
// jsonb wrapper.
type row struct {
	ID        string                         `db:"id"`
	FormID    string                         `db:"form_id"`
	Data      database.JSONB[map[string]any] `db:"data"`
	CreatedAt time.Time                      `db:"created_at"`
	UpdatedAt time.Time                      `db:"updated_at"`
}

func (r row) toModel() models.Response {
	return models.Response{
		ID:        r.ID,
		FormID:    r.FormID,
		Data:      r.Data.GetValue(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Create inserts a new response for a form
func (r *Repository) Create(ctx context.Context, formID string, data map[string]any) (*models.Response, error) {
	ctx, span := tracing.StartSpan(ctx, "ResponseRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "form_id", "data", "created_at", "updated_at")
	sb.Values(id, formID, database.JSONB[map[string]any]{Data: data}, now, now)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create response")
		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      id,
		"form_id": formID,
	}).Info("created response")

	return r.GetByID(ctx, formID, id)
}

// GetByID gets a response by ID scoped to its owning form. A response whose
// form_id does not match is treated as missing. Returns nil, nil when not
// found.
func (r *Repository) GetByID(ctx context.Context, formID, id string) (*models.Response, error) {
	ctx, span := tracing.StartSpan(ctx, "ResponseRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("form_id", formID),
	)

	query, args := sb.Build()

	var rec row
	err := r.db.GetContext(ctx, &rec, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get response by ID")
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	resp := rec.toModel()
	return &resp, nil
}

// ListByForm returns every response of a form, newest first
func (r *Repository) ListByForm(ctx context.Context, formID string) ([]models.Response, error) {
	ctx, span := tracing.StartSpan(ctx, "ResponseRepository.ListByForm")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("form_id", formID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()

	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list responses")
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	out := make([]models.Response, len(rows))
	for i, rec := range rows {
		out[i] = rec.toModel()
	}
	return out, nil
}

// Search returns a filtered, paginated page of a form's responses, newest
// first. The total count uses the same constraint set as the page query.
func (r *Repository) Search(ctx context.Context, formID string, req filter.Request) (*models.ResponsePage, error) {
	ctx, span := tracing.StartSpan(ctx, "ResponseRepository.Search")
	defer span.End()

	req.Normalize()

	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	countSb.Where(countSb.Equal("form_id", formID))
	if err := filter.Apply(countSb, req.Filters); err != nil {
		return nil, fmt.Errorf("failed to build response filters: %w", err)
	}
	countQuery, countArgs := countSb.Build()

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count responses")
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}

	from, _ := filter.PageRange(req.Page, req.PageSize)

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("form_id", formID))
	if err := filter.Apply(sb, req.Filters); err != nil {
		return nil, fmt.Errorf("failed to build response filters: %w", err)
	}
	sb.OrderBy("created_at DESC")
	sb.Limit(req.PageSize)
	sb.Offset(from)

	query, args := sb.Build()

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to search responses")
		return nil, fmt.Errorf("failed to search responses: %w", err)
	}

	items := make([]models.Response, len(rows))
	for i, rec := range rows {
		items[i] = rec.toModel()
	}

	return &models.ResponsePage{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: filter.TotalPages(total, req.PageSize),
	}, nil
}

// Update replaces a response's data. Returns nil, nil when the response is
// missing or owned by another form.
func (r *Repository) Update(ctx context.Context, formID, id string, data map[string]any) (*models.Response, error) {
	ctx, span := tracing.StartSpan(ctx, "ResponseRepository.Update")
	defer span.End()

	sb := database.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("data", database.JSONB[map[string]any]{Data: data}),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("form_id", formID),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update response")
		return nil, fmt.Errorf("failed to update response: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, formID, id)
}

// Delete hard deletes a response. Deleting a missing id is a no-op success.
func (r *Repository) Delete(ctx context.Context, formID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "ResponseRepository.Delete")
	defer span.End()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("form_id", formID),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete response")
		return fmt.Errorf("failed to delete response: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"form_id":       formID,
		"rows_affected": rowsAffected,
	}).Info("deleted response")

	return nil
}
