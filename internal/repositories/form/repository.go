package form

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/devmahmoudi/formgen/pkg/database"
	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/tracing"
)

// FormRepository defines the interface for form operations
type FormRepository interface {
	Create(ctx context.Context, req models.CreateFormRequest) (*models.Form, error)
	GetByID(ctx context.Context, id string) (*models.Form, error)
	List(ctx context.Context, page, pageSize int) ([]models.Form, int, error)
	Update(ctx context.Context, id string, req models.UpdateFormRequest) (*models.Form, error)
	Delete(ctx context.Context, id string) error
}

// Repository implements FormRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new form repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "forms"

var columns = []string{"id", "title", "description", "schema", "version", "created_at", "updated_at"}

// Create creates a new form
func (r *Repository) Create(ctx context.Context, req models.CreateFormRequest) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "title", "description", "schema", "version", "created_at", "updated_at")
	sb.Values(id, req.Title, req.Description, []byte(req.Schema), 1, now, now)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create form")
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":    id,
		"title": req.Title,
	}).Info("created form")

	return r.GetByID(ctx, id)
}

// GetByID gets a form by ID. Returns nil, nil when the form does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var form models.Form
	err := r.db.GetContext(ctx, &form, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get form by ID")
		return nil, fmt.Errorf("failed to get form: %w", err)
	}

	return &form, nil
}

// List lists forms with pagination, newest first
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.Form, int, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count forms")
		return nil, 0, fmt.Errorf("failed to count forms: %w", err)
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.Form
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list forms")
		return nil, 0, fmt.Errorf("failed to list forms: %w", err)
	}

	return items, totalCount, nil
}

// Update updates a form. A schema change increments the version. Returns
// nil, nil when the form does not exist.
func (r *Repository) Update(ctx context.Context, id string, req models.UpdateFormRequest) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.Update")
	defer span.End()

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	sb := database.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("updated_at", time.Now()))

	if req.Title != nil {
		sb.SetMore(sb.Assign("title", *req.Title))
	}
	if req.Description != nil {
		sb.SetMore(sb.Assign("description", *req.Description))
	}
	if req.Schema != nil {
		// Schema update increments version
		sb.SetMore(
			sb.Assign("schema", []byte(*req.Schema)),
			sb.Assign("version", existing.Version+1),
		)
	}

	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update form")
		return nil, fmt.Errorf("failed to update form: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("updated form")

	return r.GetByID(ctx, id)
}

// Delete hard deletes a form and, via the cascade, its responses. Deleting
// a missing id is a no-op success.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.Delete")
	defer span.End()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete form")
		return fmt.Errorf("failed to delete form: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted form")

	return nil
}
