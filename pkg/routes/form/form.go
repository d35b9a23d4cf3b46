package form

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	formrepo "github.com/devmahmoudi/formgen/internal/repositories/form"
	"github.com/devmahmoudi/formgen/pkg/events"
	"github.com/devmahmoudi/formgen/pkg/metrics"
	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/schema"
	"github.com/devmahmoudi/formgen/pkg/tracing"
)

var validate = validator.New()

// Register registers form routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
	g.GET("/:id", Get)
	g.PUT("/:id", Update)
	g.DELETE("/:id", Delete)
}

// validationError renders a save-blocking validation result as a 400 with
// the per-field error map in the error meta.
func validationError(result schema.ValidationResult) error {
	herr := httperror.ToHTTPError(httperror.NewHTTPError(http.StatusBadRequest, "validation failed"))
	herr.Meta = map[string]any{"errors": result.Errors}
	return herr
}

// List returns forms with pagination, newest first
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "form_handler.List")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	ctx, repo, err := ectoinject.GetContext[formrepo.FormRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, totalCount, err := repo.List(ctx, page, pageSize)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list forms")
	}

	return c.JSON(http.StatusOK, models.FormListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Create creates a new form after authoring validation
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "form_handler.Create")
	defer span.End()

	var req models.CreateFormRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	parsed, err := schema.Decode(req.Schema)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "schema is not valid JSON")
	}
	if result := schema.ValidateForm(req.Title, parsed); !result.Valid {
		metrics.FormWritesTotal.WithLabelValues("create", "invalid").Inc()
		return validationError(result)
	}

	ctx, repo, err := ectoinject.GetContext[formrepo.FormRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Create(ctx, req)
	if err != nil {
		metrics.FormWritesTotal.WithLabelValues("create", "error").Inc()
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create form")
	}
	metrics.FormWritesTotal.WithLabelValues("create", "ok").Inc()

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		_ = emitter.EmitFormCreated(ctx, result)
	}

	return c.JSON(http.StatusCreated, result)
}

// Get returns a single form by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "form_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[formrepo.FormRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get form")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "form not found")
	}

	return c.JSON(http.StatusOK, result)
}

// Update updates a form. A schema change is validated and bumps the version.
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "form_handler.Update")
	defer span.End()

	id := c.Param("id")

	var req models.UpdateFormRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Schema != nil {
		parsed, err := schema.Decode(*req.Schema)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "schema is not valid JSON")
		}
		title := ""
		if req.Title != nil {
			title = *req.Title
		}
		result := schema.ValidateForm(title, parsed)
		if req.Title == nil {
			// a schema-only update leaves the stored title untouched
			delete(result.Errors, "title")
		}
		if len(result.Errors) > 0 {
			result.Valid = false
			metrics.FormWritesTotal.WithLabelValues("update", "invalid").Inc()
			return validationError(result)
		}
	} else if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		metrics.FormWritesTotal.WithLabelValues("update", "invalid").Inc()
		return validationError(schema.ValidationResult{
			Errors: map[string]string{"title": "title is required"},
		})
	}

	ctx, repo, err := ectoinject.GetContext[formrepo.FormRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Update(ctx, id, req)
	if err != nil {
		metrics.FormWritesTotal.WithLabelValues("update", "error").Inc()
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update form")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "form not found")
	}
	metrics.FormWritesTotal.WithLabelValues("update", "ok").Inc()

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		_ = emitter.EmitFormUpdated(ctx, result)
	}

	return c.JSON(http.StatusOK, result)
}

// Delete hard deletes a form and its responses. Deleting a missing form is
// a no-op success.
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "form_handler.Delete")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[formrepo.FormRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, id); err != nil {
		metrics.FormWritesTotal.WithLabelValues("delete", "error").Inc()
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete form")
	}
	metrics.FormWritesTotal.WithLabelValues("delete", "ok").Inc()

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		_ = emitter.EmitFormDeleted(ctx, id)
	}

	return c.NoContent(http.StatusNoContent)
}
