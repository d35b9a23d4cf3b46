package response

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	formrepo "github.com/devmahmoudi/formgen/internal/repositories/form"
	responserepo "github.com/devmahmoudi/formgen/internal/repositories/formresponse"
	"github.com/devmahmoudi/formgen/pkg/events"
	"github.com/devmahmoudi/formgen/pkg/export"
	"github.com/devmahmoudi/formgen/pkg/filter"
	"github.com/devmahmoudi/formgen/pkg/metrics"
	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/relation"
	"github.com/devmahmoudi/formgen/pkg/schema"
	"github.com/devmahmoudi/formgen/pkg/tracing"
)

var validate = validator.New()

// Register registers response routes under a form group
func Register(g *echo.Group) {
	g.POST("/:id/responses", Submit)
	g.POST("/:id/responses/search", Search)
	g.GET("/:id/responses/export", ExportCSV)
	g.GET("/:id/responses/:responseID", Get)
	g.PUT("/:id/responses/:responseID", Update)
	g.DELETE("/:id/responses/:responseID", Delete)
}

// getForm fetches the owning form or fails with not-found.
func getForm(ctx echo.Context, formID string) (*models.Form, error) {
	reqCtx := ctx.Request().Context()
	reqCtx, repo, err := ectoinject.GetContext[formrepo.FormRepository](reqCtx)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}
	form, err := repo.GetByID(reqCtx, formID)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get form")
	}
	if form == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "form not found")
	}
	return form, nil
}

func validationError(result schema.ValidationResult) error {
	herr := httperror.ToHTTPError(httperror.NewHTTPError(http.StatusBadRequest, "validation failed"))
	herr.Meta = map[string]any{"errors": result.Errors}
	return herr
}

// Submit validates and stores a new response for a form
func Submit(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "response_handler.Submit")
	defer span.End()

	formID := c.Param("id")

	var req models.SubmitResponseRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	form, err := getForm(c, formID)
	if err != nil {
		return err
	}

	formSchema, _ := schema.DecodeLenient(form.Schema)
	if result := schema.ValidateResponse(formSchema, req.Data); !result.Valid {
		metrics.ValidationFailuresTotal.Inc()
		metrics.ResponseSubmissionsTotal.WithLabelValues("invalid").Inc()
		return validationError(result)
	}

	ctx, repo, err := ectoinject.GetContext[responserepo.ResponseRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Create(ctx, formID, req.Data)
	if err != nil {
		metrics.ResponseSubmissionsTotal.WithLabelValues("error").Inc()
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to submit response")
	}
	metrics.ResponseSubmissionsTotal.WithLabelValues("ok").Inc()

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		_ = emitter.EmitResponseSubmitted(ctx, result)
	}

	return c.JSON(http.StatusCreated, result)
}

// Search returns a filtered, paginated page of a form's responses
func Search(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "response_handler.Search")
	defer span.End()

	formID := c.Param("id")

	var req filter.Request
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	for fieldID, f := range req.Filters {
		if f.Operator != "" && !f.Operator.IsValid() {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported operator %q for field %q", f.Operator, fieldID)
		}
	}

	form, err := getForm(c, formID)
	if err != nil {
		return err
	}

	// Fill in implicit operators from the schema's field types.
	formSchema, _ := schema.DecodeLenient(form.Schema)
	for fieldID, f := range req.Filters {
		if f.Operator != "" {
			continue
		}
		fieldType := models.FieldTypeText
		if field := formSchema.Field(fieldID); field != nil {
			fieldType = field.Type
		}
		f.Operator = filter.DefaultOperator(fieldType, f.Value)
		req.Filters[fieldID] = f
	}

	ctx, repo, err := ectoinject.GetContext[responserepo.ResponseRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	start := time.Now()
	page, err := repo.Search(ctx, formID, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to search responses")
	}
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, page)
}

// Get returns a single response scoped to its form
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "response_handler.Get")
	defer span.End()

	formID := c.Param("id")
	responseID := c.Param("responseID")

	ctx, repo, err := ectoinject.GetContext[responserepo.ResponseRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.GetByID(ctx, formID, responseID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get response")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "response not found")
	}

	return c.JSON(http.StatusOK, result)
}

// Update validates and replaces a response's data
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "response_handler.Update")
	defer span.End()

	formID := c.Param("id")
	responseID := c.Param("responseID")

	var req models.UpdateResponseRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	form, err := getForm(c, formID)
	if err != nil {
		return err
	}

	formSchema, _ := schema.DecodeLenient(form.Schema)
	if result := schema.ValidateResponse(formSchema, req.Data); !result.Valid {
		metrics.ValidationFailuresTotal.Inc()
		return validationError(result)
	}

	ctx, repo, err := ectoinject.GetContext[responserepo.ResponseRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Update(ctx, formID, responseID, req.Data)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update response")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "response not found")
	}

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		_ = emitter.EmitResponseUpdated(ctx, result)
	}

	return c.JSON(http.StatusOK, result)
}

// Delete hard deletes a response. Deleting a missing response is a no-op
// success.
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "response_handler.Delete")
	defer span.End()

	formID := c.Param("id")
	responseID := c.Param("responseID")

	ctx, repo, err := ectoinject.GetContext[responserepo.ResponseRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, formID, responseID); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete response")
	}

	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		_ = emitter.EmitResponseDeleted(ctx, formID, responseID)
	}

	return c.NoContent(http.StatusNoContent)
}

// ExportCSV streams every response of a form as a CSV download
func ExportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "response_handler.ExportCSV")
	defer span.End()

	formID := c.Param("id")

	form, err := getForm(c, formID)
	if err != nil {
		metrics.CSVExportsTotal.WithLabelValues("error").Inc()
		return err
	}
	formSchema, _ := schema.DecodeLenient(form.Schema)

	ctx, repo, err := ectoinject.GetContext[responserepo.ResponseRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	responses, err := repo.ListByForm(ctx, formID)
	if err != nil {
		metrics.CSVExportsTotal.WithLabelValues("error").Inc()
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list responses")
	}

	// Resolve relation labels so exported cells show display values.
	var resolutions []relation.Resolution
	if ctx, resolver, err := ectoinject.GetContext[*relation.Resolver](ctx); err == nil {
		resolutions, _ = resolver.Resolve(ctx, formSchema.RelationFields())
	}

	filename := export.Filename(form.Title, time.Now())
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)

	if err := export.WriteCSV(c.Response(), formSchema, responses, resolutions); err != nil {
		metrics.CSVExportsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.CSVExportsTotal.WithLabelValues("ok").Inc()
	return nil
}
