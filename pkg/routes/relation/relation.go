package relation

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	formrepo "github.com/devmahmoudi/formgen/internal/repositories/form"
	"github.com/devmahmoudi/formgen/pkg/metrics"
	"github.com/devmahmoudi/formgen/pkg/relation"
	"github.com/devmahmoudi/formgen/pkg/schema"
	"github.com/devmahmoudi/formgen/pkg/tracing"
)

// Register registers relation routes under a form group
func Register(g *echo.Group) {
	g.GET("/:id/relations", Resolve)
}

// Resolve returns display labels for every relation field of a form,
// batched per target form.
func Resolve(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "relation_handler.Resolve")
	defer span.End()

	formID := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[formrepo.FormRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	form, err := repo.GetByID(ctx, formID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get form")
	}
	if form == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "form not found")
	}

	formSchema, _ := schema.DecodeLenient(form.Schema)

	ctx, resolver, err := ectoinject.GetContext[*relation.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get resolver")
	}

	resolutions, err := resolver.Resolve(ctx, formSchema.RelationFields())
	if err != nil {
		metrics.RelationResolutionsTotal.WithLabelValues("error").Inc()
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve relations")
	}

	for _, res := range resolutions {
		status := "ok"
		if !res.Valid {
			status = "invalid"
		}
		metrics.RelationResolutionsTotal.WithLabelValues(status).Inc()
	}

	if resolutions == nil {
		resolutions = []relation.Resolution{}
	}
	return c.JSON(http.StatusOK, map[string]any{"relations": resolutions})
}
