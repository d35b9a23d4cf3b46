package form

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func updateContext(t *testing.T, body string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/:id")
	c.SetParamNames("id")
	c.SetParamValues("6f1f1a2e-9e0f-4b6e-9a7e-1c2d3e4f5a6b")
	return c
}

// fieldErrors unwraps the per-field error map from a save-blocking 400.
func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	errs, ok := httperror.ToHTTPError(err).Meta["errors"].(map[string]string)
	require.True(t, ok, "expected per-field errors in the error meta")
	return errs
}

func TestUpdate_BlankTitleIsRejected(t *testing.T) {
	c := updateContext(t, `{"title": "   "}`)
	errs := fieldErrors(t, Update(c))
	assert.Contains(t, errs, "title")
}

func TestUpdate_BlankTitleWithSchemaIsRejected(t *testing.T) {
	c := updateContext(t, `{"title": " ", "schema": {"fields": [{"id": "name", "type": "text", "label": "Name"}]}}`)
	errs := fieldErrors(t, Update(c))
	assert.Contains(t, errs, "title")
}

func TestUpdate_SchemaOnlyUpdateLeavesTitleUntouched(t *testing.T) {
	// duplicate field ids block the save; the stored title is not re-checked
	c := updateContext(t, `{"schema": {"fields": [{"id": "a", "type": "text"}, {"id": "a", "type": "text"}]}}`)
	errs := fieldErrors(t, Update(c))
	assert.Contains(t, errs, "a")
	assert.NotContains(t, errs, "title")
}
