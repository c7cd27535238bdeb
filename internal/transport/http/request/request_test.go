package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/tableside/pkg/errorbank"
)

type payload struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=1"`
	Skip  string `json:"-"`
}

func newContext(body string) echo.Context {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBind(t *testing.T) {
	var ok payload
	require.NoError(t, Bind(newContext(`{"name":"a","count":2}`), &ok))
	assert.Equal(t, "a", ok.Name)

	var bad payload
	err := Bind(newContext(`{"count":0}`), &bad)
	require.Error(t, err)
	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	assert.Equal(t, map[string]any{"name": "required", "count": "gte"}, appErr.Details())

	err = Bind(newContext(`{"name":`), &bad)
	require.Error(t, err)
	assert.Equal(t, "invalid payload", errorbank.From(err).Message())
}

func TestParam(t *testing.T) {
	c := newContext("")
	c.SetParamNames("id")
	c.SetParamValues(" 42 ")
	id, err := Param(c, "id")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	c.SetParamValues("")
	_, err = Param(c, "id")
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
}
