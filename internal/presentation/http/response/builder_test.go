package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/tableside/pkg/errorbank"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBuilder_EmptyListKeepsData(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, New(c).WithData([]string{}).WithCount(0).Build())

	body := decode(t, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(body["data"]))
	assert.JSONEq(t, `{"count":0}`, string(body["meta"]))
	_, hasError := body["error"]
	assert.False(t, hasError)
}

func TestBuilder_Created(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, New(c).Created(map[string]int{"number": 4}).Build())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBuilder_ErrorKeepsMeta(t *testing.T) {
	c, rec := newContext()
	err := errorbank.PartialFailure("order placed but table not updated", errorbank.WithDetail("table_id", "t1"))
	require.NoError(t, New(c).WithMeta("order", "o1").WithError(err).Build())

	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	body := decode(t, rec)
	assert.JSONEq(t, `false`, string(body["success"]))
	assert.JSONEq(t, `{"kind":"partial_failure","message":"order placed but table not updated","details":{"table_id":"t1"}}`, string(body["error"]))
	assert.JSONEq(t, `{"order":"o1"}`, string(body["meta"]))
}

func TestBuilder_ExplicitErrorStatusWins(t *testing.T) {
	b := New(nil).WithStatus(http.StatusMethodNotAllowed).WithError(errorbank.NotFound("no route"))
	status, env := b.Envelope()
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, errorbank.KindNotFound, env.Error.Kind)

	status, env = New(nil).WithError(errors.New("boom")).Envelope()
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", env.Error.Message)
}
