package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/tableside/pkg/errorbank"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data"`
	Error   *ErrorBody     `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    errorbank.Kind `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Builder assembles an Envelope for one request.
type Builder struct {
	ctx    echo.Context
	status int
	data   any
	err    error
	meta   map[string]any
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// Created attaches data and answers 201.
func (b *Builder) Created(data any) *Builder {
	return b.WithStatus(http.StatusCreated).WithData(data)
}

// WithError records an error to be rendered. Meta set on the builder is
// still emitted, so callers can attach partial results.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithMeta appends auxiliary metadata to the response.
func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// WithCount records the number of items in a list payload.
func (b *Builder) WithCount(n int) *Builder {
	return b.WithMeta("count", n)
}

// Envelope returns what Build would write, with its status code.
func (b *Builder) Envelope() (int, Envelope) {
	if b.err == nil {
		return b.status, Envelope{Success: true, Data: b.data, Meta: b.meta}
	}

	appErr := errorbank.From(b.err)
	status := b.status
	if status < http.StatusBadRequest {
		status = appErr.StatusCode()
	}
	return status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Kind:    appErr.Kind(),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
		Meta: b.meta,
	}
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	status, env := b.Envelope()
	return b.ctx.JSON(status, env)
}
