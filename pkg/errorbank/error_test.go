package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestAppError_StatusAndGRPCCodes(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		code   codes.Code
	}{
		{KindBadRequest, http.StatusBadRequest, codes.InvalidArgument},
		{KindUnauthorized, http.StatusUnauthorized, codes.Unauthenticated},
		{KindForbidden, http.StatusForbidden, codes.PermissionDenied},
		{KindConflict, http.StatusConflict, codes.AlreadyExists},
		{KindNotFound, http.StatusNotFound, codes.NotFound},
		{KindUnprocessableEntity, http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{KindPartialFailure, http.StatusMultiStatus, codes.Aborted},
		{KindUnavailable, http.StatusServiceUnavailable, codes.Unavailable},
		{KindInternal, http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New(tt.kind, "")
			assert.Equal(t, tt.status, err.StatusCode())
			assert.Equal(t, tt.code, err.GRPCCode())
			assert.Equal(t, string(tt.kind), err.Message())
		})
	}
}

func TestFrom_WrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")

	appErr := From(cause)
	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)

	wrapped := fmt.Errorf("outer: %w", NotFound("table not found"))
	assert.Equal(t, KindNotFound, From(wrapped).Kind())
	assert.Nil(t, From(nil))
}

func TestIsKind(t *testing.T) {
	err := PartialFailure("table update failed", WithDetail("reservation_id", "r-1"))

	assert.True(t, IsKind(err, KindPartialFailure))
	assert.False(t, IsKind(err, KindInternal))
	assert.False(t, IsKind(errors.New("plain"), KindInternal))
	assert.Equal(t, "r-1", err.Details()["reservation_id"])
}
