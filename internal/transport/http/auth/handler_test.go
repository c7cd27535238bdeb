package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/transport/http/transporttest"
)

func TestSignUpSignInSignOut(t *testing.T) {
	h := transporttest.New(t)
	Register(h.Echo, h.Guard, NewHandler(h.Auth, h.Staff))

	rec, env := h.Do(t, http.MethodPost, "/auth/sign-up", "", dto.SignUpRequest{Name: "Meera", Email: "Meera@Example.com", Password: "longenough"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	member := transporttest.Decode[entity.StaffMember](t, env.Data)
	assert.Equal(t, "meera@example.com", member.Email)
	assert.Equal(t, entity.RoleWaiter, member.Role)

	rec, env = h.Do(t, http.MethodPost, "/auth/sign-up", "", dto.SignUpRequest{Name: "Meera", Email: "meera@example.com", Password: "longenough"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", env.Error.Kind)

	rec, env = h.Do(t, http.MethodPost, "/auth/sign-in", "", dto.SignInRequest{Email: "meera@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Kind)

	rec, env = h.Do(t, http.MethodPost, "/auth/sign-in", "", dto.SignInRequest{Email: "meera@example.com", Password: "longenough"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := transporttest.Decode[dto.SessionResponse](t, env.Data)
	require.NotEmpty(t, session.Token)

	rec, env = h.Do(t, http.MethodGet, "/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, member.ID, transporttest.Decode[entity.StaffMember](t, env.Data).ID)

	rec, _ = h.Do(t, http.MethodPost, "/auth/sign-out", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = h.Do(t, http.MethodGet, "/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Kind)
}

func TestSignUp_Validation(t *testing.T) {
	h := transporttest.New(t)
	Register(h.Echo, h.Guard, NewHandler(h.Auth, h.Staff))

	rec, env := h.Do(t, http.MethodPost, "/auth/sign-up", "", dto.SignUpRequest{Name: "X", Email: "bad", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", env.Error.Details["email"])
	assert.Equal(t, "min", env.Error.Details["password"])
}
