package staff

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/transport/http/transporttest"
)

func TestStaffManagement(t *testing.T) {
	h := transporttest.New(t)
	Register(h.Echo, h.Guard, NewHandler(h.Staff))
	admin := h.Token(t, "admin@example.com", entity.RoleAdmin)
	waiter := h.Token(t, "waiter@example.com", entity.RoleWaiter)

	rec, _ := h.Do(t, http.MethodGet, "/staff", waiter, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := h.Do(t, http.MethodGet, "/staff", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	members := transporttest.Decode[[]entity.StaffMember](t, env.Data)
	require.Len(t, members, 2)

	var waiterID, adminID string
	for _, m := range members {
		switch m.Email {
		case "waiter@example.com":
			waiterID = m.ID
			assert.Equal(t, entity.RoleWaiter, m.Role)
		case "admin@example.com":
			adminID = m.ID
		}
	}
	require.NotEmpty(t, waiterID)

	rec, env = h.Do(t, http.MethodPut, "/staff/"+waiterID+"/role", admin, dto.RoleRequest{Role: "kitchen"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, entity.RoleKitchen, transporttest.Decode[entity.StaffMember](t, env.Data).Role)

	rec, _ = h.Do(t, http.MethodPut, "/staff/"+waiterID+"/role", admin, dto.RoleRequest{Role: "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = h.Do(t, http.MethodDelete, "/staff/"+adminID, admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", env.Error.Kind)

	rec, _ = h.Do(t, http.MethodDelete, "/staff/"+waiterID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list, err := h.Staff.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
