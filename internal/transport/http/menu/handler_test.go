package menu

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/transport/http/transporttest"
)

func TestMenuItems_Lifecycle(t *testing.T) {
	h := transporttest.New(t)
	Register(h.Echo, h.Guard, NewHandler(h.Menu))
	waiter := h.Token(t, "w@example.com", entity.RoleWaiter)
	admin := h.Token(t, "a@example.com", entity.RoleAdmin)

	rec, env := h.Do(t, http.MethodPost, "/menu/categories", admin, dto.CategoryRequest{Name: "Mains", SortOrder: 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := transporttest.Decode[dto.CategoryResponse](t, env.Data)

	body := dto.MenuItemRequest{
		Name:       "Paneer Tikka",
		CategoryID: cat.ID,
		Price:      decimal.RequireFromString("220.00"),
		Variants:   []entity.PriceModifier{{Name: "half", Price: decimal.NewFromInt(-80)}},
	}
	rec, env = h.Do(t, http.MethodPost, "/menu/items", waiter, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error.Kind)

	rec, env = h.Do(t, http.MethodPost, "/menu/items", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := transporttest.Decode[dto.MenuItemResponse](t, env.Data)
	assert.Equal(t, "Mains", item.Category)
	assert.True(t, item.IsAvailable)
	assert.Empty(t, item.Addons)

	off := false
	rec, env = h.Do(t, http.MethodPut, "/menu/items/"+item.ID+"/availability", admin, dto.AvailabilityRequest{Available: &off})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, transporttest.Decode[dto.MenuItemResponse](t, env.Data).IsAvailable)

	rec, env = h.Do(t, http.MethodGet, "/menu/items", waiter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := transporttest.Decode[[]dto.MenuItemResponse](t, env.Data)
	require.Len(t, items, 1)
	assert.False(t, items[0].IsAvailable)

	rec, _ = h.Do(t, http.MethodDelete, "/menu/items/"+item.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = h.Do(t, http.MethodGet, "/menu/items/"+item.ID, waiter, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Kind)
}

func TestMenuItems_Validation(t *testing.T) {
	h := transporttest.New(t)
	Register(h.Echo, h.Guard, NewHandler(h.Menu))
	manager := h.Token(t, "m@example.com", entity.RoleManager)

	rec, env := h.Do(t, http.MethodPost, "/menu/items", manager, dto.MenuItemRequest{ImageURL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Details, "name")
	assert.Contains(t, env.Error.Details, "image_url")
}
