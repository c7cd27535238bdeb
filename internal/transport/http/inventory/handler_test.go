package inventory

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

func TestInventory_LowStockAndRestock(t *testing.T) {
	h := transporttest.New(t)
	Register(h.Echo, h.Guard, NewHandler(h.Inventory))
	manager := h.Token(t, "m@example.com", entity.RoleManager)
	kitchen := h.Token(t, "k@example.com", entity.RoleKitchen)

	rec, env := h.Do(t, http.MethodPost, "/inventory", manager, dto.InventoryItemRequest{
		ItemName:       "Basmati rice",
		Quantity:       decimal.NewFromInt(2),
		Unit:           "kg",
		ThresholdLevel: decimal.NewFromInt(5),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := transporttest.Decode[dto.InventoryItemResponse](t, env.Data)
	assert.True(t, item.LowStock)

	rec, env = h.Do(t, http.MethodGet, "/inventory/low-stock", kitchen, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, transporttest.Decode[[]dto.InventoryItemResponse](t, env.Data), 1)

	rec, _ = h.Do(t, http.MethodPost, "/inventory/"+item.ID+"/restock", kitchen, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = h.Do(t, http.MethodPost, "/inventory/"+item.ID+"/restock", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	restocked := transporttest.Decode[dto.InventoryItemResponse](t, env.Data)
	assert.True(t, decimal.NewFromInt(15).Equal(restocked.Quantity))
	assert.False(t, restocked.LowStock)

	rec, env = h.Do(t, http.MethodGet, "/inventory/low-stock", kitchen, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, transporttest.Decode[[]dto.InventoryItemResponse](t, env.Data))

	rec, _ = h.Do(t, http.MethodDelete, "/inventory/"+item.ID, manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = h.Do(t, http.MethodGet, "/inventory/"+item.ID, manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
