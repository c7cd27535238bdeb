package dashboard

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/tableside/internal/dto"
	"github.com/Additional-Code/tableside/internal/entity"
	ordersvc "github.com/Additional-Code/tableside/internal/service/order"
	"github.com/Additional-Code/tableside/internal/transport/http/transporttest"
)

func TestSummary(t *testing.T) {
	h := transporttest.New(t)
	Register(h.Echo, h.Guard, NewHandler(h.Stats))
	token := h.Token(t, "m@example.com", entity.RoleManager)
	ctx := context.Background()

	first := h.Table(t, 1, 2)
	h.Table(t, 2, 4)
	_, err := h.Workflow.CreateOrder(ctx, ordersvc.CreateInput{
		TableID: first.ID,
		Items:   []entity.OrderItem{{MenuItemID: "m1", Name: "Tea", Quantity: 3, Price: decimal.NewFromInt(20)}},
	})
	require.NoError(t, err)

	rec, env := h.Do(t, http.MethodGet, "/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := transporttest.Decode[dto.DashboardResponse](t, env.Data)
	assert.Equal(t, 1, d.TotalOrdersToday)
	assert.Equal(t, 1, d.ActiveOrders)
	assert.Equal(t, 1, d.AvailableTables)
	assert.True(t, decimal.Zero.Equal(d.TodaysRevenue))
	require.Len(t, d.RecentOrders, 1)
	assert.True(t, decimal.NewFromInt(60).Equal(d.RecentOrders[0].TotalAmount))

	rec, _ = h.Do(t, http.MethodGet, "/dashboard/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
