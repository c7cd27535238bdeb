package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/database/dbtest"
	repo "github.com/Additional-Code/tableside/internal/repository/inventory"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(Params{Repository: repo.NewRepository(dbtest.Open(t)), Logger: zap.NewNop()})
}

func TestLowStockAndRestock(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	flour, err := svc.Create(ctx, Input{ItemName: "Flour", Quantity: decimal.NewFromInt(4), Unit: "kg", ThresholdLevel: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{ItemName: "Tomatoes", Quantity: decimal.NewFromInt(20), Unit: "kg", ThresholdLevel: decimal.NewFromInt(5)})
	require.NoError(t, err)

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, flour.ID, low[0].ID)

	restocked, err := svc.Restock(ctx, flour.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15).Equal(restocked.Quantity))

	low, err = svc.LowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestValidationAndNotFound(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{ItemName: "Oil", Unit: "", Quantity: decimal.NewFromInt(1)})
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))

	_, err = svc.Create(ctx, Input{ItemName: "Oil", Unit: "l", Quantity: decimal.NewFromInt(-1)})
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))

	_, err = svc.Restock(ctx, "missing")
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))

	assert.True(t, errorbank.IsKind(svc.Delete(ctx, "missing"), errorbank.KindNotFound))
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, Input{ItemName: "Milk", Quantity: decimal.NewFromInt(10), Unit: "l", ThresholdLevel: decimal.NewFromInt(2)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, item.ID, Input{ItemName: "Milk", Quantity: decimal.NewFromInt(1), Unit: "l", ThresholdLevel: decimal.NewFromInt(2), Category: "Dairy"})
	require.NoError(t, err)
	assert.True(t, updated.IsLowStock())

	require.NoError(t, svc.Delete(ctx, item.ID))
	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
