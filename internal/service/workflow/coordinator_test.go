package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/database/dbtest"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/payment"
	orderrepo "github.com/Additional-Code/tableside/internal/repository/order"
	reservationrepo "github.com/Additional-Code/tableside/internal/repository/reservation"
	tablerepo "github.com/Additional-Code/tableside/internal/repository/table"
	ordersvc "github.com/Additional-Code/tableside/internal/service/order"
	reservationsvc "github.com/Additional-Code/tableside/internal/service/reservation"
	tablesvc "github.com/Additional-Code/tableside/internal/service/table"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

type recordingGateway struct {
	mu       sync.Mutex
	requests []payment.Request
	inner    payment.Gateway
}

func (g *recordingGateway) Initiate(ctx context.Context, req payment.Request) (payment.Result, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.inner.Initiate(ctx, req)
}

type fixture struct {
	wf      *Coordinator
	conns   *database.Connections
	tables  *tablesvc.Service
	orders  *ordersvc.Service
	gateway *recordingGateway
}

func newFixture(t *testing.T, gw payment.Gateway) *fixture {
	t.Helper()
	conns := dbtest.Open(t)
	logger := zap.NewNop()
	cfg := config.Config{}
	cfg.Payment.Currency = "INR"

	tableRepo := tablerepo.NewRepository(conns)
	tables := tablesvc.NewService(tablesvc.Params{Repository: tableRepo, Logger: logger})
	orders, err := ordersvc.NewService(ordersvc.Params{
		DB:         conns,
		Repository: orderrepo.NewRepository(conns),
		Tables:     tableRepo,
		Registry:   tables,
		Config:     cfg,
		Logger:     logger,
	})
	require.NoError(t, err)
	reservations, err := reservationsvc.NewService(reservationsvc.Params{
		Repository: reservationrepo.NewRepository(conns),
		Logger:     logger,
	})
	require.NoError(t, err)

	rec := &recordingGateway{inner: gw}
	wf, err := NewCoordinator(Params{
		Orders:       orders,
		Tables:       tables,
		Reservations: reservations,
		Gateway:      rec,
		Config:       cfg,
		Logger:       logger,
	})
	require.NoError(t, err)
	return &fixture{wf: wf, conns: conns, tables: tables, orders: orders, gateway: rec}
}

func (f *fixture) addTable(t *testing.T, number, capacity int) *entity.Table {
	t.Helper()
	tbl, err := f.tables.Create(context.Background(), tablesvc.CreateInput{Number: number, Capacity: capacity})
	require.NoError(t, err)
	return tbl
}

func (f *fixture) table(t *testing.T, id string) *entity.Table {
	t.Helper()
	tbl, err := f.tables.Get(context.Background(), id)
	require.NoError(t, err)
	return tbl
}

func (f *fixture) blockTableWrites(t *testing.T) {
	t.Helper()
	_, err := f.conns.Writer.ExecContext(context.Background(),
		`CREATE TRIGGER block_tables BEFORE UPDATE ON restaurant_tables BEGIN SELECT RAISE(ABORT, 'table store offline'); END`)
	require.NoError(t, err)
}

func (f *fixture) unblockTableWrites(t *testing.T) {
	t.Helper()
	_, err := f.conns.Writer.ExecContext(context.Background(), `DROP TRIGGER block_tables`)
	require.NoError(t, err)
}

func tomorrowAt(hour int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func burgers(qty int) []entity.OrderItem {
	return []entity.OrderItem{{MenuItemID: "item-a", Name: "Item A", Quantity: qty, Price: decimal.NewFromInt(100)}}
}

func TestOrderLifecycle_CreateAdvancePay(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 4)

	// Order creation occupies the table.
	order, err := f.wf.CreateOrder(ctx, ordersvc.CreateInput{TableID: t1.ID, Items: burgers(2), TotalAmount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, order.Status)
	tbl := f.table(t, t1.ID)
	assert.Equal(t, entity.TableOccupied, tbl.Status)
	require.NotNil(t, tbl.CurrentOrderID)
	assert.Equal(t, order.ID, *tbl.CurrentOrderID)

	// Kitchen flow moves forward only.
	for _, next := range []entity.OrderStatus{entity.OrderPreparing, entity.OrderReady, entity.OrderServed} {
		_, err := f.wf.AdvanceOrder(ctx, order.ID, next, "kitchen")
		require.NoError(t, err)
	}
	_, err = f.wf.AdvanceOrder(ctx, order.ID, entity.OrderPending, "kitchen")
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnprocessableEntity))

	// Payment frees the table.
	res, err := f.wf.Checkout(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPaid, res.Order.Status)
	assert.Equal(t, entity.PaymentPaid, res.Order.PaymentStatus)
	require.NotNil(t, res.Order.PaymentID)
	assert.Regexp(t, `^pay_mock_`, *res.Order.PaymentID)
	require.NotNil(t, res.Receipt)

	tbl = f.table(t, t1.ID)
	assert.Equal(t, entity.TableAvailable, tbl.Status)
	assert.Nil(t, tbl.CurrentOrderID)

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, int64(20000), f.gateway.requests[0].Amount)
	assert.Equal(t, "INR", f.gateway.requests[0].Currency)

	_, err = f.wf.Checkout(ctx, order.ID)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
	assert.Len(t, f.gateway.requests, 1)
}

func TestCheckout_PaymentFailureWritesNothing(t *testing.T) {
	f := newFixture(t, payment.FailGateway{})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 4)

	order, err := f.wf.CreateOrder(ctx, ordersvc.CreateInput{TableID: t1.ID, Items: burgers(1)})
	require.NoError(t, err)

	_, err = f.wf.Checkout(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnprocessableEntity))

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, stored.Status)
	assert.Equal(t, entity.PaymentUnpaid, stored.PaymentStatus)
	assert.Equal(t, entity.TableOccupied, f.table(t, t1.ID).Status)
}

func TestCheckout_ConcurrentCallsCaptureOnce(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{Delay: 50 * time.Millisecond})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 4)

	order, err := f.wf.CreateOrder(ctx, ordersvc.CreateInput{TableID: t1.ID, Items: burgers(2)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.wf.Checkout(ctx, order.ID)
		}()
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errorbank.IsKind(err, errorbank.KindConflict):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	f.gateway.mu.Lock()
	assert.Len(t, f.gateway.requests, 1)
	f.gateway.mu.Unlock()

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPaid, stored.Status)
	assert.Equal(t, entity.PaymentPaid, stored.PaymentStatus)
}

func TestCheckout_DeclineReleasesClaim(t *testing.T) {
	f := newFixture(t, payment.FailGateway{})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 4)

	order, err := f.wf.CreateOrder(ctx, ordersvc.CreateInput{TableID: t1.ID, Items: burgers(1)})
	require.NoError(t, err)

	for range 2 {
		_, err = f.wf.Checkout(ctx, order.ID)
		assert.True(t, errorbank.IsKind(err, errorbank.KindUnprocessableEntity))
	}
	assert.Len(t, f.gateway.requests, 2)
}

func TestPlaceAndPay(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 2)

	order, res, err := f.wf.PlaceAndPay(ctx, ordersvc.CreateInput{TableID: t1.ID, Items: burgers(1)})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, entity.OrderPaid, order.Status)
	assert.Equal(t, entity.TableAvailable, f.table(t, t1.ID).Status)
}

func TestReservationLifecycle(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t2 := f.addTable(t, 2, 4)

	r1, err := f.wf.CreateReservation(ctx, reservationsvc.CreateInput{
		TableID: t2.ID, CustomerName: "Asha", PartySize: 2, Time: tomorrowAt(19),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TableReserved, f.table(t, t2.ID).Status)

	_, err = f.wf.CancelReservation(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TableAvailable, f.table(t, t2.ID).Status)
}

func TestCancelReservation_KeepsTableWhileOthersRemain(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t2 := f.addTable(t, 2, 4)

	first, err := f.wf.CreateReservation(ctx, reservationsvc.CreateInput{TableID: t2.ID, CustomerName: "A", PartySize: 2, Time: tomorrowAt(18)})
	require.NoError(t, err)
	second, err := f.wf.CreateReservation(ctx, reservationsvc.CreateInput{TableID: t2.ID, CustomerName: "B", PartySize: 2, Time: tomorrowAt(21)})
	require.NoError(t, err)

	_, err = f.wf.CancelReservation(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TableReserved, f.table(t, t2.ID).Status)

	noShow := entity.ReservationNoShow
	_, err = f.wf.UpdateReservation(ctx, second.ID, reservationsvc.Patch{Status: &noShow})
	require.NoError(t, err)
	assert.Equal(t, entity.TableAvailable, f.table(t, t2.ID).Status)
}

func TestConcurrentCancellationsReleaseTable(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t2 := f.addTable(t, 2, 4)

	var ids []string
	for i := 0; i < 4; i++ {
		r, err := f.wf.CreateReservation(ctx, reservationsvc.CreateInput{TableID: t2.ID, CustomerName: "Guest", PartySize: 2, Time: tomorrowAt(17 + i)})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.wf.CancelReservation(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, entity.TableAvailable, f.table(t, t2.ID).Status)
}

func TestCancelReservation_DoesNotFreeOccupiedTable(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 4)

	r, err := f.wf.CreateReservation(ctx, reservationsvc.CreateInput{TableID: t1.ID, CustomerName: "A", PartySize: 2, Time: tomorrowAt(19)})
	require.NoError(t, err)
	_, err = f.wf.CreateOrder(ctx, ordersvc.CreateInput{TableID: t1.ID, Items: burgers(1)})
	require.NoError(t, err)

	_, err = f.wf.CancelReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TableOccupied, f.table(t, t1.ID).Status)
}

func TestCreateReservation_RejectsOversizedParty(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 4)

	_, err := f.wf.CreateReservation(ctx, reservationsvc.CreateInput{TableID: t1.ID, CustomerName: "Big party", PartySize: 6, Time: tomorrowAt(19)})
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))

	n, err := f.conns.Reader.NewSelect().Model((*entity.Reservation)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, entity.TableAvailable, f.table(t, t1.ID).Status)

	_, err = f.wf.CreateReservation(ctx, reservationsvc.CreateInput{TableID: "missing", CustomerName: "A", PartySize: 2, Time: tomorrowAt(19)})
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestUpdateReservation_RechecksCapacity(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 4)

	r, err := f.wf.CreateReservation(ctx, reservationsvc.CreateInput{TableID: t1.ID, CustomerName: "A", PartySize: 2, Time: tomorrowAt(19)})
	require.NoError(t, err)

	size := 5
	_, err = f.wf.UpdateReservation(ctx, r.ID, reservationsvc.Patch{PartySize: &size})
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))

	size = 4
	updated, err := f.wf.UpdateReservation(ctx, r.ID, reservationsvc.Patch{PartySize: &size})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.PartySize)
	assert.Equal(t, entity.TableReserved, f.table(t, t1.ID).Status)
}

func TestCreateReservation_PartialFailureThenReconcile(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t2 := f.addTable(t, 2, 4)

	f.blockTableWrites(t)
	res, err := f.wf.CreateReservation(ctx, reservationsvc.CreateInput{TableID: t2.ID, CustomerName: "A", PartySize: 2, Time: tomorrowAt(19)})
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindPartialFailure))
	require.NotNil(t, res)
	assert.Equal(t, entity.ReservationConfirmed, res.Status)
	assert.Equal(t, entity.TableAvailable, f.table(t, t2.ID).Status)

	appErr := errorbank.From(err)
	assert.Equal(t, res.ID, appErr.Details()["reservation_id"])

	f.unblockTableWrites(t)
	require.NoError(t, f.wf.ReconcileTable(ctx, t2.ID))
	assert.Equal(t, entity.TableReserved, f.table(t, t2.ID).Status)

	require.NoError(t, f.wf.ReconcileTable(ctx, t2.ID))
	assert.Equal(t, entity.TableReserved, f.table(t, t2.ID).Status)
}

func TestReconcileTable(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()

	t.Run("reserved without bookings", func(t *testing.T) {
		tbl := f.addTable(t, 10, 4)
		require.NoError(t, f.wf.OverrideTableStatus(ctx, tbl.ID, entity.TableReserved))
		require.NoError(t, f.wf.ReconcileTable(ctx, tbl.ID))
		assert.Equal(t, entity.TableAvailable, f.table(t, tbl.ID).Status)
	})

	t.Run("occupied by a paid order", func(t *testing.T) {
		tbl := f.addTable(t, 11, 4)
		order, err := f.wf.CreateOrder(ctx, ordersvc.CreateInput{TableID: tbl.ID, Items: burgers(1)})
		require.NoError(t, err)
		_, err = f.conns.Writer.NewUpdate().Model((*entity.Order)(nil)).
			Set("status = ?", entity.OrderPaid).
			Where("id = ?", order.ID).
			Exec(ctx)
		require.NoError(t, err)

		require.NoError(t, f.wf.ReconcileTable(ctx, tbl.ID))
		assert.Equal(t, entity.TableAvailable, f.table(t, tbl.ID).Status)
	})

	t.Run("occupied by an open order", func(t *testing.T) {
		tbl := f.addTable(t, 12, 4)
		_, err := f.wf.CreateOrder(ctx, ordersvc.CreateInput{TableID: tbl.ID, Items: burgers(1)})
		require.NoError(t, err)
		require.NoError(t, f.wf.ReconcileTable(ctx, tbl.ID))
		assert.Equal(t, entity.TableOccupied, f.table(t, tbl.ID).Status)
	})

	t.Run("unknown table", func(t *testing.T) {
		assert.NoError(t, f.wf.ReconcileTable(ctx, "missing"))
	})
}

func TestOverrideTableStatus_Unvalidated(t *testing.T) {
	f := newFixture(t, &payment.MockGateway{})
	ctx := context.Background()
	t1 := f.addTable(t, 1, 4)

	_, err := f.wf.CreateOrder(ctx, ordersvc.CreateInput{TableID: t1.ID, Items: burgers(1)})
	require.NoError(t, err)

	require.NoError(t, f.wf.OverrideTableStatus(ctx, t1.ID, entity.TableAvailable))
	tbl := f.table(t, t1.ID)
	assert.Equal(t, entity.TableAvailable, tbl.Status)
	assert.Nil(t, tbl.CurrentOrderID)
}
