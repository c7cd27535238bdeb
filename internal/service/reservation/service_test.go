package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/database/dbtest"
	"github.com/Additional-Code/tableside/internal/entity"
	repo "github.com/Additional-Code/tableside/internal/repository/reservation"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Params{Repository: repo.NewRepository(dbtest.Open(t)), Logger: zap.NewNop()})
	require.NoError(t, err)
	return svc
}

func tomorrowAt(hour int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(t)
	base := CreateInput{TableID: "t1", CustomerName: "Asha", PartySize: 2, Time: tomorrowAt(19)}

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"no table", func(in *CreateInput) { in.TableID = "" }},
		{"blank name", func(in *CreateInput) { in.CustomerName = "  " }},
		{"empty party", func(in *CreateInput) { in.PartySize = 0 }},
		{"no time", func(in *CreateInput) { in.Time = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
		})
	}

	res, err := svc.Create(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationConfirmed, res.Status)
	assert.Nil(t, res.CustomerPhone)
}

func TestCancel(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{TableID: "t1", CustomerName: "Asha", PartySize: 2, Time: tomorrowAt(19)})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationCancelled, cancelled.Status)

	again, err := svc.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationCancelled, again.Status)

	n, err := svc.CountConfirmedForTable(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Cancel(ctx, "missing")
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestCancel_RejectsCompleted(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{TableID: "t1", CustomerName: "Asha", PartySize: 2, Time: tomorrowAt(19)})
	require.NoError(t, err)
	completed := entity.ReservationCompleted
	_, _, err = svc.Update(ctx, res.ID, Patch{Status: &completed})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, res.ID)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnprocessableEntity))
}

func TestUpdate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{TableID: "t1", CustomerName: "Asha", PartySize: 2, Time: tomorrowAt(19)})
	require.NoError(t, err)

	size := 3
	phone := "+91 98765 43210"
	later := tomorrowAt(20)
	updated, previous, err := svc.Update(ctx, res.ID, Patch{PartySize: &size, CustomerPhone: &phone, Time: &later})
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationConfirmed, previous)
	assert.Equal(t, 3, updated.PartySize)

	stored, err := svc.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.PartySize)
	require.NotNil(t, stored.CustomerPhone)
	assert.Equal(t, phone, *stored.CustomerPhone)
	assert.True(t, later.Equal(stored.ReservationTime))

	back := entity.ReservationConfirmed
	noShow := entity.ReservationNoShow
	_, _, err = svc.Update(ctx, res.ID, Patch{Status: &noShow})
	require.NoError(t, err)
	_, previous, err = svc.Update(ctx, res.ID, Patch{Status: &back})
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnprocessableEntity))
	assert.Equal(t, entity.ReservationNoShow, previous)
}

func TestQueries(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past, err := svc.Create(ctx, CreateInput{TableID: "t1", CustomerName: "Past", PartySize: 2, Time: now.Add(-2 * time.Hour)})
	require.NoError(t, err)
	soon, err := svc.Create(ctx, CreateInput{TableID: "t1", CustomerName: "Soon", PartySize: 2, Time: now.Add(time.Hour)})
	require.NoError(t, err)
	other, err := svc.Create(ctx, CreateInput{TableID: "t2", CustomerName: "Other", PartySize: 4, Time: now.Add(2 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, other.ID)
	require.NoError(t, err)

	forTable, err := svc.ForTable(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, forTable, 2)
	assert.Equal(t, past.ID, forTable[0].ID)

	upcoming, err := svc.Upcoming(ctx, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, soon.ID, upcoming[0].ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
