package seeder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/cache"
	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/database/dbtest"
	"github.com/Additional-Code/tableside/internal/entity"
	staffrepo "github.com/Additional-Code/tableside/internal/repository/staff"
	authsvc "github.com/Additional-Code/tableside/internal/service/auth"
	staffsvc "github.com/Additional-Code/tableside/internal/service/staff"
)

func TestSeeder_AllIsIdempotent(t *testing.T) {
	conns := dbtest.Open(t)
	logger := zap.NewNop()
	var cfg config.Config
	cfg.Auth.JWTSecret = "seed-secret"
	cfg.Auth.TokenTTL = time.Hour

	repo := staffrepo.NewRepository(conns)
	seed := New(Params{
		DB:     conns,
		Auth:   authsvc.NewService(authsvc.Params{DB: conns, Staff: repo, Cache: cache.NewMemory(time.Minute), Config: cfg, Logger: logger}),
		Staff:  staffsvc.NewService(staffsvc.Params{DB: conns, Repository: repo, Logger: logger}),
		Logger: logger,
	})
	ctx := context.Background()
	admin := Admin{Email: "owner@tableside.local", Password: "correct-horse"}

	require.NoError(t, seed.All(ctx, admin))
	require.NoError(t, seed.All(ctx, admin))

	var tables []entity.Table
	require.NoError(t, conns.Writer.NewSelect().Model(&tables).Order("number ASC").Scan(ctx))
	require.Len(t, tables, FloorSize)
	for _, table := range tables {
		want := 4
		if table.Number <= 2 {
			want = 2
		}
		assert.Equal(t, want, table.Capacity, "table %d", table.Number)
		assert.Equal(t, entity.TableAvailable, table.Status)
	}

	categories, err := conns.Writer.NewSelect().Model((*entity.MenuCategory)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(menuSeeds), categories)

	var items []entity.MenuItem
	require.NoError(t, conns.Writer.NewSelect().Model(&items).Scan(ctx))
	want := 0
	for _, group := range menuSeeds {
		want += len(group.items)
	}
	assert.Len(t, items, want)
	for _, item := range items {
		require.NotNil(t, item.CategoryID, item.Name)
		assert.True(t, item.IsAvailable)
	}

	stock, err := conns.Writer.NewSelect().Model((*entity.InventoryItem)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(inventorySeeds), stock)

	profile, err := repo.GetProfileByEmail(ctx, admin.Email)
	require.NoError(t, err)
	role, err := repo.Role(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, role)
}

func TestSeeder_AdminSkippedWithoutPassword(t *testing.T) {
	conns := dbtest.Open(t)
	seed := New(Params{DB: conns, Logger: zap.NewNop()})

	require.NoError(t, seed.Admin(context.Background(), Admin{Email: "x@y.z"}))
	count, err := conns.Writer.NewSelect().Model((*entity.StaffProfile)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
