package migration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/db/migrations"
	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
)

func TestMigrator_UpAndDown(t *testing.T) {
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mig, err := newMigrator("sqlite", db, migrations.FS, migrations.Dir, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, mig.Up(ctx))
	version, err := mig.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	// running again is a no-op
	require.NoError(t, mig.Up(ctx))

	table := &entity.Table{ID: uuid.NewString(), Number: 1, Capacity: 2, Status: entity.TableAvailable}
	_, err = db.NewInsert().Model(table).Exec(ctx)
	require.NoError(t, err)
	count, err := db.NewSelect().Model((*entity.Table)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, mig.Down(ctx, 0, true))
	_, err = db.NewSelect().Model((*entity.Table)(nil)).Count(ctx)
	assert.Error(t, err)
}

func TestGooseDialect(t *testing.T) {
	for driver, want := range map[string]string{"pg": "postgres", "postgres": "postgres", "mysql": "mysql", "sqlite": "sqlite3"} {
		got, err := gooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}
