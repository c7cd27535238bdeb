package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
)

// ErrNotFound is returned when an inventory item is missing.
var ErrNotFound = errors.New("inventory item not found")

// Repository encapsulates access to stock levels.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

func (r *Repository) Create(ctx context.Context, item *entity.InventoryItem) error {
	_, err := r.writer.NewInsert().Model(item).Exec(ctx)
	return err
}

func (r *Repository) Update(ctx context.Context, item *entity.InventoryItem) error {
	res, err := r.writer.NewUpdate().Model(item).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.writer.NewDelete().Model((*entity.InventoryItem)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	item := new(entity.InventoryItem)
	err := r.reader.NewSelect().Model(item).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// List returns stock ordered by item name.
func (r *Repository) List(ctx context.Context) ([]entity.InventoryItem, error) {
	var out []entity.InventoryItem
	err := r.reader.NewSelect().Model(&out).Order("item_name ASC").Scan(ctx)
	return out, err
}
