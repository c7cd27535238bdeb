package menu

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
)

// ErrNotFound is returned when a menu record is missing.
var ErrNotFound = errors.New("menu record not found")

// Repository encapsulates access to menu items and categories.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

func (r *Repository) CreateCategory(ctx context.Context, c *entity.MenuCategory) error {
	_, err := r.writer.NewInsert().Model(c).Exec(ctx)
	return err
}

func (r *Repository) GetCategory(ctx context.Context, id string) (*entity.MenuCategory, error) {
	c := new(entity.MenuCategory)
	err := r.reader.NewSelect().Model(c).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListCategories returns categories in display order.
func (r *Repository) ListCategories(ctx context.Context) ([]entity.MenuCategory, error) {
	var out []entity.MenuCategory
	err := r.reader.NewSelect().Model(&out).Order("sort_order ASC", "name ASC").Scan(ctx)
	return out, err
}

func (r *Repository) CreateItem(ctx context.Context, item *entity.MenuItem) error {
	_, err := r.writer.NewInsert().Model(item).Exec(ctx)
	return err
}

func (r *Repository) UpdateItem(ctx context.Context, item *entity.MenuItem) error {
	res, err := r.writer.NewUpdate().Model(item).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.writer.NewDelete().Model((*entity.MenuItem)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id string) (*entity.MenuItem, error) {
	item := new(entity.MenuItem)
	err := r.reader.NewSelect().Model(item).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns every menu item ordered by name.
func (r *Repository) ListItems(ctx context.Context) ([]entity.MenuItem, error) {
	var out []entity.MenuItem
	err := r.reader.NewSelect().Model(&out).Order("name ASC").Scan(ctx)
	return out, err
}
