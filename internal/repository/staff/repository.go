package staff

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
)

// ErrNotFound is returned when a staff profile is missing.
var ErrNotFound = errors.New("staff profile not found")

// Repository encapsulates access to staff profiles and roles.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// WithTx returns a copy whose reads and writes run inside tx.
func (r *Repository) WithTx(tx bun.IDB) *Repository {
	return &Repository{writer: tx, reader: tx}
}

func (r *Repository) CreateProfile(ctx context.Context, p *entity.StaffProfile) error {
	_, err := r.writer.NewInsert().Model(p).Exec(ctx)
	return err
}

func (r *Repository) GetProfile(ctx context.Context, id string) (*entity.StaffProfile, error) {
	return r.findProfile(ctx, "id = ?", id)
}

func (r *Repository) GetProfileByEmail(ctx context.Context, email string) (*entity.StaffProfile, error) {
	return r.findProfile(ctx, "email = ?", email)
}

func (r *Repository) findProfile(ctx context.Context, where string, arg any) (*entity.StaffProfile, error) {
	p := new(entity.StaffProfile)
	err := r.reader.NewSelect().Model(p).Where(where, arg).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListProfiles(ctx context.Context) ([]entity.StaffProfile, error) {
	var out []entity.StaffProfile
	err := r.reader.NewSelect().Model(&out).Order("name ASC").Scan(ctx)
	return out, err
}

func (r *Repository) DeleteProfile(ctx context.Context, id string) error {
	res, err := r.writer.NewDelete().Model((*entity.StaffProfile)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Role returns the role of a user, or DefaultRole when none is stored.
func (r *Repository) Role(ctx context.Context, userID string) (entity.Role, error) {
	role := new(entity.StaffRole)
	err := r.reader.NewSelect().Model(role).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.DefaultRole, nil
	}
	if err != nil {
		return "", err
	}
	return role.Role, nil
}

func (r *Repository) ListRoles(ctx context.Context) ([]entity.StaffRole, error) {
	var out []entity.StaffRole
	err := r.reader.NewSelect().Model(&out).Scan(ctx)
	return out, err
}

// UpsertRole stores the role of a user, replacing any previous one.
func (r *Repository) UpsertRole(ctx context.Context, userID string, role entity.Role) error {
	q := r.writer.NewInsert().Model(&entity.StaffRole{UserID: userID, Role: role})
	if r.writer.Dialect().Name() == dialect.MySQL {
		q = q.On("DUPLICATE KEY UPDATE").Set("role = VALUES(role)")
	} else {
		q = q.On("CONFLICT (user_id) DO UPDATE").Set("role = EXCLUDED.role")
	}
	_, err := q.Exec(ctx)
	return err
}

func (r *Repository) DeleteRole(ctx context.Context, userID string) error {
	_, err := r.writer.NewDelete().Model((*entity.StaffRole)(nil)).Where("user_id = ?", userID).Exec(ctx)
	return err
}
