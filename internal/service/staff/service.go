package staff

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
	repo "github.com/Additional-Code/tableside/internal/repository/staff"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

// Service administers staff accounts and their roles.
type Service struct {
	db     *database.Connections
	repo   *repo.Repository
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	DB         *database.Connections
	Repository *repo.Repository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{db: p.DB, repo: p.Repository, logger: p.Logger}
}

// List returns every profile with its role. Profiles without a role row
// are reported as waiters.
func (s *Service) List(ctx context.Context) ([]entity.StaffMember, error) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list staff", errorbank.WithCause(err))
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list roles", errorbank.WithCause(err))
	}
	byUser := make(map[string]entity.Role, len(roles))
	for _, r := range roles {
		byUser[r.UserID] = r.Role
	}

	members := make([]entity.StaffMember, 0, len(profiles))
	for _, p := range profiles {
		role, ok := byUser[p.ID]
		if !ok {
			role = entity.DefaultRole
		}
		members = append(members, entity.StaffMember{
			ID:       p.ID,
			Name:     p.Name,
			Email:    p.Email,
			Role:     role,
			JoinedAt: p.CreatedAt,
		})
	}
	return members, nil
}

// Member loads one profile with its role.
func (s *Service) Member(ctx context.Context, id string) (*entity.StaffMember, error) {
	p, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load staff member")
	}
	role, err := s.repo.Role(ctx, id)
	if err != nil {
		return nil, errorbank.Internal("failed to load role", errorbank.WithCause(err))
	}
	return &entity.StaffMember{ID: p.ID, Name: p.Name, Email: p.Email, Role: role, JoinedAt: p.CreatedAt}, nil
}

// UpdateRole assigns role to a staff member.
func (s *Service) UpdateRole(ctx context.Context, id string, role entity.Role) error {
	if !role.IsValid() {
		return errorbank.BadRequest("unknown role", errorbank.WithDetail("role", role))
	}
	if _, err := s.repo.GetProfile(ctx, id); err != nil {
		return translate(err, "failed to load staff member")
	}
	if err := s.repo.UpsertRole(ctx, id, role); err != nil {
		return errorbank.Internal("failed to update role", errorbank.WithCause(err))
	}
	s.logger.Info("staff role updated", zap.String("user_id", id), zap.String("role", string(role)))
	return nil
}

// Remove deletes a profile together with its role.
func (s *Service) Remove(ctx context.Context, id string) error {
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		r := s.repo.WithTx(tx)
		if err := r.DeleteRole(ctx, id); err != nil {
			return err
		}
		return r.DeleteProfile(ctx, id)
	})
	if err != nil {
		return translate(err, "failed to remove staff member")
	}
	return nil
}

func translate(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("staff member not found")
	}
	return errorbank.Internal(msg, errorbank.WithCause(err))
}
