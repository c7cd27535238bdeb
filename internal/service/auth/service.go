package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/tableside/internal/cache"
	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
	staffrepo "github.com/Additional-Code/tableside/internal/repository/staff"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

const minPasswordLength = 8

// Claims are carried by staff access tokens.
type Claims struct {
	Name string      `json:"name"`
	Role entity.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Member    entity.StaffMember
}

// Service signs staff in and out.
type Service struct {
	db     *database.Connections
	staff  *staffrepo.Repository
	cache  cache.Store
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	DB     *database.Connections
	Staff  *staffrepo.Repository
	Cache  cache.Store
	Config config.Config
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	ttl := p.Config.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		db:     p.DB,
		staff:  p.Staff,
		cache:  p.Cache,
		secret: []byte(p.Config.Auth.JWTSecret),
		issuer: p.Config.Auth.Issuer,
		ttl:    ttl,
		now:    time.Now,
		logger: p.Logger,
	}
}

// SignUp registers a staff account with the default role.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (*entity.StaffMember, error) {
	name = strings.TrimSpace(name)
	email = normaliseEmail(email)
	switch {
	case name == "":
		return nil, errorbank.BadRequest("name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, errorbank.BadRequest("a valid email is required")
	case len(password) < minPasswordLength:
		return nil, errorbank.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.staff.GetProfileByEmail(ctx, email); err == nil {
		return nil, errorbank.Conflict("email already registered")
	} else if !errors.Is(err, staffrepo.ErrNotFound) {
		return nil, errorbank.Internal("failed to check email", errorbank.WithCause(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	profile := &entity.StaffProfile{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	err = s.db.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		r := s.staff.WithTx(tx)
		if err := r.CreateProfile(ctx, profile); err != nil {
			return err
		}
		return r.UpsertRole(ctx, profile.ID, entity.DefaultRole)
	})
	if err != nil {
		return nil, errorbank.Internal("failed to create account", errorbank.WithCause(err))
	}

	return &entity.StaffMember{
		ID:       profile.ID,
		Name:     profile.Name,
		Email:    profile.Email,
		Role:     entity.DefaultRole,
		JoinedAt: profile.CreatedAt,
	}, nil
}

// SignIn checks credentials and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	profile, err := s.staff.GetProfileByEmail(ctx, normaliseEmail(email))
	if err != nil {
		if errors.Is(err, staffrepo.ErrNotFound) {
			return nil, errorbank.Unauthorized("invalid email or password")
		}
		return nil, errorbank.Internal("failed to load account", errorbank.WithCause(err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, errorbank.Unauthorized("invalid email or password")
	}
	role, err := s.staff.Role(ctx, profile.ID)
	if err != nil {
		return nil, errorbank.Internal("failed to load role", errorbank.WithCause(err))
	}

	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		Name: profile.Name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errorbank.Internal("failed to sign token", errorbank.WithCause(err))
	}

	s.logger.Info("staff signed in", zap.String("user_id", profile.ID), zap.String("role", string(role)))
	return &Session{
		Token:     token,
		ExpiresAt: exp,
		Member: entity.StaffMember{
			ID:       profile.ID,
			Name:     profile.Name,
			Email:    profile.Email,
			Role:     role,
			JoinedAt: profile.CreatedAt,
		},
	}, nil
}

// Verify parses a token and rejects expired or revoked ones.
func (s *Service) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errorbank.Unauthorized("invalid or expired token")
	}

	if claims.ID != "" && s.cache != nil {
		if _, err := s.cache.Get(ctx, revokedKey(claims.ID)); err == nil {
			return nil, errorbank.Unauthorized("token has been revoked")
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("revocation lookup failed", zap.Error(err))
		}
	}
	return claims, nil
}

// SignOut revokes token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return err
	}
	if s.cache == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedKey(claims.ID), []byte("1"), ttl); err != nil {
		return errorbank.Internal("failed to revoke token", errorbank.WithCause(err))
	}
	return nil
}

func revokedKey(id string) string {
	return "auth:revoked:" + id
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
