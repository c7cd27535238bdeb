// Package transporttest builds a fully wired echo instance over an
// in-memory database for handler tests.
package transporttest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/cache"
	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/database/dbtest"
	"github.com/Additional-Code/tableside/internal/entity"
	"github.com/Additional-Code/tableside/internal/payment"
	"github.com/Additional-Code/tableside/internal/realtime"
	inventoryrepo "github.com/Additional-Code/tableside/internal/repository/inventory"
	menurepo "github.com/Additional-Code/tableside/internal/repository/menu"
	orderrepo "github.com/Additional-Code/tableside/internal/repository/order"
	reservationrepo "github.com/Additional-Code/tableside/internal/repository/reservation"
	staffrepo "github.com/Additional-Code/tableside/internal/repository/staff"
	tablerepo "github.com/Additional-Code/tableside/internal/repository/table"
	authsvc "github.com/Additional-Code/tableside/internal/service/auth"
	inventorysvc "github.com/Additional-Code/tableside/internal/service/inventory"
	menusvc "github.com/Additional-Code/tableside/internal/service/menu"
	ordersvc "github.com/Additional-Code/tableside/internal/service/order"
	reservationsvc "github.com/Additional-Code/tableside/internal/service/reservation"
	staffsvc "github.com/Additional-Code/tableside/internal/service/staff"
	"github.com/Additional-Code/tableside/internal/service/stats"
	tablesvc "github.com/Additional-Code/tableside/internal/service/table"
	"github.com/Additional-Code/tableside/internal/service/workflow"
	"github.com/Additional-Code/tableside/internal/transport/http/middleware"
	"github.com/Additional-Code/tableside/internal/transport/http/request"
	"github.com/Additional-Code/tableside/internal/voice"
)

// Harness holds the services behind a test echo instance.
type Harness struct {
	Echo         *echo.Echo
	DB           *database.Connections
	Config       config.Config
	Cache        *cache.Memory
	Hub          *realtime.Hub
	Auth         *authsvc.Service
	Guard        *middleware.Authenticator
	Tables       *tablesvc.Service
	Orders       *ordersvc.Service
	Reservations *reservationsvc.Service
	Menu         *menusvc.Service
	Inventory    *inventorysvc.Service
	Staff        *staffsvc.Service
	Stats        *stats.Service
	Workflow     *workflow.Coordinator
	Parser       *voice.Parser
	Gateway      payment.Gateway
}

// Option adjusts the harness before services are built.
type Option func(*options)

type options struct {
	gateway   payment.Gateway
	completer voice.Completer
}

// WithGateway replaces the default instant mock gateway.
func WithGateway(g payment.Gateway) Option {
	return func(o *options) { o.gateway = g }
}

// WithCompleter replaces the default completer, which finds nothing.
func WithCompleter(c voice.Completer) Option {
	return func(o *options) { o.completer = c }
}

// New builds a harness with every service wired to a fresh database.
// Handlers are not registered; tests call the package Register they cover.
func New(t testing.TB, opts ...Option) *Harness {
	t.Helper()
	o := options{
		gateway:   &payment.MockGateway{Now: time.Now},
		completer: voice.NoopCompleter{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := zap.NewNop()
	conns := dbtest.Open(t)
	var cfg config.Config
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Issuer = "tableside-test"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Payment.Currency = "INR"
	cfg.Restaurant.Location = time.UTC

	store := cache.NewMemory(time.Minute)
	hub := realtime.NewHub(nil, logger)

	tableRepo := tablerepo.NewRepository(conns)
	tables := tablesvc.NewService(tablesvc.Params{Repository: tableRepo, Hub: hub, Logger: logger})
	orders, err := ordersvc.NewService(ordersvc.Params{
		DB:         conns,
		Repository: orderrepo.NewRepository(conns),
		Tables:     tableRepo,
		Registry:   tables,
		Cache:      store,
		Config:     cfg,
		Logger:     logger,
		Hub:        hub,
	})
	require.NoError(t, err)
	reservations, err := reservationsvc.NewService(reservationsvc.Params{
		Repository: reservationrepo.NewRepository(conns),
		Logger:     logger,
		Hub:        hub,
	})
	require.NoError(t, err)
	wf, err := workflow.NewCoordinator(workflow.Params{
		Orders:       orders,
		Tables:       tables,
		Reservations: reservations,
		Gateway:      o.gateway,
		Config:       cfg,
		Logger:       logger,
	})
	require.NoError(t, err)

	staffRepo := staffrepo.NewRepository(conns)
	menu := menusvc.NewService(menusvc.Params{Repository: menurepo.NewRepository(conns), Cache: store, Config: cfg, Logger: logger})
	inventory := inventorysvc.NewService(inventorysvc.Params{Repository: inventoryrepo.NewRepository(conns), Logger: logger})
	staff := staffsvc.NewService(staffsvc.Params{DB: conns, Repository: staffRepo, Logger: logger})
	auth := authsvc.NewService(authsvc.Params{DB: conns, Staff: staffRepo, Cache: store, Config: cfg, Logger: logger})
	st := stats.NewService(stats.Params{
		Orders:       orders,
		Reservations: reservations,
		Tables:       tables,
		Inventory:    inventory,
		Config:       cfg,
		Logger:       logger,
	})

	e := echo.New()
	e.Validator = request.NewValidator()

	return &Harness{
		Echo:         e,
		DB:           conns,
		Config:       cfg,
		Cache:        store,
		Hub:          hub,
		Auth:         auth,
		Guard:        middleware.NewAuthenticator(auth),
		Tables:       tables,
		Orders:       orders,
		Reservations: reservations,
		Menu:         menu,
		Inventory:    inventory,
		Staff:        staff,
		Stats:        st,
		Workflow:     wf,
		Parser:       voice.NewParser(o.completer, logger),
		Gateway:      o.gateway,
	}
}

// Token signs up a staff member with role and returns a bearer token.
func (h *Harness) Token(t testing.TB, email string, role entity.Role) string {
	t.Helper()
	ctx := context.Background()
	member, err := h.Auth.SignUp(ctx, "Staff "+string(role), email, "password123")
	require.NoError(t, err)
	if role != entity.DefaultRole {
		require.NoError(t, h.Staff.UpdateRole(ctx, member.ID, role))
	}
	session, err := h.Auth.SignIn(ctx, email, "password123")
	require.NoError(t, err)
	return session.Token
}

// Table creates a table for tests.
func (h *Harness) Table(t testing.TB, number, capacity int) *entity.Table {
	t.Helper()
	table, err := h.Tables.Create(context.Background(), tablesvc.CreateInput{Number: number, Capacity: capacity})
	require.NoError(t, err)
	return table
}

// Envelope mirrors the JSON response envelope.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Meta map[string]json.RawMessage `json:"meta"`
}

// Do sends a request through the echo instance. body is JSON encoded when
// not nil.
func (h *Harness) Do(t testing.TB, method, path, token string, body any) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Echo.ServeHTTP(rec, req)

	var env Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

// Decode unmarshals raw into a value of type T.
func Decode[T any](t testing.TB, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}
