package seeder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/database"
	"github.com/Additional-Code/tableside/internal/entity"
	authsvc "github.com/Additional-Code/tableside/internal/service/auth"
	staffsvc "github.com/Additional-Code/tableside/internal/service/staff"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// FloorSize is the number of tables in the default floor plan.
const FloorSize = 10

// Params lists the seeder dependencies.
type Params struct {
	fx.In

	DB     *database.Connections
	Auth   *authsvc.Service
	Staff  *staffsvc.Service
	Logger *zap.Logger
}

// Seeder performs database seeding for local/dev setups. Every step skips
// rows that already exist, so seeding twice is harmless.
type Seeder struct {
	db     *bun.DB
	auth   *authsvc.Service
	staff  *staffsvc.Service
	logger *zap.Logger
	now    func() time.Time
}

// Admin describes the bootstrap admin account. An empty password skips it.
type Admin struct {
	Name     string
	Email    string
	Password string
}

// New constructs a Seeder backed by the primary database connection.
func New(p Params) *Seeder {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: p.DB.Writer, auth: p.Auth, staff: p.Staff, logger: logger, now: time.Now}
}

// All runs every seeding step in order.
func (s *Seeder) All(ctx context.Context, admin Admin) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"tables", s.Tables},
		{"menu", s.Menu},
		{"inventory", s.Inventory},
		{"admin", func(ctx context.Context) error { return s.Admin(ctx, admin) }},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
	}
	return nil
}

// Tables seeds the floor plan: tables 1 and 2 seat two, the rest seat four.
func (s *Seeder) Tables(ctx context.Context) error {
	var existing []int
	if err := s.db.NewSelect().Model((*entity.Table)(nil)).Column("number").Scan(ctx, &existing); err != nil {
		return err
	}
	taken := make(map[int]bool, len(existing))
	for _, n := range existing {
		taken[n] = true
	}

	now := s.now().UTC()
	var tables []entity.Table
	for n := 1; n <= FloorSize; n++ {
		if taken[n] {
			continue
		}
		capacity := 4
		if n <= 2 {
			capacity = 2
		}
		tables = append(tables, entity.Table{
			ID:        uuid.NewString(),
			Number:    n,
			Capacity:  capacity,
			Status:    entity.TableAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(tables) > 0 {
		if _, err := s.db.NewInsert().Model(&tables).Exec(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("seeded tables", zap.Int("count", len(tables)))
	return nil
}

type menuSeed struct {
	name        string
	price       int64
	description string
	variants    []entity.PriceModifier
	addons      []entity.PriceModifier
}

func mod(name string, price int64) entity.PriceModifier {
	return entity.PriceModifier{Name: name, Price: decimal.NewFromInt(price)}
}

var menuSeeds = []struct {
	category string
	items    []menuSeed
}{
	{"Starters", []menuSeed{
		{"Galouti Kebab", 850, "Minced lamb kebabs on saffron parathas", nil, []entity.PriceModifier{mod("Extra Paratha", 50)}},
		{"Tandoori Jhinga", 1200, "Chargrilled jumbo prawns in saffron and yogurt", []entity.PriceModifier{mod("Half (6 pcs)", 0), mod("Full (12 pcs)", 1000)}, nil},
		{"Paneer Tikka", 650, "Stuffed cottage cheese grilled in the tandoor", nil, nil},
	}},
	{"Main Course", []menuSeed{
		{"Butter Chicken", 950, "Tandoori chicken in a creamy tomato gravy", []entity.PriceModifier{mod("Bone-in", 0), mod("Boneless", 100)}, []entity.PriceModifier{mod("Extra Butter", 50)}},
		{"Nalli Nihari", 1100, "Slow-cooked lamb shank stew", nil, nil},
		{"Dal Bukhara", 750, "Black lentils simmered overnight with cream", nil, []entity.PriceModifier{mod("Extra Cream", 30)}},
	}},
	{"Breads & Rice", []menuSeed{
		{"Dum Biryani", 850, "Basmati rice and lamb cooked on dum", []entity.PriceModifier{mod("Chicken", -100), mod("Lamb", 0)}, []entity.PriceModifier{mod("Raita", 50)}},
		{"Bread Basket", 450, "Naan, roti and paratha", nil, nil},
	}},
	{"Desserts", []menuSeed{
		{"Saffron Rasmalai", 350, "Cottage cheese dumplings in saffron milk", nil, nil},
		{"Gulab Jamun Cheesecake", 450, "Gulab jamun baked into cheesecake", nil, []entity.PriceModifier{mod("Scoop of Vanilla", 80)}},
	}},
	{"Beverages", []menuSeed{
		{"Royal Thandai", 400, "Almond milk with saffron, cardamom and rose", nil, nil},
		{"Masala Chai", 150, "Spiced milk tea", nil, nil},
	}},
}

// Menu seeds categories and their items. Existing rows are matched by name.
func (s *Seeder) Menu(ctx context.Context) error {
	categories, items := 0, 0
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i, group := range menuSeeds {
			category := entity.MenuCategory{}
			err := tx.NewSelect().Model(&category).Where("name = ?", group.category).Limit(1).Scan(ctx)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				category = entity.MenuCategory{ID: uuid.NewString(), Name: group.category, SortOrder: i + 1}
				if _, err := tx.NewInsert().Model(&category).Exec(ctx); err != nil {
					return err
				}
				categories++
			case err != nil:
				return err
			}

			for _, seed := range group.items {
				exists, err := tx.NewSelect().Model((*entity.MenuItem)(nil)).Where("name = ?", seed.name).Exists(ctx)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
				categoryID := category.ID
				item := &entity.MenuItem{
					ID:          uuid.NewString(),
					Name:        seed.name,
					CategoryID:  &categoryID,
					Category:    category.Name,
					Price:       decimal.NewFromInt(seed.price),
					Description: seed.description,
					Variants:    seed.variants,
					Addons:      seed.addons,
					IsAvailable: true,
				}
				if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
					return err
				}
				items++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("seeded menu", zap.Int("categories", categories), zap.Int("items", items))
	return nil
}

var inventorySeeds = []struct {
	name      string
	quantity  string
	unit      string
	threshold string
	category  string
}{
	{"Basmati Rice", "25", "kg", "5", "Dry Goods"},
	{"Lamb Leg", "10", "kg", "3", "Meat"},
	{"Boneless Chicken", "15", "kg", "5", "Meat"},
	{"Jumbo Prawns", "5", "kg", "2", "Seafood"},
	{"Paneer", "8", "kg", "2", "Dairy"},
	{"Heavy Cream", "12", "L", "4", "Dairy"},
	{"Butter", "10", "kg", "2", "Dairy"},
	{"Saffron", "0.1", "kg", "0.02", "Spices"},
	{"Black Lentils", "10", "kg", "3", "Dry Goods"},
	{"Refined Flour", "20", "kg", "5", "Dry Goods"},
	{"Tomato Puree", "15", "L", "5", "Produce"},
}

// Inventory seeds the stock list. Existing rows are matched by item name.
func (s *Seeder) Inventory(ctx context.Context) error {
	var existing []string
	if err := s.db.NewSelect().Model((*entity.InventoryItem)(nil)).Column("item_name").Scan(ctx, &existing); err != nil {
		return err
	}
	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[name] = true
	}

	now := s.now().UTC()
	var items []entity.InventoryItem
	for _, seed := range inventorySeeds {
		if taken[seed.name] {
			continue
		}
		items = append(items, entity.InventoryItem{
			ID:             uuid.NewString(),
			ItemName:       seed.name,
			Quantity:       decimal.RequireFromString(seed.quantity),
			Unit:           seed.unit,
			ThresholdLevel: decimal.RequireFromString(seed.threshold),
			Category:       seed.category,
			UpdatedAt:      now,
		})
	}
	if len(items) > 0 {
		if _, err := s.db.NewInsert().Model(&items).Exec(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("seeded inventory", zap.Int("count", len(items)))
	return nil
}

// Admin registers the bootstrap account and promotes it to admin.
func (s *Seeder) Admin(ctx context.Context, admin Admin) error {
	if admin.Password == "" {
		s.logger.Info("admin seed skipped; no password given")
		return nil
	}
	if admin.Name == "" {
		admin.Name = "Administrator"
	}

	member, err := s.auth.SignUp(ctx, admin.Name, admin.Email, admin.Password)
	if errorbank.IsKind(err, errorbank.KindConflict) {
		s.logger.Info("admin account already exists", zap.String("email", admin.Email))
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.staff.UpdateRole(ctx, member.ID, entity.RoleAdmin); err != nil {
		return err
	}

	s.logger.Info("seeded admin account", zap.String("email", member.Email))
	return nil
}
