package menu

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/cache"
	"github.com/Additional-Code/tableside/internal/cart"
	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/entity"
	repo "github.com/Additional-Code/tableside/internal/repository/menu"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

const itemsCacheKey = "menu:items"

// Service manages the menu and prices cart lines against it.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   p.Logger,
	}
}

// ItemInput carries the editable fields of a menu item.
type ItemInput struct {
	Name        string
	CategoryID  string
	Price       decimal.Decimal
	Description string
	ImageURL    string
	Variants    []entity.PriceModifier
	Addons      []entity.PriceModifier
	IsAvailable bool
}

// ListItems returns the whole menu, served from cache when possible.
func (s *Service) ListItems(ctx context.Context) ([]entity.MenuItem, error) {
	if items, ok := s.cachedItems(ctx); ok {
		return items, nil
	}
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list menu", errorbank.WithCause(err))
	}
	s.storeItems(ctx, items)
	return items, nil
}

// GetItem loads one menu item.
func (s *Service) GetItem(ctx context.Context, id string) (*entity.MenuItem, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load menu item")
	}
	return item, nil
}

// CreateItem adds a dish.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*entity.MenuItem, error) {
	item := &entity.MenuItem{ID: uuid.NewString()}
	if err := s.apply(ctx, item, in); err != nil {
		return nil, err
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, errorbank.Internal("failed to create menu item", errorbank.WithCause(err))
	}
	s.invalidate(ctx)
	return item, nil
}

// UpdateItem replaces the editable fields of a dish.
func (s *Service) UpdateItem(ctx context.Context, id string, in ItemInput) (*entity.MenuItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, item, in); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, translate(err, "failed to update menu item")
	}
	s.invalidate(ctx)
	return item, nil
}

// SetAvailability toggles whether a dish can be ordered.
func (s *Service) SetAvailability(ctx context.Context, id string, available bool) (*entity.MenuItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.IsAvailable = available
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, translate(err, "failed to update menu item")
	}
	s.invalidate(ctx)
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return translate(err, "failed to delete menu item")
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) apply(ctx context.Context, item *entity.MenuItem, in ItemInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return errorbank.BadRequest("name is required")
	}
	if in.Price.IsNegative() {
		return errorbank.BadRequest("price must not be negative")
	}
	for _, mod := range append(append([]entity.PriceModifier{}, in.Variants...), in.Addons...) {
		if strings.TrimSpace(mod.Name) == "" || mod.Price.IsNegative() {
			return errorbank.BadRequest("variants and addons need a name and a non-negative price")
		}
	}

	item.CategoryID = nil
	item.Category = ""
	if in.CategoryID != "" {
		cat, err := s.repo.GetCategory(ctx, in.CategoryID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errorbank.BadRequest("unknown category", errorbank.WithDetail("category_id", in.CategoryID))
			}
			return errorbank.Internal("failed to load category", errorbank.WithCause(err))
		}
		item.CategoryID = &cat.ID
		item.Category = cat.Name
	}

	item.Name = name
	item.Price = in.Price
	item.Description = in.Description
	item.ImageURL = in.ImageURL
	item.Variants = in.Variants
	item.Addons = in.Addons
	item.IsAvailable = in.IsAvailable
	return nil
}

// ListCategories returns categories in display order.
func (s *Service) ListCategories(ctx context.Context) ([]entity.MenuCategory, error) {
	out, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list categories", errorbank.WithCause(err))
	}
	return out, nil
}

// CreateCategory adds a menu section.
func (s *Service) CreateCategory(ctx context.Context, name string, sortOrder int) (*entity.MenuCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorbank.BadRequest("name is required")
	}
	cat := &entity.MenuCategory{ID: uuid.NewString(), Name: name, SortOrder: sortOrder}
	if err := s.repo.CreateCategory(ctx, cat); err != nil {
		return nil, errorbank.Internal("failed to create category", errorbank.WithCause(err))
	}
	return cat, nil
}

// Snapshot prices a cart line against the current menu. The unit price is
// the base price plus every selected variant and addon.
func (s *Service) Snapshot(ctx context.Context, line cart.Line) (entity.OrderItem, error) {
	if line.Quantity < 1 {
		return entity.OrderItem{}, errorbank.BadRequest("quantity must be at least 1")
	}
	item, err := s.repo.GetItem(ctx, line.MenuItemID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.OrderItem{}, errorbank.BadRequest("unknown menu item", errorbank.WithDetail("menu_item_id", line.MenuItemID))
		}
		return entity.OrderItem{}, errorbank.Internal("failed to load menu item", errorbank.WithCause(err))
	}
	if !item.IsAvailable {
		return entity.OrderItem{}, errorbank.Unprocessable("menu item is unavailable", errorbank.WithDetail("menu_item_id", item.ID))
	}

	price := item.Price
	for _, name := range line.Variants {
		mod, ok := item.FindVariant(name)
		if !ok {
			return entity.OrderItem{}, errorbank.BadRequest("unknown variant", errorbank.WithDetail("variant", name))
		}
		price = price.Add(mod.Price)
	}
	for _, name := range line.Addons {
		mod, ok := item.FindAddon(name)
		if !ok {
			return entity.OrderItem{}, errorbank.BadRequest("unknown addon", errorbank.WithDetail("addon", name))
		}
		price = price.Add(mod.Price)
	}

	return entity.OrderItem{
		MenuItemID: item.ID,
		Name:       item.Name,
		Quantity:   line.Quantity,
		Price:      price,
		Variants:   line.Variants,
		Addons:     line.Addons,
		Notes:      line.Notes,
	}, nil
}

// SnapshotCart prices every line of c.
func (s *Service) SnapshotCart(ctx context.Context, c *cart.Cart) ([]entity.OrderItem, error) {
	lines := c.Lines()
	items := make([]entity.OrderItem, 0, len(lines))
	for _, line := range lines {
		item, err := s.Snapshot(ctx, line)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) cachedItems(ctx context.Context) ([]entity.MenuItem, bool) {
	var items []entity.MenuItem
	if err := cache.GetJSON(ctx, s.cache, itemsCacheKey, &items); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("menu cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return items, true
}

func (s *Service) storeItems(ctx context.Context, items []entity.MenuItem) {
	if err := cache.SetJSON(ctx, s.cache, itemsCacheKey, items, s.cacheTTL); err != nil {
		s.logger.Warn("menu cache write failed", zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, itemsCacheKey); err != nil {
		s.logger.Warn("menu cache delete failed", zap.Error(err))
	}
}

func translate(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("menu item not found")
	}
	return errorbank.Internal(msg, errorbank.WithCause(err))
}
