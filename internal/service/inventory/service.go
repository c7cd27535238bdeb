package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/entity"
	repo "github.com/Additional-Code/tableside/internal/repository/inventory"
	"github.com/Additional-Code/tableside/pkg/errorbank"
)

// Service tracks stock levels.
type Service struct {
	repo   *repo.Repository
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{repo: p.Repository, logger: p.Logger}
}

// Input carries the editable fields of a stock item.
type Input struct {
	ItemName       string
	Quantity       decimal.Decimal
	Unit           string
	ThresholdLevel decimal.Decimal
	Category       string
}

func (in Input) validate() error {
	switch {
	case strings.TrimSpace(in.ItemName) == "":
		return errorbank.BadRequest("item name is required")
	case strings.TrimSpace(in.Unit) == "":
		return errorbank.BadRequest("unit is required")
	case in.Quantity.IsNegative():
		return errorbank.BadRequest("quantity must not be negative")
	case in.ThresholdLevel.IsNegative():
		return errorbank.BadRequest("threshold must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*entity.InventoryItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := &entity.InventoryItem{ID: uuid.NewString()}
	fill(item, in)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, errorbank.Internal("failed to create inventory item", errorbank.WithCause(err))
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*entity.InventoryItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fill(item, in)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, translate(err, "failed to update inventory item")
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "failed to delete inventory item")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.InventoryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load inventory item")
	}
	return item, nil
}

func (s *Service) List(ctx context.Context) ([]entity.InventoryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list inventory", errorbank.WithCause(err))
	}
	return items, nil
}

// LowStock returns items at or below their threshold.
func (s *Service) LowStock(ctx context.Context) ([]entity.InventoryItem, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]entity.InventoryItem, 0)
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}

// Restock refills an item to three times its threshold.
func (s *Service) Restock(ctx context.Context, id string) (*entity.InventoryItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Quantity = item.RestockLevel()
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, translate(err, "failed to restock inventory item")
	}
	s.logger.Info("inventory restocked", zap.String("item", item.ItemName), zap.String("quantity", item.Quantity.String()))
	return item, nil
}

func fill(item *entity.InventoryItem, in Input) {
	item.ItemName = strings.TrimSpace(in.ItemName)
	item.Quantity = in.Quantity
	item.Unit = strings.TrimSpace(in.Unit)
	item.ThresholdLevel = in.ThresholdLevel
	item.Category = in.Category
	item.UpdatedAt = time.Now().UTC()
}

func translate(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound("inventory item not found")
	}
	return errorbank.Internal(msg, errorbank.WithCause(err))
}
