package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db"
	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// Service exposes catalog reads for the storefront and writes for admins.
type Service interface {
	List(ctx context.Context, search string) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	LoadForPricing(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput is the admin payload for a new catalog listing.
type CreateInput struct {
	SKU             string  `json:"sku" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	Description     *string `json:"description"`
	PricePaise      int64   `json:"price_paise" validate:"required,gt=0"`
	OfferPricePaise *int64  `json:"offer_price_paise" validate:"omitempty,gt=0"`
	Stock           int     `json:"stock" validate:"min=0"`
	IsActive        *bool   `json:"is_active"`
}

// UpdateInput carries partial catalog updates; nil fields are left untouched.
type UpdateInput struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	PricePaise      *int64  `json:"price_paise" validate:"omitempty,gt=0"`
	OfferPricePaise *int64  `json:"offer_price_paise"`
	Stock           *int    `json:"stock" validate:"omitempty,min=0"`
	IsActive        *bool   `json:"is_active"`
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, search string) ([]models.Product, error) {
	return s.repo.ListActive(ctx, search)
}

func (s *service) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

// LoadForPricing resolves every requested id or fails; a missing or inactive
// product invalidates the whole checkout attempt.
func (s *service) LoadForPricing(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, p := range rows {
		if p.IsActive {
			byID[p.ID] = p
		}
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item: product unavailable").
				WithDetails(map[string]any{"product_id": id.String()})
		}
	}
	return byID, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product := &models.Product{
		SKU:             input.SKU,
		Name:            input.Name,
		Description:     input.Description,
		PricePaise:      input.PricePaise,
		OfferPricePaise: input.OfferPricePaise,
		Stock:           input.Stock,
		IsActive:        isActive,
	}
	created, err := s.repo.Create(ctx, product)
	if db.IsUniqueViolation(err) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this SKU already exists")
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PricePaise != nil {
		updates["price_paise"] = *input.PricePaise
	}
	if input.OfferPricePaise != nil {
		updates["offer_price_paise"] = *input.OfferPricePaise
	}
	if input.Stock != nil {
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
