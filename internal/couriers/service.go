package couriers

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

// Service manages the delivery options offered at checkout.
type Service interface {
	List(ctx context.Context) ([]models.Courier, error)
	ListAll(ctx context.Context) ([]models.Courier, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	ResolveForCheckout(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	Create(ctx context.Context, input CreateInput) (*models.Courier, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Courier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput is the admin payload for a new delivery option.
type CreateInput struct {
	Name          string `json:"name" validate:"required"`
	PricePaise    int64  `json:"price_paise" validate:"min=0"`
	ChargePerItem bool   `json:"charge_per_item"`
	IsActive      *bool  `json:"is_active"`
}

// UpdateInput carries partial courier updates; nil fields are left untouched.
type UpdateInput struct {
	Name          *string `json:"name"`
	PricePaise    *int64  `json:"price_paise"`
	ChargePerItem *bool   `json:"charge_per_item"`
	IsActive      *bool   `json:"is_active"`
}

type service struct {
	repo Repository
}

// NewService builds the couriers service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("couriers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Courier, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) ListAll(ctx context.Context) ([]models.Courier, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	courier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return nil, err
	}
	return courier, nil
}

// ResolveForCheckout returns the courier only when it is currently offered.
func (s *service) ResolveForCheckout(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	courier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !courier.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected delivery option is unavailable")
	}
	return courier, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Courier, error) {
	if input.PricePaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery price cannot be negative")
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	courier := &models.Courier{
		Name:          input.Name,
		PricePaise:    input.PricePaise,
		ChargePerItem: input.ChargePerItem,
		IsActive:      isActive,
	}
	created, err := s.repo.Create(ctx, courier)
	if db.IsUniqueViolation(err) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a courier with this name already exists")
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Courier, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.PricePaise != nil {
		if *input.PricePaise < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery price cannot be negative")
		}
		updates["price_paise"] = *input.PricePaise
	}
	if input.ChargePerItem != nil {
		updates["charge_per_item"] = *input.ChargePerItem
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
