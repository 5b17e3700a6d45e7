package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db"
	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// Service exposes coupon lookup for checkout and admin management.
type Service interface {
	Resolve(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, input CreateInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput is the admin payload for a coupon. Exactly one of FlatPaise or
// Percent must be positive.
type CreateInput struct {
	Code        string     `json:"code" validate:"required"`
	FlatPaise   int64      `json:"flat_paise" validate:"min=0"`
	Percent     int        `json:"percent" validate:"min=0,max=100"`
	MinSubtotal int64      `json:"min_subtotal" validate:"min=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    *bool      `json:"is_active"`
}

// UpdateInput carries partial coupon updates; nil fields are left untouched.
type UpdateInput struct {
	FlatPaise   *int64     `json:"flat_paise" validate:"omitempty,min=0"`
	Percent     *int       `json:"percent" validate:"omitempty,min=0,max=100"`
	MinSubtotal *int64     `json:"min_subtotal" validate:"omitempty,min=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    *bool      `json:"is_active"`
}

type service struct {
	repo Repository
}

// NewService builds the coupons service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo}, nil
}

// Resolve returns the coupon for a code; applicability (active, expiry,
// minimum) is checked by the pricing calculator at quote time.
func (s *service) Resolve(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	if (input.FlatPaise > 0) == (input.Percent > 0) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of flat_paise or percent must be set")
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	coupon := &models.Coupon{
		Code:        input.Code,
		FlatPaise:   input.FlatPaise,
		Percent:     input.Percent,
		MinSubtotal: input.MinSubtotal,
		ExpiresAt:   input.ExpiresAt,
		IsActive:    isActive,
	}
	created, err := s.repo.Create(ctx, coupon)
	if db.IsUniqueViolation(err) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a coupon with this code already exists")
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) error {
	updates := map[string]any{}
	if input.FlatPaise != nil {
		updates["flat_paise"] = *input.FlatPaise
	}
	if input.Percent != nil {
		updates["percent"] = *input.Percent
	}
	if input.MinSubtotal != nil {
		updates["min_subtotal"] = *input.MinSubtotal
	}
	if input.ExpiresAt != nil {
		updates["expires_at"] = *input.ExpiresAt
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil
	}
	return s.repo.Update(ctx, id, updates)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
