package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages shipping addresses with per-user default handling.
type Service interface {
	Create(ctx context.Context, userID *uuid.UUID, input CreateInput) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input UpdateInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	ResolveForOrder(ctx context.Context, addressID uuid.UUID, userID *uuid.UUID) (*models.Address, error)
}

// CreateInput is the payload for a new shipping address. A nil user creates a
// guest address usable for a single order.
type CreateInput struct {
	Name       string  `json:"name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	IsDefault  bool    `json:"is_default"`
}

// UpdateInput carries partial address updates; nil fields are left untouched.
type UpdateInput struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Line1      *string `json:"line1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
	IsDefault  *bool   `json:"is_default"`
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the address service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, userID *uuid.UUID, input CreateInput) (*models.Address, error) {
	addr := &models.Address{
		UserID:     userID,
		Name:       input.Name,
		Phone:      input.Phone,
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		IsGuest:    userID == nil,
	}

	// Guests cannot hold a default.
	if !input.IsDefault || userID == nil {
		return s.repo.Create(ctx, addr)
	}

	addr.IsDefault = true
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		if err := scoped.ClearDefaults(ctx, *userID); err != nil {
			return err
		}
		_, err := scoped.Create(ctx, addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input UpdateInput) (*models.Address, error) {
	if _, err := s.findOwned(ctx, userID, addressID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Line1 != nil {
		updates["line1"] = *input.Line1
	}
	if input.Line2 != nil {
		updates["line2"] = *input.Line2
	}
	if input.City != nil {
		updates["city"] = *input.City
	}
	if input.State != nil {
		updates["state"] = *input.State
	}
	if input.PostalCode != nil {
		updates["postal_code"] = *input.PostalCode
	}

	if input.IsDefault != nil && *input.IsDefault {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			scoped := s.repo.WithTx(tx)
			if err := scoped.ClearDefaults(ctx, userID); err != nil {
				return err
			}
			updates["is_default"] = true
			return scoped.Update(ctx, addressID, updates)
		})
		if err != nil {
			return nil, err
		}
	} else {
		if input.IsDefault != nil {
			updates["is_default"] = false
		}
		if len(updates) > 0 {
			if err := s.repo.Update(ctx, addressID, updates); err != nil {
				return nil, err
			}
		}
	}
	return s.repo.FindByID(ctx, addressID)
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.findOwned(ctx, userID, addressID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, addressID)
}

// ResolveForOrder loads an address and enforces ownership: a logged-in user
// may only ship to their own addresses, a guest only to guest addresses.
func (s *service) ResolveForOrder(ctx context.Context, addressID uuid.UUID, userID *uuid.UUID) (*models.Address, error) {
	addr, err := s.repo.FindByID(ctx, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, err
	}

	if userID != nil {
		if addr.UserID == nil || *addr.UserID != *userID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to this account")
		}
		return addr, nil
	}
	if !addr.IsGuest {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address requires a signed-in account")
	}
	return addr, nil
}

func (s *service) findOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	addr, err := s.repo.FindByID(ctx, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, err
	}
	if addr.UserID == nil || *addr.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to this account")
	}
	return addr, nil
}
