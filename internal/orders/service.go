package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// Service exposes order reads and the admin fulfillment transitions. Payment
// state is owned by the reconciler, not this service.
type Service interface {
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context, filters ListFilters) ([]models.Order, error)
	UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, status enums.DeliveryStatus) (*models.Order, error)
}

// Actor scopes a read to the requesting identity. Admins read everything.
type Actor struct {
	UserID *uuid.UUID
	Role   enums.UserRole
}

// deliveryTransitions describes the legal forward moves. Cancelled is
// reachable from any non-terminal state.
var deliveryTransitions = map[enums.DeliveryStatus][]enums.DeliveryStatus{
	enums.DeliveryStatusOrderPlaced: {enums.DeliveryStatusProcessing, enums.DeliveryStatusCancelled},
	enums.DeliveryStatusProcessing:  {enums.DeliveryStatusShipped, enums.DeliveryStatusCancelled},
	enums.DeliveryStatusShipped:     {enums.DeliveryStatusDelivered, enums.DeliveryStatusCancelled},
	enums.DeliveryStatusDelivered:   {},
	enums.DeliveryStatusCancelled:   {},
}

type service struct {
	repo Repository
}

// NewService builds the orders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}

	if actor.Role == enums.UserRoleAdmin {
		return order, nil
	}
	if actor.UserID == nil || order.UserID == nil || *order.UserID != *actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to this account")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context, filters ListFilters) ([]models.Order, error) {
	return s.repo.List(ctx, filters)
}

func (s *service) UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, status enums.DeliveryStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(order.DeliveryStatus, status) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot move delivery status from %s to %s", order.DeliveryStatus, status))
	}

	if err := s.repo.UpdateDeliveryStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, orderID)
}

func transitionAllowed(from, to enums.DeliveryStatus) bool {
	for _, next := range deliveryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
