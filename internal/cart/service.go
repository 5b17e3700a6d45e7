package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/internal/products"
	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// Service manages the signed-in user's persisted cart.
type Service interface {
	Put(ctx context.Context, userID uuid.UUID, input PutInput) error
	List(ctx context.Context, userID uuid.UUID) (*View, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// PutInput sets the quantity for one product; zero removes the row.
type PutInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"min=0,max=100"`
}

// ViewItem is one cart row joined with its live product.
type ViewItem struct {
	Product        models.Product `json:"product"`
	Qty            int            `json:"qty"`
	UnitPricePaise int64          `json:"unit_price_paise"`
	LineTotalPaise int64          `json:"line_total_paise"`
}

// View is the cart with per-line and total amounts from current prices.
// Totals here are advisory; checkout reprices from scratch.
type View struct {
	Items         []ViewItem `json:"items"`
	SubtotalPaise int64      `json:"subtotal_paise"`
}

type service struct {
	repo    Repository
	catalog products.Service
}

// NewService builds the cart service.
func NewService(repo Repository, catalog products.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

func (s *service) Put(ctx context.Context, userID uuid.UUID, input PutInput) error {
	if input.Qty == 0 {
		return s.repo.Remove(ctx, userID, input.ProductID)
	}
	if input.Qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	product, err := s.catalog.Get(ctx, input.ProductID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is unavailable")
	}

	return s.repo.Upsert(ctx, &models.CartItem{
		UserID:    userID,
		ProductID: input.ProductID,
		Qty:       input.Qty,
	})
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (*View, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &View{Items: []ViewItem{}}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	byID, err := s.catalog.LoadForPricing(ctx, ids)
	if err != nil {
		// A product pulled from the catalog since it was carted: surface the
		// remaining rows rather than failing the whole cart read.
		return s.listTolerant(ctx, userID, rows)
	}

	view := &View{Items: make([]ViewItem, 0, len(rows))}
	for _, row := range rows {
		product := byID[row.ProductID]
		unit := product.ResolvedPricePaise()
		lineTotal := unit * int64(row.Qty)
		view.Items = append(view.Items, ViewItem{
			Product:        product,
			Qty:            row.Qty,
			UnitPricePaise: unit,
			LineTotalPaise: lineTotal,
		})
		view.SubtotalPaise += lineTotal
	}
	return view, nil
}

func (s *service) listTolerant(ctx context.Context, userID uuid.UUID, rows []models.CartItem) (*View, error) {
	view := &View{Items: []ViewItem{}}
	for _, row := range rows {
		product, err := s.catalog.Get(ctx, row.ProductID)
		if err != nil || !product.IsActive {
			if removeErr := s.repo.Remove(ctx, userID, row.ProductID); removeErr != nil {
				return nil, removeErr
			}
			continue
		}
		unit := product.ResolvedPricePaise()
		lineTotal := unit * int64(row.Qty)
		view.Items = append(view.Items, ViewItem{
			Product:        *product,
			Qty:            row.Qty,
			UnitPricePaise: unit,
			LineTotalPaise: lineTotal,
		})
		view.SubtotalPaise += lineTotal
	}
	return view, nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.repo.Remove(ctx, userID, productID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}
