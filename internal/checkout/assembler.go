package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/internal/address"
	"github.com/prayagtech/storefront/internal/coupons"
	"github.com/prayagtech/storefront/internal/couriers"
	"github.com/prayagtech/storefront/internal/pricing"
	"github.com/prayagtech/storefront/internal/products"
	"github.com/prayagtech/storefront/internal/settings"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// ItemInput is one requested line: the server resolves the price itself and
// never trusts client-sent amounts.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"min=1,max=100"`
}

// Request is the checkout payload. Exactly one of AddressID (an existing
// saved address) or Address (inline, persisted as a guest address when no
// user is signed in) must be set.
type Request struct {
	Items      []ItemInput          `json:"items" validate:"required,min=1"`
	AddressID  *uuid.UUID           `json:"address_id"`
	Address    *address.CreateInput `json:"address"`
	CourierID  uuid.UUID            `json:"courier_id" validate:"required"`
	CouponCode *string              `json:"coupon_code"`
}

// Assembler turns a checkout request into a fully priced, unsaved order
// draft. It is shared by the initiate path and the Razorpay verification
// path, which must re-run the same validation and pricing from scratch.
type Assembler struct {
	catalog   products.Service
	addresses address.Service
	coupons   coupons.Service
	couriers  couriers.Service
	settings  settings.Service
}

// NewAssembler builds the order assembler.
func NewAssembler(catalog products.Service, addresses address.Service, couponsSvc coupons.Service, couriersSvc couriers.Service, settingsSvc settings.Service) (*Assembler, error) {
	if catalog == nil || addresses == nil || couponsSvc == nil || couriersSvc == nil || settingsSvc == nil {
		return nil, fmt.Errorf("all assembler dependencies are required")
	}
	return &Assembler{
		catalog:   catalog,
		addresses: addresses,
		coupons:   couponsSvc,
		couriers:  couriersSvc,
		settings:  settingsSvc,
	}, nil
}

// Assemble validates the request against current catalog and settings state
// and returns an order draft priced from server-trusted data. The draft has
// a fresh transaction id and pending payment status; adapters adjust both as
// their flow requires.
func (a *Assembler) Assemble(ctx context.Context, userID *uuid.UUID, req Request) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	shipTo, err := a.resolveAddress(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	courier, err := a.couriers.ResolveForCheckout(ctx, req.CourierID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	byID, err := a.catalog.LoadForPricing(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, pricing.Line{Product: byID[item.ProductID], Qty: item.Qty})
	}

	coupon, err := a.resolveCoupon(ctx, req.CouponCode)
	if err != nil {
		return nil, err
	}

	cfg, err := a.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.Compute(lines, courier, cfg.TaxPercent, coupon)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:         userID,
		AddressID:      shipTo.ID,
		CourierName:    courier.Name,
		CourierPaise:   courier.PricePaise,
		SubtotalPaise:  quote.SubtotalPaise,
		TaxPaise:       quote.TaxPaise,
		DeliveryPaise:  quote.DeliveryPaise,
		DiscountPaise:  quote.DiscountPaise,
		TotalPaise:     quote.TotalPaise,
		PaymentStatus:  enums.PaymentStatusPending,
		DeliveryStatus: enums.DeliveryStatusOrderPlaced,
		TransactionID:  "txn-" + uuid.NewString(),
	}
	if coupon != nil && quote.DiscountPaise > 0 {
		order.CouponCode = &coupon.Code
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderLineItem{
			ProductID:      line.Product.ID,
			Name:           line.Product.Name,
			UnitPricePaise: line.Product.ResolvedPricePaise(),
			Qty:            line.Qty,
		})
	}
	return order, nil
}

func (a *Assembler) resolveAddress(ctx context.Context, userID *uuid.UUID, req Request) (*models.Address, error) {
	switch {
	case req.AddressID != nil:
		return a.addresses.ResolveForOrder(ctx, *req.AddressID, userID)
	case req.Address != nil:
		return a.addresses.Create(ctx, userID, *req.Address)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a shipping address is required")
	}
}

func (a *Assembler) resolveCoupon(ctx context.Context, code *string) (*models.Coupon, error) {
	if code == nil || *code == "" {
		return nil, nil
	}
	coupon, err := a.coupons.Resolve(ctx, *code)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
		}
		return nil, err
	}
	return coupon, nil
}
