package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

// Line pairs a server-loaded product with the requested quantity. Unit
// prices always come from the product record, never from the client.
type Line struct {
	Product models.Product
	Qty     int
}

// Quote is the authoritative price breakdown for one checkout attempt.
// Total always equals Subtotal + Tax + Delivery - Discount; callers persist
// the quote into the order instead of recomputing later.
type Quote struct {
	SubtotalPaise int64
	TaxPaise      int64
	DeliveryPaise int64
	DiscountPaise int64
	TotalPaise    int64
	TotalQty      int
}

// Compute prices a set of lines with an optional courier and coupon.
// taxPercent is the server-configured rate; tax is floored on the subtotal.
func Compute(lines []Line, courier *models.Courier, taxPercent int, coupon *models.Coupon) (*Quote, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var subtotal int64
	var totalQty int
	for _, line := range lines {
		if line.Qty < 1 {
			return nil, invalidItem(line.Product, "quantity must be at least 1")
		}
		unit := line.Product.ResolvedPricePaise()
		if unit <= 0 {
			return nil, invalidItem(line.Product, "product has no valid price")
		}
		subtotal += unit * int64(line.Qty)
		totalQty += line.Qty
	}

	tax := taxFor(subtotal, taxPercent)

	var delivery int64
	if courier != nil {
		delivery = courier.PricePaise
		if courier.ChargePerItem {
			delivery *= int64(totalQty)
		}
	}

	discount, err := discountFor(subtotal, coupon)
	if err != nil {
		return nil, err
	}

	return &Quote{
		SubtotalPaise: subtotal,
		TaxPaise:      tax,
		DeliveryPaise: delivery,
		DiscountPaise: discount,
		TotalPaise:    subtotal + tax + delivery - discount,
		TotalQty:      totalQty,
	}, nil
}

// taxFor floors subtotal * percent / 100 so the customer is never charged a
// fractional paisa up.
func taxFor(subtotalPaise int64, taxPercent int) int64 {
	if subtotalPaise <= 0 || taxPercent <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotalPaise).
		Mul(decimal.NewFromInt(int64(taxPercent))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

func discountFor(subtotalPaise int64, coupon *models.Coupon) (int64, error) {
	if coupon == nil {
		return 0, nil
	}
	if !coupon.IsActive {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if subtotalPaise < coupon.MinSubtotal {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order does not meet the coupon minimum")
	}

	var discount int64
	switch {
	case coupon.FlatPaise > 0:
		discount = coupon.FlatPaise
	case coupon.Percent > 0:
		discount = decimal.NewFromInt(subtotalPaise).
			Mul(decimal.NewFromInt(int64(coupon.Percent))).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
	}
	if discount > subtotalPaise {
		discount = subtotalPaise
	}
	return discount, nil
}

func invalidItem(product models.Product, reason string) error {
	err := pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid item: %s", reason))
	return err.WithDetails(map[string]any{"product_id": product.ID.String()})
}
