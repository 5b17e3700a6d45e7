package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

func product(pricePaise int64, offerPaise *int64) models.Product {
	return models.Product{
		ID:              uuid.New(),
		Name:            "test product",
		PricePaise:      pricePaise,
		OfferPricePaise: offerPaise,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestComputeOfferPriceCourierAndTax(t *testing.T) {
	// price 100, offer 90, qty 2, flat courier 50, 2% tax:
	// subtotal 180, tax floor(3.6)=3, delivery 50, total 233.
	quote, err := Compute(
		[]Line{{Product: product(100, int64Ptr(90)), Qty: 2}},
		&models.Courier{PricePaise: 50},
		2,
		nil,
	)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if quote.SubtotalPaise != 180 {
		t.Errorf("subtotal: got %d, want 180", quote.SubtotalPaise)
	}
	if quote.TaxPaise != 3 {
		t.Errorf("tax: got %d, want 3", quote.TaxPaise)
	}
	if quote.DeliveryPaise != 50 {
		t.Errorf("delivery: got %d, want 50", quote.DeliveryPaise)
	}
	if quote.TotalPaise != 233 {
		t.Errorf("total: got %d, want 233", quote.TotalPaise)
	}
}

func TestComputeTotalIdentity(t *testing.T) {
	cases := []struct {
		name       string
		lines      []Line
		courier    *models.Courier
		taxPercent int
	}{
		{
			name:  "no courier no tax",
			lines: []Line{{Product: product(1500, nil), Qty: 3}},
		},
		{
			name:       "per item courier",
			lines:      []Line{{Product: product(999, nil), Qty: 2}, {Product: product(450, int64Ptr(400)), Qty: 5}},
			courier:    &models.Courier{PricePaise: 30, ChargePerItem: true},
			taxPercent: 18,
		},
		{
			name:       "flat courier high tax",
			lines:      []Line{{Product: product(10001, nil), Qty: 1}},
			courier:    &models.Courier{PricePaise: 7500},
			taxPercent: 28,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := Compute(tc.lines, tc.courier, tc.taxPercent, nil)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			sum := quote.SubtotalPaise + quote.TaxPaise + quote.DeliveryPaise - quote.DiscountPaise
			if quote.TotalPaise != sum {
				t.Errorf("total %d != subtotal+tax+delivery-discount %d", quote.TotalPaise, sum)
			}
		})
	}
}

func TestComputePerItemCourierMultipliesByQty(t *testing.T) {
	quote, err := Compute(
		[]Line{{Product: product(100, nil), Qty: 2}, {Product: product(200, nil), Qty: 3}},
		&models.Courier{PricePaise: 10, ChargePerItem: true},
		0,
		nil,
	)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if quote.DeliveryPaise != 50 {
		t.Errorf("delivery: got %d, want 50 (10 x 5 items)", quote.DeliveryPaise)
	}
}

func TestComputeRejectsInvalidItems(t *testing.T) {
	if _, err := Compute(nil, nil, 0, nil); err == nil {
		t.Fatal("expected error for empty lines")
	}

	if _, err := Compute([]Line{{Product: product(100, nil), Qty: 0}}, nil, 0, nil); err == nil {
		t.Fatal("expected error for zero quantity")
	}

	_, err := Compute([]Line{{Product: product(0, nil), Qty: 1}}, nil, 0, nil)
	if err == nil {
		t.Fatal("expected error for priceless product")
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestComputeCouponDiscounts(t *testing.T) {
	lines := []Line{{Product: product(1000, nil), Qty: 1}}

	t.Run("flat", func(t *testing.T) {
		quote, err := Compute(lines, nil, 0, &models.Coupon{IsActive: true, FlatPaise: 200})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if quote.DiscountPaise != 200 || quote.TotalPaise != 800 {
			t.Errorf("got discount %d total %d", quote.DiscountPaise, quote.TotalPaise)
		}
	})

	t.Run("percent floors", func(t *testing.T) {
		quote, err := Compute([]Line{{Product: product(999, nil), Qty: 1}}, nil, 0, &models.Coupon{IsActive: true, Percent: 10})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if quote.DiscountPaise != 99 {
			t.Errorf("discount: got %d, want 99", quote.DiscountPaise)
		}
	})

	t.Run("flat capped at subtotal", func(t *testing.T) {
		quote, err := Compute(lines, nil, 0, &models.Coupon{IsActive: true, FlatPaise: 5000})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if quote.DiscountPaise != 1000 {
			t.Errorf("discount: got %d, want capped 1000", quote.DiscountPaise)
		}
	})

	t.Run("inactive rejected", func(t *testing.T) {
		if _, err := Compute(lines, nil, 0, &models.Coupon{FlatPaise: 100}); err == nil {
			t.Fatal("expected error for inactive coupon")
		}
	})

	t.Run("expired rejected", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		if _, err := Compute(lines, nil, 0, &models.Coupon{IsActive: true, FlatPaise: 100, ExpiresAt: &past}); err == nil {
			t.Fatal("expected error for expired coupon")
		}
	})

	t.Run("below minimum rejected", func(t *testing.T) {
		if _, err := Compute(lines, nil, 0, &models.Coupon{IsActive: true, FlatPaise: 100, MinSubtotal: 5000}); err == nil {
			t.Fatal("expected error for subtotal below coupon minimum")
		}
	})
}

func TestTaxFloors(t *testing.T) {
	cases := []struct {
		subtotal int64
		percent  int
		want     int64
	}{
		{180, 2, 3},
		{100, 18, 18},
		{99, 18, 17},
		{1, 1, 0},
		{0, 18, 0},
		{1000, 0, 0},
	}
	for _, tc := range cases {
		if got := taxFor(tc.subtotal, tc.percent); got != tc.want {
			t.Errorf("taxFor(%d, %d): got %d, want %d", tc.subtotal, tc.percent, got, tc.want)
		}
	}
}
