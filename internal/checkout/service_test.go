package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/internal/address"
	"github.com/prayagtech/storefront/internal/cart"
	"github.com/prayagtech/storefront/internal/coupons"
	"github.com/prayagtech/storefront/internal/couriers"
	"github.com/prayagtech/storefront/internal/gateway"
	"github.com/prayagtech/storefront/internal/products"
	"github.com/prayagtech/storefront/internal/settings"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db        *gorm.DB
	assembler *Assembler
	settings  settings.Service
	addresses address.Service
	couriers  couriers.Service
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT,
  price_paise INTEGER NOT NULL,
  offer_price_paise INTEGER,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  is_guest INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS couriers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  price_paise INTEGER NOT NULL,
  charge_per_item INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  flat_paise INTEGER NOT NULL DEFAULT 0,
  percent INTEGER NOT NULL DEFAULT 0,
  min_subtotal INTEGER NOT NULL DEFAULT 0,
  expires_at DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS settings (
  id INTEGER PRIMARY KEY,
  enable_cod INTEGER NOT NULL DEFAULT 1,
  enable_razorpay INTEGER NOT NULL DEFAULT 0,
  enable_phonepe INTEGER NOT NULL DEFAULT 0,
  enable_otp_login INTEGER NOT NULL DEFAULT 1,
  enable_password_login INTEGER NOT NULL DEFAULT 1,
  tax_percent INTEGER NOT NULL DEFAULT 0,
  maintenance_mode INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("ddl: %v", err)
		}
	}

	catalog, err := products.NewService(products.NewRepository(db))
	if err != nil {
		t.Fatalf("products service: %v", err)
	}
	addresses, err := address.NewService(address.NewRepository(db), &gormTxRunner{db: db})
	if err != nil {
		t.Fatalf("address service: %v", err)
	}
	couponsSvc, err := coupons.NewService(coupons.NewRepository(db))
	if err != nil {
		t.Fatalf("coupons service: %v", err)
	}
	couriersSvc, err := couriers.NewService(couriers.NewRepository(db))
	if err != nil {
		t.Fatalf("couriers service: %v", err)
	}
	settingsSvc, err := settings.NewService(settings.NewRepository(db))
	if err != nil {
		t.Fatalf("settings service: %v", err)
	}
	assembler, err := NewAssembler(catalog, addresses, couponsSvc, couriersSvc, settingsSvc)
	if err != nil {
		t.Fatalf("assembler: %v", err)
	}
	return &fixture{
		db:        db,
		assembler: assembler,
		settings:  settingsSvc,
		addresses: addresses,
		couriers:  couriersSvc,
	}
}

func (f *fixture) seedProduct(t *testing.T, name string, pricePaise int64) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:         uuid.New(),
		SKU:        "SKU-" + uuid.NewString()[:8],
		Name:       name,
		PricePaise: pricePaise,
		IsActive:   true,
	}
	if err := f.db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func (f *fixture) seedCourier(t *testing.T, name string, pricePaise int64) *models.Courier {
	t.Helper()
	c := &models.Courier{ID: uuid.New(), Name: name, PricePaise: pricePaise, IsActive: true}
	if err := f.db.Create(c).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}
	return c
}

func (f *fixture) seedAddress(t *testing.T, userID *uuid.UUID) *models.Address {
	t.Helper()
	a := &models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       "Asha",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
	}
	if err := f.db.Create(a).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	return a
}

func (f *fixture) setTaxPercent(t *testing.T, percent int) {
	t.Helper()
	if _, err := f.settings.Update(context.Background(), settings.UpdateInput{TaxPercent: &percent}); err != nil {
		t.Fatalf("set tax percent: %v", err)
	}
}

func TestAssembleBuildsPricedDraft(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	userID := uuid.New()
	product := f.seedProduct(t, "Notebook", 90)
	courier := f.seedCourier(t, "Standard", 50)
	addr := f.seedAddress(t, &userID)
	f.setTaxPercent(t, 2)

	draft, err := f.assembler.Assemble(ctx, &userID, Request{
		Items:     []ItemInput{{ProductID: product.ID, Qty: 2}},
		AddressID: &addr.ID,
		CourierID: courier.ID,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if draft.SubtotalPaise != 180 || draft.TaxPaise != 3 || draft.DeliveryPaise != 50 {
		t.Fatalf("quote: subtotal=%d tax=%d delivery=%d", draft.SubtotalPaise, draft.TaxPaise, draft.DeliveryPaise)
	}
	if draft.TotalPaise != 233 {
		t.Fatalf("total: got %d, want 233", draft.TotalPaise)
	}
	if draft.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment status: %s", draft.PaymentStatus)
	}
	if !strings.HasPrefix(draft.TransactionID, "txn-") {
		t.Fatalf("transaction id: %s", draft.TransactionID)
	}
	if len(draft.Items) != 1 {
		t.Fatalf("line items: %d", len(draft.Items))
	}
	item := draft.Items[0]
	if item.ProductID != product.ID || item.UnitPricePaise != 90 || item.Qty != 2 || item.Name != "Notebook" {
		t.Fatalf("line snapshot: %+v", item)
	}
	if draft.CourierName != "Standard" {
		t.Fatalf("courier name: %s", draft.CourierName)
	}
}

func TestAssembleCreatesGuestAddress(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Notebook", 90)
	courier := f.seedCourier(t, "Standard", 50)

	draft, err := f.assembler.Assemble(ctx, nil, Request{
		Items: []ItemInput{{ProductID: product.ID, Qty: 1}},
		Address: &address.CreateInput{
			Name:       "Guest",
			Phone:      "9876543210",
			Line1:      "1 Park St",
			City:       "Kolkata",
			State:      "WB",
			PostalCode: "700016",
		},
		CourierID: courier.ID,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if draft.UserID != nil {
		t.Fatal("guest draft must have no user")
	}

	var stored models.Address
	if err := f.db.Where("id = ?", draft.AddressID).First(&stored).Error; err != nil {
		t.Fatalf("guest address not stored: %v", err)
	}
	if !stored.IsGuest || stored.UserID != nil {
		t.Fatalf("guest address flags: is_guest=%v user=%v", stored.IsGuest, stored.UserID)
	}
}

func TestAssembleRejectsForeignAddress(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "Notebook", 90)
	courier := f.seedCourier(t, "Standard", 50)
	owner := uuid.New()
	addr := f.seedAddress(t, &owner)

	intruder := uuid.New()
	_, err := f.assembler.Assemble(ctx, &intruder, Request{
		Items:     []ItemInput{{ProductID: product.ID, Qty: 1}},
		AddressID: &addr.ID,
		CourierID: courier.ID,
	})
	if err == nil {
		t.Fatal("expected error for another user's address")
	}
}

func TestAssembleRejectsUnknownCoupon(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	userID := uuid.New()
	product := f.seedProduct(t, "Notebook", 90)
	courier := f.seedCourier(t, "Standard", 50)
	addr := f.seedAddress(t, &userID)

	bogus := "NOSUCHCODE"
	_, err := f.assembler.Assemble(ctx, &userID, Request{
		Items:      []ItemInput{{ProductID: product.ID, Qty: 1}},
		AddressID:  &addr.ID,
		CourierID:  courier.ID,
		CouponCode: &bogus,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %s", pkgerrors.As(err).Code())
	}
}

type captureGateway struct {
	method enums.PaymentMethod
	draft  *models.Order
}

func (g *captureGateway) Method() enums.PaymentMethod { return g.method }

func (g *captureGateway) Initiate(ctx context.Context, draft *models.Order) (*gateway.InitiateResult, error) {
	g.draft = draft
	return &gateway.InitiateResult{Order: draft}, nil
}

func (g *captureGateway) Verify(ctx context.Context, input gateway.VerifyInput) (*gateway.VerifyResult, error) {
	return nil, nil
}

type recordingCart struct {
	cleared []uuid.UUID
}

func (c *recordingCart) Put(ctx context.Context, userID uuid.UUID, input cart.PutInput) error {
	return nil
}

func (c *recordingCart) List(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	return &cart.View{}, nil
}

func (c *recordingCart) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return nil
}

func (c *recordingCart) Clear(ctx context.Context, userID uuid.UUID) error {
	c.cleared = append(c.cleared, userID)
	return nil
}

func TestPlaceDispatchesAndClearsCart(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	userID := uuid.New()
	product := f.seedProduct(t, "Notebook", 90)
	courier := f.seedCourier(t, "Standard", 50)
	addr := f.seedAddress(t, &userID)

	adapter := &captureGateway{method: enums.PaymentMethodCOD}
	registry, err := gateway.NewRegistry(f.settings, adapter)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	carts := &recordingCart{}
	svc, err := NewService(Params{
		Assembler: f.assembler,
		Registry:  registry,
		Carts:     carts,
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Place(ctx, &userID, enums.PaymentMethodCOD, Request{
		Items:     []ItemInput{{ProductID: product.ID, Qty: 2}},
		AddressID: &addr.ID,
		CourierID: courier.ID,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if adapter.draft == nil || adapter.draft.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("adapter draft: %+v", adapter.draft)
	}
	if result.TransactionID == "" {
		t.Fatal("missing transaction id")
	}
	if len(carts.cleared) != 1 || carts.cleared[0] != userID {
		t.Fatalf("cart clear calls: %v", carts.cleared)
	}

	// Methods switched off in settings are refused before any work happens.
	_, err = svc.Place(ctx, &userID, enums.PaymentMethodRazorpay, Request{
		Items:     []ItemInput{{ProductID: product.ID, Qty: 1}},
		AddressID: &addr.ID,
		CourierID: courier.ID,
	})
	if err == nil {
		t.Fatal("expected disabled error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeGatewayDisabled {
		t.Fatalf("expected GATEWAY_DISABLED, got %s", pkgerrors.As(err).Code())
	}
}
