package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/internal/products"
	"github.com/prayagtech/storefront/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);`
	productsDDL := `
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
);`
	require.NoError(t, db.Exec(cartItems).Error)
	require.NoError(t, db.Exec(productsDDL).Error)
	return db
}

func newCartService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupCartTestDB(t)
	catalog, err := products.NewService(products.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), catalog)
	require.NoError(t, err)
	return svc, db
}

func seedCartProduct(t *testing.T, db *gorm.DB, sku string, pricePaise int64, active bool) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:         uuid.New(),
		SKU:        sku,
		Name:       "product " + sku,
		PricePaise: pricePaise,
		IsActive:   active,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestPutUpsertsQuantity(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedCartProduct(t, db, "SKU-1", 9900, true)

	require.NoError(t, svc.Put(ctx, userID, PutInput{ProductID: p.ID, Qty: 2}))
	require.NoError(t, svc.Put(ctx, userID, PutInput{ProductID: p.ID, Qty: 5}))

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Qty)
	assert.Equal(t, int64(9900*5), view.SubtotalPaise)
}

func TestPutZeroQtyRemoves(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedCartProduct(t, db, "SKU-1", 9900, true)

	require.NoError(t, svc.Put(ctx, userID, PutInput{ProductID: p.ID, Qty: 2}))
	require.NoError(t, svc.Put(ctx, userID, PutInput{ProductID: p.ID, Qty: 0}))

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestPutRejectsInactiveProduct(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	p := seedCartProduct(t, db, "SKU-1", 9900, false)

	err := svc.Put(ctx, uuid.New(), PutInput{ProductID: p.ID, Qty: 1})
	require.Error(t, err)
}

func TestListUsesOfferPrice(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()

	p := seedCartProduct(t, db, "SKU-1", 10000, true)
	offer := int64(9000)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Update("offer_price_paise", offer).Error)

	require.NoError(t, svc.Put(ctx, userID, PutInput{ProductID: p.ID, Qty: 2}))

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(9000), view.Items[0].UnitPricePaise)
	assert.Equal(t, int64(18000), view.SubtotalPaise)
}

func TestListDropsRetiredProducts(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()

	keep := seedCartProduct(t, db, "SKU-1", 9900, true)
	retired := seedCartProduct(t, db, "SKU-2", 5000, true)

	require.NoError(t, svc.Put(ctx, userID, PutInput{ProductID: keep.ID, Qty: 1}))
	require.NoError(t, svc.Put(ctx, userID, PutInput{ProductID: retired.ID, Qty: 1}))

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", retired.ID).Update("is_active", false).Error)

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, keep.ID, view.Items[0].Product.ID)

	// The retired row was pruned from storage, not just hidden.
	rows, err := NewRepository(db).ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestClearEmptiesCart(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedCartProduct(t, db, "SKU-1", 9900, true)

	require.NoError(t, svc.Put(ctx, userID, PutInput{ProductID: p.ID, Qty: 2}))
	require.NoError(t, svc.Clear(ctx, userID))

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}
