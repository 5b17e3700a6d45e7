package coupons

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
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
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newCouponsService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(setupCouponsTestDB(t)))
	require.NoError(t, err)
	return svc
}

func TestCreateRequiresExactlyOneDiscountKind(t *testing.T) {
	svc := newCouponsService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Code: "BOTH", FlatPaise: 100, Percent: 10})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateInput{Code: "NEITHER"})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateInput{Code: "FLAT", FlatPaise: 100})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Code: "PCT", Percent: 10})
	require.NoError(t, err)
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	svc := newCouponsService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Code: "diwali20", Percent: 20})
	require.NoError(t, err)

	coupon, err := svc.Resolve(ctx, "DIWALI20")
	require.NoError(t, err)
	assert.Equal(t, "DIWALI20", coupon.Code)
	assert.Equal(t, 20, coupon.Percent)

	coupon, err = svc.Resolve(ctx, "  diwali20 ")
	require.NoError(t, err)
	assert.Equal(t, "DIWALI20", coupon.Code)
}

func TestResolveUnknownCode(t *testing.T) {
	svc := newCouponsService(t)

	_, err := svc.Resolve(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDuplicateCodeConflicts(t *testing.T) {
	svc := newCouponsService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Code: "DIWALI20", Percent: 20})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Code: "diwali20", FlatPaise: 100})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestUpdateDeactivates(t *testing.T) {
	svc := newCouponsService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Code: "DIWALI20", Percent: 20})
	require.NoError(t, err)

	off := false
	require.NoError(t, svc.Update(ctx, created.ID, UpdateInput{IsActive: &off}))

	coupon, err := svc.Resolve(ctx, "DIWALI20")
	require.NoError(t, err)
	assert.False(t, coupon.IsActive)
}
