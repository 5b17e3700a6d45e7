package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db/models"
)

// Repository defines persistence operations for coupons.
type Repository interface {
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupons repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	coupon.Code = normalizeCode(coupon.Code)
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", normalizeCode(code)).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) List(ctx context.Context) ([]models.Coupon, error) {
	var out []models.Coupon
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Coupon{}).Error
}

// Codes are stored and looked up uppercase so "diwali20" and "DIWALI20" match.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
