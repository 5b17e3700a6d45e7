package couriers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db/models"
)

// Repository defines persistence operations for delivery options.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, courier *models.Courier) (*models.Courier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	ListActive(ctx context.Context) ([]models.Courier, error)
	ListAll(ctx context.Context) ([]models.Courier, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a couriers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, courier *models.Courier) (*models.Courier, error) {
	if err := r.db.WithContext(ctx).Create(courier).Error; err != nil {
		return nil, err
	}
	return courier, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&courier).Error
	if err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.Courier, error) {
	var out []models.Courier
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_paise ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Courier, error) {
	var out []models.Courier
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
		Model(&models.Courier{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Courier{}).Error
}
