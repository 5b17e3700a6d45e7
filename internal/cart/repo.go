package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prayagtech/storefront/pkg/db/models"
)

// Repository defines persistence operations for the persisted cart.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, item *models.CartItem) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts the (user, product) row or replaces its quantity.
func (r *repository) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"qty": item.Qty}),
		}).
		Create(item).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
