package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one (user, product) row in the persisted cart.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:idx_cart_user_product,unique"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:idx_cart_user_product,unique"`
	Qty       int       `gorm:"column:qty;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
