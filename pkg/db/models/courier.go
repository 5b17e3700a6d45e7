package models

import (
	"time"

	"github.com/google/uuid"
)

// Courier is a delivery option offered at checkout. When ChargePerItem is
// set, the fee multiplies by the total quantity across the order.
type Courier struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null;uniqueIndex"`
	PricePaise    int64     `gorm:"column:price_paise;not null"`
	ChargePerItem bool      `gorm:"column:charge_per_item;not null;default:false"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
