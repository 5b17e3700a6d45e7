package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon applies a discount at checkout. Exactly one of FlatPaise or
// Percent is expected to be non-zero.
type Coupon struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string     `gorm:"column:code;not null;uniqueIndex"`
	FlatPaise     int64      `gorm:"column:flat_paise;not null;default:0"`
	Percent       int        `gorm:"column:percent;not null;default:0"`
	MinSubtotal   int64      `gorm:"column:min_subtotal;not null;default:0"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
