package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is created at most once per order; the unique index on order_id is
// the guard that keeps duplicate paid-transitions from double-invoicing.
type Invoice struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Number    string    `gorm:"column:number;not null;uniqueIndex"`
	IssuedAt  time.Time `gorm:"column:issued_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
