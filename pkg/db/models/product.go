package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog listing. Prices are authoritative on the
// server; client-submitted prices are never trusted.
type Product struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU             string    `gorm:"column:sku;not null;uniqueIndex"`
	Name            string    `gorm:"column:name;not null"`
	Description     *string   `gorm:"column:description"`
	PricePaise      int64     `gorm:"column:price_paise;not null"`
	OfferPricePaise *int64    `gorm:"column:offer_price_paise"`
	Stock           int       `gorm:"column:stock;not null;default:0"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ResolvedPricePaise returns the offer price when set, else the list price.
func (p Product) ResolvedPricePaise() int64 {
	if p.OfferPricePaise != nil && *p.OfferPricePaise > 0 {
		return *p.OfferPricePaise
	}
	return p.PricePaise
}
