package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/pkg/enums"
)

// Order represents one purchase attempt. Pricing fields are snapshots taken
// at creation from server-trusted product prices and never recomputed.
// TransactionID is the idempotency key for payment reconciliation: each
// external transaction maps to exactly one order.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         *uuid.UUID           `gorm:"column:user_id;type:uuid;index"`
	AddressID      uuid.UUID            `gorm:"column:address_id;type:uuid;not null"`
	CourierName    string               `gorm:"column:courier_name;not null;default:''"`
	CourierPaise   int64                `gorm:"column:courier_paise;not null;default:0"`
	SubtotalPaise  int64                `gorm:"column:subtotal_paise;not null"`
	TaxPaise       int64                `gorm:"column:tax_paise;not null;default:0"`
	DeliveryPaise  int64                `gorm:"column:delivery_paise;not null;default:0"`
	DiscountPaise  int64                `gorm:"column:discount_paise;not null;default:0"`
	TotalPaise     int64                `gorm:"column:total_paise;not null"`
	CouponCode     *string              `gorm:"column:coupon_code"`
	PaymentMethod  enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus  enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'pending';index"`
	TransactionID  string               `gorm:"column:transaction_id;not null;uniqueIndex"`
	GatewayOrderID *string              `gorm:"column:gateway_order_id;index"`
	DeliveryStatus enums.DeliveryStatus `gorm:"column:delivery_status;type:text;not null;default:'order_placed'"`
	PaidAt         *time.Time           `gorm:"column:paid_at"`
	Items          []OrderLineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem captures a product at order time: name and unit price are
// snapshots, immune to later catalog edits.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
