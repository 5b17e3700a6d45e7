package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a shipping destination. UserID is nil for one-off guest
// records, which are flagged is_guest. At most one is_default=true row
// exists per user; the repository clears prior defaults before setting one.
type Address struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	Name       string     `gorm:"column:name;not null"`
	Phone      string     `gorm:"column:phone;not null"`
	Line1      string     `gorm:"column:line1;not null"`
	Line2      *string    `gorm:"column:line2"`
	City       string     `gorm:"column:city;not null"`
	State      string     `gorm:"column:state;not null"`
	PostalCode string     `gorm:"column:postal_code;not null"`
	IsDefault  bool       `gorm:"column:is_default;not null;default:false"`
	IsGuest    bool       `gorm:"column:is_guest;not null;default:false"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
