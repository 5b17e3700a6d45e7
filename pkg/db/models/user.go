package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/pkg/enums"
)

// User represents the canonical identity entity. Either email or phone is
// present; password_hash is nil for OTP-only accounts.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        *string        `gorm:"column:email;type:text;uniqueIndex"`
	Phone        *string        `gorm:"column:phone;type:text;uniqueIndex"`
	PasswordHash *string        `gorm:"column:password_hash"`
	Name         string         `gorm:"column:name;not null;default:''"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
