package models

import (
	"time"

	"github.com/google/uuid"
)

// Otp is an ephemeral credential artifact. One live row exists per phone;
// sending a new code replaces the previous row. The row is deleted on
// successful verification or by the expiry sweep.
type Otp struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone      string    `gorm:"column:phone;not null;uniqueIndex"`
	CodeHash   string    `gorm:"column:code_hash;not null"`
	Attempts   int       `gorm:"column:attempts;not null;default:0"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null;index"`
	LastSentAt time.Time `gorm:"column:last_sent_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
