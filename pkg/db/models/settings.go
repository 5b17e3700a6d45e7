package models

import "time"

// Settings is the singleton configuration row toggling payment and login
// methods. ID is pinned to 1 so reads and updates always hit the same row.
type Settings struct {
	ID                  int       `gorm:"column:id;primaryKey"`
	EnableCOD           bool      `gorm:"column:enable_cod;not null;default:true"`
	EnableRazorpay      bool      `gorm:"column:enable_razorpay;not null;default:false"`
	EnablePhonePe       bool      `gorm:"column:enable_phonepe;not null;default:false"`
	EnableOTPLogin      bool      `gorm:"column:enable_otp_login;not null;default:true"`
	EnablePasswordLogin bool      `gorm:"column:enable_password_login;not null;default:true"`
	TaxPercent          int       `gorm:"column:tax_percent;not null;default:0"`
	MaintenanceMode     bool      `gorm:"column:maintenance_mode;not null;default:false"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SettingsRowID is the fixed primary key of the singleton row.
const SettingsRowID = 1
