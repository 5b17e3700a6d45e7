package otp

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prayagtech/storefront/pkg/db/models"
)

// Repository defines persistence for one-time codes. At most one live row
// exists per phone.
type Repository interface {
	Upsert(ctx context.Context, row *models.Otp) error
	FindByPhone(ctx context.Context, phone string) (*models.Otp, error)
	IncrementAttempts(ctx context.Context, phone string) error
	DeleteByPhone(ctx context.Context, phone string) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an OTP repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert replaces any previous code for the phone and resets the attempt
// counter.
func (r *repository) Upsert(ctx context.Context, row *models.Otp) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "phone"}},
			DoUpdates: clause.Assignments(map[string]any{
				"code_hash":    row.CodeHash,
				"attempts":     0,
				"expires_at":   row.ExpiresAt,
				"last_sent_at": row.LastSentAt,
			}),
		}).
		Create(row).Error
}

func (r *repository) FindByPhone(ctx context.Context, phone string) (*models.Otp, error) {
	var row models.Otp
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) IncrementAttempts(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).
		Model(&models.Otp{}).
		Where("phone = ?", phone).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *repository) DeleteByPhone(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Delete(&models.Otp{}).Error
}

// DeleteExpiredBefore removes rows whose expiry passed before the cutoff,
// returning the number swept.
func (r *repository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.Otp{})
	return res.RowsAffected, res.Error
}
