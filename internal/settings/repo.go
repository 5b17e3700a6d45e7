package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db"
	"github.com/prayagtech/storefront/pkg/db/models"
)

// Repository defines persistence for the singleton settings row.
type Repository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, updates map[string]any) (*models.Settings, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Get loads the singleton row, creating the defaults if it is missing.
func (r *repository) Get(ctx context.Context) (*models.Settings, error) {
	var row models.Settings
	err := r.db.WithContext(ctx).
		Where("id = ?", models.SettingsRowID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.seedDefaults(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// seedDefaults inserts the default row. Two concurrent first reads can race
// the insert; the loser re-reads the winner's row instead of failing.
func (r *repository) seedDefaults(ctx context.Context) (*models.Settings, error) {
	row := models.Settings{ID: models.SettingsRowID, EnableCOD: true, EnableOTPLogin: true, EnablePasswordLogin: true}
	if createErr := r.db.WithContext(ctx).Create(&row).Error; createErr != nil {
		if db.IsUniqueViolation(createErr) {
			var won models.Settings
			if reread := r.db.WithContext(ctx).Where("id = ?", models.SettingsRowID).First(&won).Error; reread == nil {
				return &won, nil
			}
		}
		return nil, createErr
	}
	return &row, nil
}

func (r *repository) Update(ctx context.Context, updates map[string]any) (*models.Settings, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).
			Model(&models.Settings{}).
			Where("id = ?", models.SettingsRowID).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return r.Get(ctx)
}
