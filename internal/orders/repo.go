package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
)

// Repository defines persistence operations for the order ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	List(ctx context.Context, filters ListFilters) ([]models.Order, error)
	MarkPaidIfPending(ctx context.Context, transactionID string, paidAt time.Time) (bool, error)
	MarkFailedIfPending(ctx context.Context, transactionID string) (bool, error)
	SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error
	UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, status enums.DeliveryStatus) error
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListFilters narrows the admin order listing.
type ListFilters struct {
	PaymentStatus  *enums.PaymentStatus
	DeliveryStatus *enums.DeliveryStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create persists the order and its line items in one write.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("transaction_id = ?", transactionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items")
	if filters.PaymentStatus != nil {
		q = q.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.DeliveryStatus != nil {
		q = q.Where("delivery_status = ?", *filters.DeliveryStatus)
	}
	var out []models.Order
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaidIfPending flips a pending order to paid in a single guarded UPDATE.
// The WHERE clause is the at-most-once guard: concurrent reconcilers racing
// on the same transaction see RowsAffected 0 after the first winner.
func (r *repository) MarkPaidIfPending(ctx context.Context, transactionID string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("transaction_id = ? AND payment_status = ?", transactionID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"paid_at":        paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkFailedIfPending records a terminal gateway failure; paid orders are
// never downgraded.
func (r *repository) MarkFailedIfPending(ctx context.Context, transactionID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("transaction_id = ? AND payment_status = ?", transactionID, enums.PaymentStatusPending).
		Update("payment_status", enums.PaymentStatusFailed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("gateway_order_id", gatewayOrderID).Error
}

func (r *repository) UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, status enums.DeliveryStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("delivery_status", status).Error
}

// DeleteStalePending removes pending online-payment orders abandoned before
// the cutoff. COD and paid orders are never touched.
func (r *repository) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_status = ? AND payment_method <> ? AND created_at < ?",
			enums.PaymentStatusPending, enums.PaymentMethodCOD, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Delete(&models.OrderLineItem{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.Order{})
	return res.RowsAffected, res.Error
}
