package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prayagtech/storefront/pkg/db"
	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

// Repository defines persistence for invoices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, invoice *models.Invoice) (bool, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an invoices repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Insert writes the invoice unless one already exists for the order. The
// unique order_id index backs the do-nothing clause; the bool reports whether
// this call created the row.
func (r *repository) Insert(ctx context.Context, invoice *models.Invoice) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(invoice)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) List(ctx context.Context) ([]models.Invoice, error) {
	var out []models.Invoice
	err := r.db.WithContext(ctx).
		Order("issued_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Service issues invoices exactly once per order.
type Service interface {
	EnsureForOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	GetForOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)
}

// Notifier is told about freshly issued invoices. Implementations own
// rendering and delivery; the service only guarantees at-most-one call per
// order.
type Notifier interface {
	InvoiceIssued(ctx context.Context, invoice *models.Invoice) error
}

// LogNotifier records issued invoices in the service log. Stands in until a
// delivery channel is configured.
type LogNotifier struct {
	Logger *logger.Logger
}

func (n LogNotifier) InvoiceIssued(ctx context.Context, invoice *models.Invoice) error {
	if n.Logger != nil {
		ctx = n.Logger.WithField(ctx, "invoice_number", invoice.Number)
		n.Logger.Info(n.Logger.WithOrderID(ctx, invoice.OrderID.String()), "invoice issued")
	}
	return nil
}

type service struct {
	repo     Repository
	notifier Notifier
	logger   *logger.Logger
}

// NewService builds the invoices service.
func NewService(repo Repository, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logg}
	}
	return &service{repo: repo, notifier: notifier, logger: logg}, nil
}

// EnsureForOrder issues the invoice for a newly paid order. Safe to call from
// every reconciliation path: duplicates collapse onto the first row.
func (s *service) EnsureForOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	now := time.Now()
	invoice := &models.Invoice{
		OrderID:  orderID,
		Number:   invoiceNumber(now),
		IssuedAt: now,
	}
	created, err := s.repo.Insert(ctx, invoice)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.notifier.InvoiceIssued(ctx, invoice); err != nil {
			s.logger.Error(s.logger.WithOrderID(ctx, orderID.String()), "invoice notification failed", err)
		}
	}
	return s.repo.FindByOrder(ctx, orderID)
}

func (s *service) GetForOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindByOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *service) List(ctx context.Context) ([]models.Invoice, error) {
	return s.repo.List(ctx)
}

// invoiceNumber is date-prefixed with a random suffix; uniqueness is enforced
// by the index, not the format.
func invoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}
