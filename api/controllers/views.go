package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/internal/cart"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
)

// View types are the JSON shapes of the API. The gorm models stay free of
// json tags so the wire format never changes by accident when a column does.

type UserView struct {
	ID        uuid.UUID      `json:"id"`
	Email     *string        `json:"email,omitempty"`
	Phone     *string        `json:"phone,omitempty"`
	Name      string         `json:"name"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

func newUserView(u *models.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type ProductView struct {
	ID              uuid.UUID `json:"id"`
	SKU             string    `json:"sku"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	PricePaise      int64     `json:"price_paise"`
	OfferPricePaise *int64    `json:"offer_price_paise,omitempty"`
	Stock           int       `json:"stock"`
	IsActive        bool      `json:"is_active"`
}

func newProductView(p models.Product) ProductView {
	return ProductView{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Description:     p.Description,
		PricePaise:      p.PricePaise,
		OfferPricePaise: p.OfferPricePaise,
		Stock:           p.Stock,
		IsActive:        p.IsActive,
	}
}

func newProductViews(products []models.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return views
}

type AddressView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	IsDefault  bool      `json:"is_default"`
}

func newAddressView(a models.Address) AddressView {
	return AddressView{
		ID:         a.ID,
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		IsDefault:  a.IsDefault,
	}
}

func newAddressViews(addresses []models.Address) []AddressView {
	views := make([]AddressView, 0, len(addresses))
	for _, a := range addresses {
		views = append(views, newAddressView(a))
	}
	return views
}

type CourierView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	PricePaise    int64     `json:"price_paise"`
	ChargePerItem bool      `json:"charge_per_item"`
	IsActive      bool      `json:"is_active"`
}

func newCourierView(c models.Courier) CourierView {
	return CourierView{
		ID:            c.ID,
		Name:          c.Name,
		PricePaise:    c.PricePaise,
		ChargePerItem: c.ChargePerItem,
		IsActive:      c.IsActive,
	}
}

func newCourierViews(couriers []models.Courier) []CourierView {
	views := make([]CourierView, 0, len(couriers))
	for _, c := range couriers {
		views = append(views, newCourierView(c))
	}
	return views
}

type CouponView struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	FlatPaise   int64      `json:"flat_paise"`
	Percent     int        `json:"percent"`
	MinSubtotal int64      `json:"min_subtotal"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

func newCouponView(c models.Coupon) CouponView {
	return CouponView{
		ID:          c.ID,
		Code:        c.Code,
		FlatPaise:   c.FlatPaise,
		Percent:     c.Percent,
		MinSubtotal: c.MinSubtotal,
		ExpiresAt:   c.ExpiresAt,
		IsActive:    c.IsActive,
	}
}

func newCouponViews(coupons []models.Coupon) []CouponView {
	views := make([]CouponView, 0, len(coupons))
	for _, c := range coupons {
		views = append(views, newCouponView(c))
	}
	return views
}

type SettingsView struct {
	EnableCOD           bool `json:"enable_cod"`
	EnableRazorpay      bool `json:"enable_razorpay"`
	EnablePhonePe       bool `json:"enable_phonepe"`
	EnableOTPLogin      bool `json:"enable_otp_login"`
	EnablePasswordLogin bool `json:"enable_password_login"`
	TaxPercent          int  `json:"tax_percent"`
	MaintenanceMode     bool `json:"maintenance_mode"`
}

func newSettingsView(s *models.Settings) *SettingsView {
	if s == nil {
		return nil
	}
	return &SettingsView{
		EnableCOD:           s.EnableCOD,
		EnableRazorpay:      s.EnableRazorpay,
		EnablePhonePe:       s.EnablePhonePe,
		EnableOTPLogin:      s.EnableOTPLogin,
		EnablePasswordLogin: s.EnablePasswordLogin,
		TaxPercent:          s.TaxPercent,
		MaintenanceMode:     s.MaintenanceMode,
	}
}

type OrderItemView struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPricePaise int64     `json:"unit_price_paise"`
	Qty            int       `json:"qty"`
}

type OrderView struct {
	ID             uuid.UUID            `json:"id"`
	Items          []OrderItemView      `json:"items"`
	SubtotalPaise  int64                `json:"subtotal_paise"`
	TaxPaise       int64                `json:"tax_paise"`
	DeliveryPaise  int64                `json:"delivery_paise"`
	DiscountPaise  int64                `json:"discount_paise"`
	TotalPaise     int64                `json:"total_paise"`
	CouponCode     *string              `json:"coupon_code,omitempty"`
	CourierName    string               `json:"courier_name"`
	PaymentMethod  enums.PaymentMethod  `json:"payment_method"`
	PaymentStatus  enums.PaymentStatus  `json:"payment_status"`
	DeliveryStatus enums.DeliveryStatus `json:"delivery_status"`
	TransactionID  string               `json:"transaction_id"`
	GatewayOrderID *string              `json:"gateway_order_id,omitempty"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

func newOrderView(o *models.Order) *OrderView {
	if o == nil {
		return nil
	}
	items := make([]OrderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemView{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPricePaise: item.UnitPricePaise,
			Qty:            item.Qty,
		})
	}
	return &OrderView{
		ID:             o.ID,
		Items:          items,
		SubtotalPaise:  o.SubtotalPaise,
		TaxPaise:       o.TaxPaise,
		DeliveryPaise:  o.DeliveryPaise,
		DiscountPaise:  o.DiscountPaise,
		TotalPaise:     o.TotalPaise,
		CouponCode:     o.CouponCode,
		CourierName:    o.CourierName,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		DeliveryStatus: o.DeliveryStatus,
		TransactionID:  o.TransactionID,
		GatewayOrderID: o.GatewayOrderID,
		PaidAt:         o.PaidAt,
		CreatedAt:      o.CreatedAt,
	}
}

func newOrderViews(orders []models.Order) []*OrderView {
	views := make([]*OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	return views
}

type InvoiceView struct {
	ID       uuid.UUID `json:"id"`
	OrderID  uuid.UUID `json:"order_id"`
	Number   string    `json:"number"`
	IssuedAt time.Time `json:"issued_at"`
}

func newInvoiceView(inv *models.Invoice) *InvoiceView {
	if inv == nil {
		return nil
	}
	return &InvoiceView{
		ID:       inv.ID,
		OrderID:  inv.OrderID,
		Number:   inv.Number,
		IssuedAt: inv.IssuedAt,
	}
}

func newInvoiceViews(invoices []models.Invoice) []*InvoiceView {
	views := make([]*InvoiceView, 0, len(invoices))
	for i := range invoices {
		views = append(views, newInvoiceView(&invoices[i]))
	}
	return views
}

type CartItemView struct {
	Product        ProductView `json:"product"`
	Qty            int         `json:"qty"`
	UnitPricePaise int64       `json:"unit_price_paise"`
	LineTotalPaise int64       `json:"line_total_paise"`
}

type CartView struct {
	Items         []CartItemView `json:"items"`
	SubtotalPaise int64          `json:"subtotal_paise"`
}

func newCartView(v *cart.View) *CartView {
	if v == nil {
		return nil
	}
	items := make([]CartItemView, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, CartItemView{
			Product:        newProductView(item.Product),
			Qty:            item.Qty,
			UnitPricePaise: item.UnitPricePaise,
			LineTotalPaise: item.LineTotalPaise,
		})
	}
	return &CartView{Items: items, SubtotalPaise: v.SubtotalPaise}
}
