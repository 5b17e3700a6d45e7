package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prayagtech/storefront/api/controllers"
	"github.com/prayagtech/storefront/api/middleware"
	"github.com/prayagtech/storefront/internal/address"
	"github.com/prayagtech/storefront/internal/auth"
	"github.com/prayagtech/storefront/internal/cart"
	checkoutsvc "github.com/prayagtech/storefront/internal/checkout"
	"github.com/prayagtech/storefront/internal/coupons"
	"github.com/prayagtech/storefront/internal/couriers"
	"github.com/prayagtech/storefront/internal/invoices"
	"github.com/prayagtech/storefront/internal/orders"
	"github.com/prayagtech/storefront/internal/products"
	"github.com/prayagtech/storefront/internal/reconcile"
	"github.com/prayagtech/storefront/internal/settings"
	"github.com/prayagtech/storefront/pkg/auth/session"
	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/db"
	"github.com/prayagtech/storefront/pkg/enums"
	"github.com/prayagtech/storefront/pkg/logger"
	"github.com/prayagtech/storefront/pkg/redis"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker

	DBPinger    db.Pinger
	RedisPinger db.Pinger

	Idempotency redis.IdempotencyStore

	Auth      auth.Service
	Products  products.Service
	Carts     cart.Service
	Addresses address.Service
	Couriers  couriers.Service
	Coupons   coupons.Service
	Settings  settings.Service
	Checkout  checkoutsvc.Service
	Reconcile reconcile.Service
	Orders    orders.Service
	Invoices  invoices.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Sessions, logg)
	requireAdmin := middleware.RequireRole(enums.UserRoleAdmin, logg)
	maintenance := middleware.Maintenance(d.Settings, logg)
	idempotency := middleware.Idempotency(d.Idempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]db.Pinger{
			"database": d.DBPinger,
			"redis":    d.RedisPinger,
		}))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(maintenance)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(d.Auth, cfg.JWT, logg))
			r.Post("/login", controllers.AuthLogin(d.Auth, cfg.JWT, logg))
			r.Post("/otp/send", controllers.AuthOTPSend(d.Auth, logg))
			r.Post("/otp/verify", controllers.AuthOTPVerify(d.Auth, cfg.JWT, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(d.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(d.Products, logg))
			r.Get("/{productID}", controllers.ProductsGet(d.Products, logg))
		})

		r.Get("/couriers", controllers.CouriersList(d.Couriers, logg))
		r.Get("/settings", controllers.SettingsGet(d.Settings, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.CartGet(d.Carts, logg))
			r.Put("/", controllers.CartPut(d.Carts, logg))
			r.Delete("/", controllers.CartClear(d.Carts, logg))
			r.Delete("/{productID}", controllers.CartRemove(d.Carts, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.AddressList(d.Addresses, logg))
			r.Post("/", controllers.AddressCreate(d.Addresses, logg))
			r.Patch("/{addressID}", controllers.AddressUpdate(d.Addresses, logg))
			r.Delete("/{addressID}", controllers.AddressDelete(d.Addresses, logg))
		})

		// Guests place orders too, so auth is optional here; invalid
		// credentials still fail rather than downgrading to guest.
		// Idempotency runs after auth so keys scope to the resolved actor.
		r.With(optionalAuth, idempotency).Post("/checkout/{method}", controllers.CheckoutPlace(d.Checkout, logg))

		r.Route("/payments", func(r chi.Router) {
			r.With(optionalAuth, idempotency).Post("/razorpay/verify", controllers.RazorpayVerify(d.Reconcile, logg))
			r.Get("/phonepe/status/{transactionID}", controllers.PhonePeStatus(d.Reconcile, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.OrdersListMine(d.Orders, logg))
			r.Get("/{orderID}", controllers.OrdersGet(d.Orders, logg))
		})
	})

	// Webhooks bypass maintenance mode: settled payments must land even
	// while the storefront is closed.
	r.Post("/api/v1/webhooks/phonepe", controllers.PhonePeWebhook(d.Reconcile, logg))

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth, requireAdmin)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductsList(d.Products, logg))
			r.Post("/", controllers.AdminProductsCreate(d.Products, logg))
			r.Patch("/{productID}", controllers.AdminProductsUpdate(d.Products, logg))
			r.Delete("/{productID}", controllers.AdminProductsDelete(d.Products, logg))
		})

		r.Route("/couriers", func(r chi.Router) {
			r.Get("/", controllers.AdminCouriersList(d.Couriers, logg))
			r.Post("/", controllers.AdminCouriersCreate(d.Couriers, logg))
			r.Patch("/{courierID}", controllers.AdminCouriersUpdate(d.Couriers, logg))
			r.Delete("/{courierID}", controllers.AdminCouriersDelete(d.Couriers, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminCouponsList(d.Coupons, logg))
			r.Post("/", controllers.AdminCouponsCreate(d.Coupons, logg))
			r.Patch("/{couponID}", controllers.AdminCouponsUpdate(d.Coupons, logg))
			r.Delete("/{couponID}", controllers.AdminCouponsDelete(d.Coupons, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(d.Orders, logg))
			r.Get("/{orderID}", controllers.OrdersGet(d.Orders, logg))
			r.Patch("/{orderID}/delivery-status", controllers.AdminOrdersUpdateDelivery(d.Orders, logg))
			r.Get("/{orderID}/invoice", controllers.AdminInvoicesGetForOrder(d.Invoices, logg))
		})

		r.Get("/invoices", controllers.AdminInvoicesList(d.Invoices, logg))
		r.Get("/settings", controllers.SettingsGet(d.Settings, logg))
		r.Patch("/settings", controllers.AdminSettingsUpdate(d.Settings, logg))
	})

	return r
}
