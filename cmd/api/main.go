package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/prayagtech/storefront/api/routes"
	"github.com/prayagtech/storefront/internal/address"
	"github.com/prayagtech/storefront/internal/auth"
	"github.com/prayagtech/storefront/internal/cart"
	checkoutsvc "github.com/prayagtech/storefront/internal/checkout"
	"github.com/prayagtech/storefront/internal/coupons"
	"github.com/prayagtech/storefront/internal/couriers"
	"github.com/prayagtech/storefront/internal/gateway"
	"github.com/prayagtech/storefront/internal/invoices"
	"github.com/prayagtech/storefront/internal/orders"
	"github.com/prayagtech/storefront/internal/otp"
	"github.com/prayagtech/storefront/internal/products"
	"github.com/prayagtech/storefront/internal/reconcile"
	"github.com/prayagtech/storefront/internal/settings"
	"github.com/prayagtech/storefront/internal/users"
	"github.com/prayagtech/storefront/pkg/auth/session"
	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/db"
	"github.com/prayagtech/storefront/pkg/logger"
	"github.com/prayagtech/storefront/pkg/migrate"
	"github.com/prayagtech/storefront/pkg/phonepe"
	"github.com/prayagtech/storefront/pkg/razorpay"
	"github.com/prayagtech/storefront/pkg/redis"
	"github.com/prayagtech/storefront/pkg/sms"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	couponsRepo := coupons.NewRepository(gormDB)
	couriersRepo := couriers.NewRepository(gormDB)
	settingsRepo := settings.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	otpRepo := otp.NewRepository(gormDB)
	invoicesRepo := invoices.NewRepository(gormDB)

	settingsService, err := settings.NewService(settingsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(addressRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, productsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	couponsService, err := coupons.NewService(couponsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}

	couriersService, err := couriers.NewService(couriersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create couriers service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	invoicesService, err := invoices.NewService(invoicesRepo, nil, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	smsSender, err := sms.New(cfg.SMS, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms sender", err)
		os.Exit(1)
	}

	otpService, err := otp.NewService(otp.Params{
		Repo:        otpRepo,
		Users:       usersRepo,
		Sender:      smsSender,
		Limiter:     redisClient,
		Logger:      logg,
		OTPConfig:   cfg.OTP,
		PasswordCfg: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create otp service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.Params{
		Users:       usersRepo,
		OTP:         otpService,
		Settings:    settingsService,
		Sessions:    sessionManager,
		Logger:      logg,
		JWTConfig:   cfg.JWT,
		PasswordCfg: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	// Gateway adapters register only when their credentials are present;
	// the registry reports unregistered methods as not configured.
	adapters := make([]gateway.PaymentGateway, 0, 3)

	codGateway, err := gateway.NewCODGateway(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cod gateway", err)
		os.Exit(1)
	}
	adapters = append(adapters, codGateway)

	if cfg.Razorpay.KeyID != "" {
		razorpayClient, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create razorpay client", err)
			os.Exit(1)
		}
		razorpayGateway, err := gateway.NewRazorpayGateway(razorpayClient, ordersRepo)
		if err != nil {
			logg.Error(context.Background(), "failed to create razorpay gateway", err)
			os.Exit(1)
		}
		adapters = append(adapters, razorpayGateway)
	}

	if cfg.PhonePe.ClientID != "" {
		phonepeClient, err := phonepe.NewClient(context.Background(), cfg.PhonePe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create phonepe client", err)
			os.Exit(1)
		}
		phonepeGateway, err := gateway.NewPhonePeGateway(phonepeClient, ordersRepo)
		if err != nil {
			logg.Error(context.Background(), "failed to create phonepe gateway", err)
			os.Exit(1)
		}
		adapters = append(adapters, phonepeGateway)
	}

	registry, err := gateway.NewRegistry(settingsService, adapters...)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway registry", err)
		os.Exit(1)
	}

	assembler, err := checkoutsvc.NewAssembler(productsService, addressService, couponsService, couriersService, settingsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout assembler", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Params{
		Assembler: assembler,
		Registry:  registry,
		Carts:     cartService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(reconcile.Params{
		Registry:  registry,
		Assembler: assembler,
		Invoices:  invoicesService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			Sessions:    sessionManager,
			DBPinger:    dbClient,
			RedisPinger: redisClient,
			Idempotency: redisClient,
			Auth:        authService,
			Products:    productsService,
			Carts:       cartService,
			Addresses:   addressService,
			Couriers:    couriersService,
			Coupons:     couponsService,
			Settings:    settingsService,
			Checkout:    checkoutService,
			Reconcile:   reconcileService,
			Orders:      ordersService,
			Invoices:    invoicesService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
