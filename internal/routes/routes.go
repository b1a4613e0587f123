package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/foodhunter/internal/config"
	"github.com/example/foodhunter/internal/handlers"
	"github.com/example/foodhunter/internal/middleware"
	"github.com/example/foodhunter/internal/services"
	"github.com/example/foodhunter/internal/utils"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	notifier := buildNotifier(cfg)

	voucherService := services.NewVoucherService(db)
	orderService := services.NewOrderService(db, cfg.QRSecret, cfg.LockTimeout)
	checkoutService := services.NewCheckoutService(
		db,
		voucherService,
		services.NewAcceptAllAuthorizer(),
		services.NewDailyQueueNumberer(),
		cfg.QRSecret,
		cfg.ServiceFee,
	)

	authHandler := handlers.NewAuthHandler(db, cfg)
	menuHandler := handlers.NewMenuHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	voucherHandler := handlers.NewVoucherHandler(db, voucherService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, notifier)
	orderHandler := handlers.NewOrderHandler(db, orderService, notifier)
	vendorOrderHandler := handlers.NewVendorOrderHandler(db, orderService, notifier)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/vendor/register", authHandler.RegisterVendor)
	auth.Post("/vendor/login", authHandler.LoginVendor)

	// Public browsing
	api.Get("/vendors", menuHandler.ListVendors)
	api.Get("/vendors/:id/menu", menuHandler.ListVendorMenu)

	// Customer routes
	customer := api.Group("", middleware.AuthMiddleware(cfg, utils.RoleCustomer))

	customer.Get("/cart", cartHandler.ListCart)
	customer.Post("/cart", cartHandler.AddCartItem)
	customer.Put("/cart/:id", cartHandler.UpdateCartItem)
	customer.Delete("/cart/:id", cartHandler.RemoveCartItem)
	customer.Delete("/cart", cartHandler.ClearCart)

	customer.Post("/vouchers/redeem", voucherHandler.RedeemVoucher)
	customer.Post("/vouchers/validate", voucherHandler.ValidateVoucher)

	customer.Post("/checkout", checkoutHandler.Checkout)

	customer.Get("/orders", orderHandler.ListOrders)
	customer.Get("/orders/:id", orderHandler.GetOrder)
	customer.Post("/orders/:id/cancel", orderHandler.CancelOrder)

	// Vendor routes
	vendor := api.Group("/vendor", middleware.AuthMiddleware(cfg, utils.RoleVendor))

	vendor.Get("/menu", menuHandler.ListMyMenu)
	vendor.Post("/menu", menuHandler.CreateMenuItem)
	vendor.Put("/menu/:id", menuHandler.UpdateMenuItem)
	vendor.Delete("/menu/:id", menuHandler.DeleteMenuItem)

	vendor.Get("/vouchers", voucherHandler.ListMyVouchers)
	vendor.Post("/vouchers", voucherHandler.CreateVoucher)
	vendor.Put("/vouchers/:id", voucherHandler.UpdateVoucher)
	vendor.Delete("/vouchers/:id", voucherHandler.DeactivateVoucher)

	vendor.Get("/orders", vendorOrderHandler.ListOrders)
	vendor.Get("/orders/:id", vendorOrderHandler.GetOrder)
	vendor.Put("/orders/:id/status", vendorOrderHandler.UpdateStatus)
	vendor.Post("/orders/:id/pickup", vendorOrderHandler.CompletePickup)
}

func buildNotifier(cfg *config.Config) services.Notifier {
	backends := services.MultiNotifier{
		services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChat),
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := services.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		if err != nil {
			log.Printf("[Notify] Kafka notifier disabled: %v", err)
		} else {
			backends = append(backends, kafka)
		}
	}

	return backends
}
