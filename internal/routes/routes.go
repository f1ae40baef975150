// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"vipwallet/internal/handlers"
	"vipwallet/internal/middleware"
	"vipwallet/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *middleware.AuthMiddleware
	VIP     *handlers.VIPHandler
	Wallet  *handlers.WalletHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
	Metrics fiber.Handler
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, h Handlers) {
	// Public routes
	if h.Health != nil {
		app.Get("/health", h.Health.HealthCheck)
		app.Get("/health/cache", h.Health.CacheStats)
	}
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics)
	}

	api := app.Group("/api", h.Auth.Handler)

	// Catalog
	api.Get("/vip/packages", h.VIP.ListPackages)

	// Listing promotion
	listings := api.Group("/listings/:listingId/vip")
	listings.Post("/", middleware.HasPermission(models.PermissionVIPPurchase), h.VIP.PurchaseVIP)
	listings.Get("/grants", middleware.HasPermission(models.PermissionVIPPurchase), h.VIP.ListGrants)

	// Wallet routes
	wallet := api.Group("/wallet", middleware.HasPermission(models.PermissionWalletRead))
	wallet.Get("/", h.Wallet.GetWallet)
	wallet.Get("/transactions", h.Wallet.GetTransactions)
	wallet.Get("/reconcile", h.Wallet.Reconcile)

	// Admin routes
	admin := api.Group("/admin", middleware.AdminOnly)
	admin.Post("/wallets/:userId/deposits", middleware.HasPermission(models.PermissionWalletAdmin), h.Admin.RecordDeposit)
}
