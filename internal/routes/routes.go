package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/config"
	"github.com/example/bazzarly/internal/handlers"
	"github.com/example/bazzarly/internal/middleware"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
	"github.com/example/bazzarly/internal/services"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Config   *config.Config
	Services *services.Services
	Repos    repository.Repositories
	Log      *zap.Logger
	Started  time.Time
}

// NewApp builds the fiber app with the global middleware stack and all routes.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Bazzarly API",
		ErrorHandler: handlers.ErrorHandler(d.Log, d.Config.IsDevelopment()),
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: d.Config.IsDevelopment()}))
	app.Use(requestid.New(requestid.Config{Generator: middleware.NewRequestID}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Config.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	app.Use(middleware.RequestLogger(d.Log))

	Register(app, d)
	app.Use(handlers.NotFound)
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	cfg := d.Config
	rl := cfg.RateLimit
	svc := d.Services
	users := d.Repos.Users

	requireAuth := middleware.RequireAuth(cfg.JWTSecret, d.Log)
	active := middleware.RequireActive(users, d.Log)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)
	can := func(perm models.Permission) fiber.Handler {
		return middleware.RequirePermission(users, perm, d.Log)
	}

	authLimiter := middleware.RateLimit("auth", rl.AuthMax, rl.Window,
		"Too many authentication attempts, please try again later.", d.Log)
	registrationLimiter := middleware.RateLimit("registration", rl.RegistrationMax, rl.RegistrationWindow,
		"Too many registration attempts, please try again later.", d.Log)
	searchLimiter := middleware.RateLimit("search", rl.SearchMax, rl.Window,
		"Too many search requests, please try again later.", d.Log)

	authHandler := handlers.NewAuthHandler(svc.Auth, d.Log)
	resetHandler := handlers.NewPasswordResetHandler(svc.Auth, d.Log)
	profileHandler := handlers.NewProfileHandler(svc.Users)
	productHandler := handlers.NewProductHandler(svc.Products, svc.Catalog)
	storeHandler := handlers.NewStoreHandler(svc.Stores)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
	marketingHandler := handlers.NewMarketingHandler(svc.Catalog)
	adminHandler := handlers.NewAdminHandler(svc, users, d.Log)
	healthHandler := handlers.NewHealthHandler(svc.Stats, cfg.Environment, d.Started)

	api := app.Group("/api")
	api.Get("/health", healthHandler.Health)

	api.Use(middleware.RateLimit("global", rl.GlobalMax, rl.Window,
		"Too many requests from this IP, please try again later.", d.Log))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", registrationLimiter, authHandler.Register)
	auth.Post("/login", authLimiter, authHandler.Login)
	auth.Post("/logout", requireAuth, authHandler.Logout)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/refresh-token", requireAuth, authHandler.Refresh)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Post("/verify-phone", authHandler.VerifyPhone)
	auth.Post("/resend-verification", authLimiter, authHandler.ResendVerification)
	auth.Post("/forgot-password", authLimiter, resetHandler.ForgotPassword)
	auth.Post("/reset-password", authLimiter, resetHandler.ResetPassword)
	auth.Put("/change-password", requireAuth, active, authHandler.ChangePassword)

	// Profile
	profile := api.Group("/profile", requireAuth)
	profile.Get("/", profileHandler.Get)
	profile.Put("/", active, profileHandler.Update)
	profile.Put("/preferences", active, profileHandler.UpdatePreferences)

	// Products
	products := api.Group("/products")
	products.Get("/", optionalAuth, productHandler.List)
	products.Get("/:id", optionalAuth, productHandler.Get)
	products.Post("/", requireAuth, active, productHandler.Create)
	products.Put("/:id", requireAuth, active, productHandler.Update)
	products.Delete("/:id", requireAuth, active, productHandler.Delete)
	products.Post("/:id/comments", requireAuth, active, productHandler.Comment)
	products.Post("/:id/offers", requireAuth, active, productHandler.Offer)
	products.Post("/:id/sold", requireAuth, active, productHandler.MarkSold)
	products.Post("/:id/reserve", requireAuth, active, productHandler.Reserve)
	products.Post("/:id/release", requireAuth, active, productHandler.Release)
	products.Post("/:id/pending", requireAuth, active, productHandler.MarkPending)
	products.Post("/:id/flag", requireAuth, active, productHandler.Flag)
	api.Get("/my/products", requireAuth, productHandler.Mine)

	// Search
	api.Get("/search", searchLimiter, optionalAuth, productHandler.Search)
	api.Post("/search", searchLimiter, optionalAuth, productHandler.SearchBody)

	// Catalog, marketing and public stats
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:id", catalogHandler.GetCategory)
	api.Get("/ads", marketingHandler.ListAds)
	api.Get("/stats", healthHandler.PublicStats)

	// Stores
	stores := api.Group("/stores")
	stores.Get("/", storeHandler.List)
	stores.Post("/", requireAuth, active, storeHandler.Create)
	stores.Get("/manage/:id", requireAuth, storeHandler.Manage)
	stores.Get("/:slug", storeHandler.GetBySlug)
	stores.Put("/:id", requireAuth, active, storeHandler.Update)
	stores.Post("/:id/admins", requireAuth, active, storeHandler.AddAdmin)
	stores.Delete("/:id/admins/:userId", requireAuth, active, storeHandler.RemoveAdmin)

	// Admin console
	admin := api.Group("/admin", requireAuth)
	admin.Get("/dashboard", can(models.PermViewAnalytics), adminHandler.Dashboard)
	admin.Get("/analytics", can(models.PermViewAnalytics), adminHandler.Analytics)

	admin.Get("/users", can(models.PermManageUsers), adminHandler.ListUsers)
	admin.Get("/users/:id", can(models.PermManageUsers), adminHandler.GetUser)
	admin.Put("/users/:id", can(models.PermManageUsers), adminHandler.UpdateUser)

	admin.Get("/stores", can(models.PermManageStores), adminHandler.ListStores)
	admin.Put("/stores/:id/status", can(models.PermManageStores), adminHandler.SetStoreStatus)
	admin.Put("/stores/:id/verify", can(models.PermManageStores), adminHandler.VerifyStore)

	admin.Get("/products", can(models.PermManageProducts), adminHandler.ListProducts)
	admin.Put("/products/:id/moderate", can(models.PermModerateContent), adminHandler.ModerateProduct)

	admin.Get("/categories", can(models.PermManageCategories), catalogHandler.AdminListCategories)
	admin.Post("/categories", can(models.PermManageCategories), catalogHandler.CreateCategory)
	admin.Put("/categories/:id", can(models.PermManageCategories), catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", can(models.PermManageCategories), catalogHandler.DeleteCategory)

	admin.Get("/ads", can(models.PermManageAds), marketingHandler.AdminListAds)
	admin.Post("/ads", can(models.PermManageAds), marketingHandler.CreateAd)
	admin.Put("/ads/:id", can(models.PermManageAds), marketingHandler.UpdateAd)
	admin.Delete("/ads/:id", can(models.PermManageAds), marketingHandler.DeleteAd)

	admin.Get("/settings", can(models.PermSystemConfig), marketingHandler.GetSettings)
	admin.Put("/settings", can(models.PermSystemConfig), marketingHandler.UpdateSettings)
}
