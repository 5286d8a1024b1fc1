package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"essence_back_end/internal/handlers"
	"essence_back_end/internal/handlers/offer"
	"essence_back_end/internal/handlers/order"
	"essence_back_end/internal/handlers/product"
	"essence_back_end/internal/handlers/user"
	"essence_back_end/internal/middleware"
)

type Handlers struct {
	Auth     *user.Handler
	Orders   *order.Handler
	Products *product.Handler
	Offers   *offer.Handler
	Checks   map[string]handlers.Check
}

type Options struct {
	AllowedOrigins []string
	Tokens         middleware.TokenParser
	Limiter        middleware.RateLimiter
	OTPLimit       int
	OTPWindow      time.Duration
	OTPVerifyLimit int
}

func RegisterRoutes(r *gin.Engine, h Handlers, opts Options) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authRequired := middleware.AuthRequired(opts.Tokens)

	r.GET("/health", handlers.Health(h.Checks))

	// --- Auth par code ---
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/otp/request", middleware.OTPRateLimit(opts.Limiter, opts.OTPLimit, opts.OTPWindow), h.Auth.RequestCode)
		authGroup.POST("/otp/verify", middleware.IdentityRateLimit("otp_verify", opts.Limiter, opts.OTPVerifyLimit, opts.OTPWindow), h.Auth.VerifyCode)
		authGroup.GET("/me", authRequired, h.Auth.Me)
		authGroup.PUT("/me", authRequired, h.Auth.UpdateMe)
	}

	// --- Catalogue ---
	products := r.Group("/products")
	{
		products.GET("", h.Products.GetAllProducts)
		products.GET("/search", h.Products.SearchProducts)
		products.GET("/:id", h.Products.GetProduct)

		admin := products.Group("", authRequired, middleware.RequireAdmin)
		admin.POST("", h.Products.CreateProduct)
		admin.POST("/:id/image", h.Products.UploadImage)
		admin.PUT("/:id/variants/:variant_id/stock", h.Products.UpdateVariantStock)
		admin.GET("/:id/movements", h.Products.GetStockMovements)
		admin.GET("/:id/alerts", h.Products.GetStockAlerts)
	}

	// --- Offres ---
	offers := r.Group("/offers")
	{
		offers.GET("", h.Offers.GetOffers)

		admin := offers.Group("", authRequired, middleware.RequireAdmin)
		admin.GET("/all", h.Offers.AdminGetOffers)
		admin.POST("", h.Offers.CreateOffer)
		admin.PUT("/:id/quantity", h.Offers.UpdateQuantity)
	}

	// --- Commandes ---
	orders := r.Group("/orders", authRequired)
	{
		orders.POST("", h.Orders.CreateOrder)
		orders.GET("", h.Orders.GetMyOrders)
		orders.GET("/ws", h.Orders.OrderStatusWebSocket)
		orders.GET("/admin/all", middleware.RequireAdmin, h.Orders.AdminListOrders)
		orders.GET("/:id", h.Orders.GetOrderByID)
		orders.PUT("/:id/status", middleware.RequireAdmin, h.Orders.UpdateOrderStatus)
	}
}
