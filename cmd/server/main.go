package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"essence_back_end/internal/auth"
	"essence_back_end/internal/cache"
	"essence_back_end/internal/catalog"
	"essence_back_end/internal/config"
	"essence_back_end/internal/database"
	"essence_back_end/internal/handlers"
	"essence_back_end/internal/handlers/offer"
	"essence_back_end/internal/handlers/order"
	"essence_back_end/internal/handlers/product"
	"essence_back_end/internal/handlers/user"
	"essence_back_end/internal/offers"
	"essence_back_end/internal/orders"
	"essence_back_end/internal/routes"
	"essence_back_end/internal/services"
	"essence_back_end/internal/utils"
)

func main() {
	config.Load()
	cfg := config.FromEnv()
	if missing := cfg.Validate(); len(missing) > 0 {
		log.Fatalf("❌ Configuration incomplète: %v", missing)
	}

	conns, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer conns.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stockage ---
	productCache := cache.NewProductCache(conns.Redis, cfg.ProductCacheTTL)
	catalogStore := catalog.NewStore(conns.Scylla,
		catalog.WithCASAttempts(cfg.StockCASAttempts),
		catalog.WithChangeHook(func(id gocql.UUID) {
			productCache.Invalidate(context.Background(), id.String())
		}),
	)
	if cfg.Scylla.AutoMigrate {
		if err := catalogStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	offerStore := offers.NewMongoStore(conns.MongoDB)
	orderStore := orders.NewMongoStore(conns.MongoDB)
	userStore := auth.NewMongoUserStore(conns.MongoDB)
	if err := orderStore.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️ Index commandes: %v", err)
	}
	if err := userStore.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️ Index utilisateurs: %v", err)
	}

	// --- Notifications ---
	mailer := utils.NewMailer(cfg.SMTP)
	events := services.NewOrderEvents(conns.Redis)
	notifier := services.NewNotifier(events, mailer)

	// --- Services ---
	orderService := orders.NewService(orderStore, notifier, orders.Options{
		Pricing:      orders.PricePolicy{TrustClientOfferPrice: cfg.TrustClientOfferPrice},
		StrictStatus: cfg.StrictOrderStatus,
	}, catalog.NewSource(catalogStore), offers.NewSource(offerStore))

	otp := auth.NewOTPService(cache.NewOTPStore(conns.Redis), map[string]auth.CodeSender{
		auth.KindEmail: utils.EmailCodeSender{Mailer: mailer},
		auth.KindPhone: utils.LogSMSSender{},
	}, auth.OTPOptions{TTL: cfg.OTPTTL, MaxAttempts: cfg.OTPMaxAttempts})
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(otp, userStore, tokens, cfg.AdminIdentities)

	var search product.Searcher
	if conns.Elastic != nil {
		search = services.NewProductSearch(conns.Elastic, cfg.Elastic.Index)
	}
	var images product.ImageStore
	if conns.MinIO != nil {
		images = services.NewImageStorage(conns.MinIO, cfg.MinIO.Bucket, time.Hour)
	}

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Handlers{
		Auth:     user.NewHandler(authService),
		Orders:   order.NewHandler(orderService, events),
		Products: product.NewHandler(catalogStore, productCache, search, images),
		Offers:   offer.NewHandler(offerStore),
		Checks: map[string]handlers.Check{
			"scylla": func(ctx context.Context) error {
				return conns.Scylla.Query("SELECT now() FROM system.local").WithContext(ctx).Exec()
			},
			"mongo": func(ctx context.Context) error { return conns.Mongo.Ping(ctx, nil) },
			"redis": func(ctx context.Context) error { return conns.Redis.Ping(ctx).Err() },
		},
	}, routes.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Tokens:         tokens,
		Limiter:        cache.NewLimiter(conns.Redis),
		OTPLimit:       cfg.OTPRequestLimit,
		OTPWindow:      cfg.OTPRequestWindow,
		OTPVerifyLimit: cfg.OTPVerifyLimit,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("🚀 Serveur Essence lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}
	notifier.Wait()
}
