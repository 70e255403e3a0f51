package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/storefront-checkout/internal/client"     // HTTP clients for cart and payment collaborators
	"github.com/iliyamo/storefront-checkout/internal/config"     // Internal config loader
	"github.com/iliyamo/storefront-checkout/internal/database"   // MySQL connector
	"github.com/iliyamo/storefront-checkout/internal/handler"    // HTTP handlers
	"github.com/iliyamo/storefront-checkout/internal/middleware" // Rate limiting middleware
	"github.com/iliyamo/storefront-checkout/internal/queue"      // Order event consumer
	"github.com/iliyamo/storefront-checkout/internal/repository" // Stores and repositories
	"github.com/iliyamo/storefront-checkout/internal/router"     // Route registration
	"github.com/iliyamo/storefront-checkout/internal/service"    // Checkout orchestration
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env vars win

	cfg := config.Load() // Load environment config

	// Authoritative stock lives in MySQL.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}

	// The reservation ledger and checkout sessions live in Redis.  Unlike
	// rate limiting there is no graceful degradation here: without Redis
	// every reserve would have to fail closed, so refuse to start instead.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed; reservation core cannot run without it")
	}

	reservations := repository.NewReservationStore(rdb)
	sessions := repository.NewCheckoutSessionStore(rdb, cfg.CheckoutSessionTTL)
	products := repository.NewProductRepo(db)

	cart := client.NewCartClient(cfg.CartServiceURL)
	payments := client.NewPaymentClient(cfg.PaymentServiceURL)
	publisher := queue.NewPublisher()

	checkout := service.NewCheckoutService(reservations, sessions, products, cart, payments, publisher, cfg.ReservationTTL)
	availability := service.NewAvailabilityResolver(products, reservations)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterShop(e,
		handler.NewCartHandler(checkout, availability),
		handler.NewCheckoutHandler(checkout),
		cfg.JWTSecret,
		limiter,
	)

	// Consume order.confirmed events in the background; the loop reconnects
	// on broker failures and never takes the server down.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
