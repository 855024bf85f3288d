package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/salemfin/backend/docs"
	"github.com/salemfin/backend/internal/cache"
	"github.com/salemfin/backend/internal/config"
	"github.com/salemfin/backend/internal/database"
	"github.com/salemfin/backend/internal/handlers"
	mW "github.com/salemfin/backend/internal/middleware"
	"github.com/salemfin/backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Salem API
// @version 1.0
// @description API for personal finance tracking: accounts, cards, invoices and transactions
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	// Set environment variable prefix
	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Salem API"
	docs.SwaggerInfo.Description = "API for personal finance tracking: accounts, cards, invoices and transactions"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Rates cache falls back to in-process storage when Redis is down
	var rateCache cache.RateCache
	if redisClient != nil {
		rateCache = cache.NewRedisCache(redisClient)
	} else {
		rateCache = cache.NewMemoryCache()
	}

	authService := services.NewAuthService(db, redisClient)
	accountService := services.NewAccountService(db)
	cardService := services.NewCardService(db)
	transactionService := services.NewTransactionService(db)
	invoiceService := services.NewInvoiceService(db)
	invoiceQRService := services.NewInvoiceQRService(db, redisClient)
	invoiceQRHandler := handlers.NewInvoiceQRHandler(invoiceQRService)
	ratesService := services.NewRatesService(rateCache, config.LoadRatesConfig())
	brandService := services.NewBrandService()
	voiceService := services.NewVoiceCaptureService()
	defer voiceService.Close()

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for card brand logos
	r.Handle("/static/brand-logos/*", http.StripPrefix("/static/brand-logos/",
		mW.StaticFileServer("./static/brand-logos")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)
		r.Get("/brands", brandService.GetAllBrands)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)

			// Account endpoints
			r.Post("/accounts", accountService.CreateAccount)
			r.Get("/accounts", accountService.ListAccounts)
			r.Get("/accounts/balance-enquiry", accountService.AccountBalanceEnquiry)
			r.Get("/accounts/{accountId}", accountService.GetAccount)
			r.Delete("/accounts/{accountId}", accountService.DeleteAccount)

			// Card endpoints
			r.Post("/cards", cardService.CreateCard)
			r.Get("/cards", cardService.ListCards)
			r.Get("/cards/{cardId}", cardService.GetCard)
			r.Patch("/cards/{cardId}", cardService.UpdateCard)
			r.Delete("/cards/{cardId}", cardService.DeleteCard)
			r.Get("/cards/{cardId}/invoices", invoiceService.ListInvoices)

			// Transaction endpoints
			r.Post("/transactions", transactionService.CreateTransaction)
			r.Get("/transactions", transactionService.ListTransactions)
			r.Get("/transactions/recent", transactionService.RecentTransactions)
			r.Get("/transactions/{transactionId}", transactionService.GetTransaction)
			r.Delete("/transactions/{transactionId}", transactionService.DeleteTransaction)
			r.Post("/transactions/voice-capture", voiceService.CaptureTransaction)

			// Invoice endpoints
			r.Get("/invoices/{invoiceId}", invoiceService.GetInvoice)
			r.Patch("/invoices/{invoiceId}", invoiceService.UpdateInvoice)
			r.Post("/invoices/{invoiceId}/pay", invoiceService.PayInvoice)
			r.Post("/invoices/{invoiceId}/reopen", invoiceService.ReopenInvoice)
			r.Post("/invoices/qr/generate", invoiceQRHandler.GenerateQR)
			r.Post("/invoices/qr/settle", invoiceQRHandler.SettleQR)

			// Exchange rate endpoints
			r.Get("/rates", ratesService.GetRate)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
