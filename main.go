package main

import (
	"context"
	"crypto/tls"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/spendlens/src/config"
	"github.com/username/spendlens/src/database"
	"github.com/username/spendlens/src/handlers"
	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/parsers"
	"github.com/username/spendlens/src/parsers/chase"
	"github.com/username/spendlens/src/processors"
	"github.com/username/spendlens/src/rules"
	"github.com/username/spendlens/src/services"
	"github.com/username/spendlens/src/utils"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			logger.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path)
			utils.SendJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("SpendLens server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	defer database.DB.Close()
	if err := database.RunMigrations(database.DB, "sqlite", config.Cfg.MigrationsPath); err != nil {
		logger.L.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	registry := parsers.NewRegistry()
	registry.Register(chase.IssuerID, chase.NewParser())
	logger.L.Info("Statement parsers registered", "issuers", registry.Issuers())

	ruleCache := cache.New(rules.DefaultCacheTTL, rules.CacheCleanupInterval)
	ruleEngine := rules.NewEngine(rules.RuleSourceFunc(func(ctx context.Context) ([]models.Rule, error) {
		return model.ListActiveRules(ctx, database.DB)
	}), ruleCache, config.Cfg.RulesCacheTTL)

	snapshotService := services.NewSnapshotService(database.DB, config.Cfg.PaymentTypes)
	importService := services.NewImportService(database.DB, registry, ruleEngine, snapshotService, config.Cfg.UploadDir)
	subscriptionService := services.NewSubscriptionService(database.DB, processors.NewRecurringProcessor(), config.Cfg.PaymentTypes)
	ruleService := services.NewRuleService(database.DB, ruleEngine)
	accountService := services.NewAccountService(database.DB, registry)
	categoryService := services.NewCategoryService(database.DB)

	api := &handlers.API{
		Imports:       handlers.NewImportHandler(importService, config.Cfg.MaxUploadSizeBytes, config.Cfg.ImportRoot),
		Accounts:      handlers.NewAccountHandler(accountService, categoryService),
		Rules:         handlers.NewRuleHandler(ruleService),
		Subscriptions: handlers.NewSubscriptionHandler(subscriptionService),
		Snapshots:     handlers.NewSnapshotHandler(snapshotService),
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(handlers.CORSMiddleware(config.Cfg.AllowedOrigins))
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "SpendLens backend is running"})
	})

	r.Route("/api", api.Mount)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			utils.SendJSONError(w, "route not found", http.StatusNotFound)
			return
		}
		http.NotFound(w, r)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.L.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
	}
}
