package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"astroapp-go/internal/action"
	"astroapp-go/internal/billing"
	"astroapp-go/internal/config"
	"astroapp-go/internal/metrics"
	"astroapp-go/internal/profile"
	"astroapp-go/internal/storage"
	"astroapp-go/internal/telegram"
	"astroapp-go/internal/zodiac"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Application holds all the major components of the service.
type Application struct {
	Config        *config.Config
	Logger        *log.Logger
	Storage       *storage.SQLiteStorage
	Resolver      *profile.Resolver
	Dispatcher    *action.Dispatcher
	Invoicer      *billing.Invoicer
	Telegram      *telegram.Service
	Router        chi.Router
	HTTPServer    *http.Server
	MetricsServer *http.Server

	validate   *validator.Validate
	pollCancel context.CancelFunc
}

// New creates and initializes a new Application instance.
func New(cfg *config.Config) (*Application, error) {
	logger := log.New(os.Stdout, "astroapp: ", log.LstdFlags)

	// Setup: Database
	storageCfg := storage.DefaultConfig()
	storageCfg.Path = cfg.DBPath
	store, err := storage.Open(storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Setup: Telegram bot (optional; features degrade without it)
	var tg *telegram.Service
	if cfg.BotToken != "" {
		tg, err = telegram.NewService(cfg.BotToken, store, logger)
		if err != nil {
			logger.Printf("telegram bot unavailable, continuing without it: %v", err)
			tg = nil
		}
	} else {
		logger.Printf("BOT_TOKEN is not set; invoice and message features are disabled")
	}

	defaultSign, ok := zodiac.Lookup(cfg.DefaultZodiac)
	if !ok {
		defaultSign = zodiac.Signs()[0]
	}

	var notifier action.Notifier
	var botClient billing.BotClient
	if tg != nil {
		notifier = tg
		botClient = tg
	}

	app := &Application{
		Config:     cfg,
		Logger:     logger,
		Storage:    store,
		Resolver:   profile.NewResolver(store, defaultSign, logger),
		Dispatcher: action.NewDispatcher(store, notifier, logger),
		Invoicer:   billing.NewInvoicer(botClient, store, cfg.StarsPrice, logger),
		Telegram:   tg,
		validate:   validator.New(),
	}

	// Storage gauges on /metrics. Register is tolerant of reruns so test
	// setups can construct more than one Application per process.
	if err := prometheus.Register(metrics.NewStorageCollector(store, logger)); err != nil {
		logger.Printf("storage collector not registered: %v", err)
	}

	app.Router = app.buildRouter()

	app.HTTPServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: app.Router,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	app.MetricsServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	return app, nil
}

// buildRouter assembles the HTTP surface.
func (a *Application) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(a.recordMetrics)

	r.Get("/", a.handleIndex)
	r.Get("/health", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(a.verifyInitData)
		r.Get("/user/{userID}", a.handleGetUser)
		r.Post("/action", a.handleAction)
		r.Post("/create-invoice", a.handleCreateInvoice)
	})

	return r
}

// Start begins the application's services.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.Println("Starting application services...")

	if a.Telegram != nil {
		pollCtx, cancel := context.WithCancel(ctx)
		a.pollCancel = cancel
		go a.Telegram.StartPolling(pollCtx)
		a.Logger.Println("Bot polling started.")
	}

	go func() {
		a.Logger.Printf("Starting metrics server on %s", a.MetricsServer.Addr)
		if err := a.MetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatalf("Metrics server ListenAndServe: %v", err)
		}
	}()

	go func() {
		a.Logger.Printf("Starting HTTP server on %s", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application's services.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.Println("Stopping application services...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Printf("HTTP server shutdown error: %v", err)
	}

	if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Printf("Metrics server shutdown error: %v", err)
	}

	if a.pollCancel != nil {
		a.pollCancel()
		a.Logger.Println("Bot polling stopped.")
	}

	if err := a.Storage.Close(); err != nil {
		a.Logger.Printf("Error closing database: %v", err)
	}

	a.Logger.Println("Application stopped gracefully.")
	return nil
}
