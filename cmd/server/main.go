package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	httpapi "hiringhall-backend/internal/api/http"
	"hiringhall-backend/internal/config"
	"hiringhall-backend/internal/jobs"
	"hiringhall-backend/internal/logger"
	"hiringhall-backend/internal/repository/postgres"
	"hiringhall-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Hiring Hall Referral Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Notifier
	notifier := service.NewSendGridNotifier(cfg.SendGrid)

	// Initialize Services
	ledgerSvc := service.NewLedgerService(
		store.BookRepository,
		store.RegistrationRepository,
		store.ActivityRepository,
		notifier,
	)
	intakeSvc := service.NewIntakeService(
		store.RequestRepository,
		store.BookRepository,
		store.ActivityRepository,
		cfg.Referral,
	)
	dispatchSvc := service.NewDispatchService(
		store.ClaimRepository,
		store.DispatchRepository,
		store.RequestRepository,
		store.BlackoutRepository,
		notifier,
		cfg.Referral,
	)
	bidSvc := service.NewBidService(
		store.BidRepository,
		store.RequestRepository,
		store.RegistrationRepository,
		store.SuspensionRepository,
		store.BlackoutRepository,
		store.ActivityRepository,
		store.ClaimRepository,
		intakeSvc,
		notifier,
		cfg.Referral,
	)
	analyticsSvc := service.NewAnalyticsService(
		store.BookRepository,
		store.RegistrationRepository,
		store.DispatchRepository,
	)

	// The enforcement runner is exposed over the API for out-of-schedule runs;
	// the standing schedule lives in the enforcer binary.
	enforcer := jobs.NewRunner(jobs.Repos{
		Registrations: store.RegistrationRepository,
		Requests:      store.RequestRepository,
		Dispatches:    store.DispatchRepository,
		Blackouts:     store.BlackoutRepository,
		Suspensions:   store.SuspensionRepository,
	}, ledgerSvc, intakeSvc, notifier, int32(cfg.Scheduler.BatchSize))

	router := httpapi.NewRouter(httpapi.Handlers{
		Ledger:    ledgerSvc,
		Intake:    intakeSvc,
		Dispatch:  dispatchSvc,
		Bids:      bidSvc,
		Analytics: analyticsSvc,
		Enforcer:  enforcer,
	})

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
