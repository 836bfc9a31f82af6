package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"hiringhall-backend/internal/config"
	"hiringhall-backend/internal/jobs"
	"hiringhall-backend/internal/logger"
	"hiringhall-backend/internal/repository/postgres"
	"hiringhall-backend/internal/scheduler"
	"hiringhall-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run one enforcement rule (or 'all') and exit")
	dryRun := flag.Bool("dry-run", false, "Report what would be acted on without writing")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Hiring Hall Enforcement Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Services
	notifier := service.NewSendGridNotifier(cfg.SendGrid)
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

	// Initialize Enforcement Runner
	runner := jobs.NewRunner(jobs.Repos{
		Registrations: store.RegistrationRepository,
		Requests:      store.RequestRepository,
		Dispatches:    store.DispatchRepository,
		Blackouts:     store.BlackoutRepository,
		Suspensions:   store.SuspensionRepository,
	}, ledgerSvc, intakeSvc, notifier, int32(cfg.Scheduler.BatchSize))
	runner.DryRun = *dryRun

	// Check if running a single rule
	if *runOnce != "" {
		logger.Info("Running enforcement once", "rule", *runOnce, "dry_run", *dryRun)
		runRuleOnce(runner, *runOnce)
		logger.Info("Enforcement run completed", "rule", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(runner, cfg.Scheduler)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Enforcement scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down enforcement scheduler...")
	cronScheduler.Stop()
	logger.Info("Enforcement scheduler stopped. Goodbye!")
}

// runRuleOnce runs a single enforcement rule (or all of them) and exits
func runRuleOnce(runner *jobs.Runner, rule string) {
	ctx := context.Background()
	if rule == "all" {
		runner.RunAll(ctx)
		return
	}
	if err := runner.RunRule(ctx, rule); err != nil {
		logger.Error("Unknown rule name", "rule", rule)
		fmt.Printf("Available rules:\n")
		fmt.Printf("  - %s\n", jobs.RuleBlackouts)
		fmt.Printf("  - %s\n", jobs.RuleSuspensions)
		fmt.Printf("  - %s\n", jobs.RuleReSigns)
		fmt.Printf("  - %s\n", jobs.RuleTimeLimits)
		fmt.Printf("  - %s\n", jobs.RuleExemptions)
		fmt.Printf("  - %s\n", jobs.RuleRequests)
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
