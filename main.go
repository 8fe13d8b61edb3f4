package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"quantlab/config"
	"quantlab/internal/adapters/logger"
	"quantlab/internal/adapters/providers"
	"quantlab/internal/adapters/sqlite"
	"quantlab/internal/app"
	"quantlab/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Development)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.Log.Level})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.Database.Path,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Market Data Provider
	provider, err := providers.FromConfig(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data provider")
		log.Fatalf("FATAL: Failed to initialize market data provider: %v", err)
	}
	appLogger.Info(context.Background(), "Market data provider initialized", map[string]interface{}{"provider": provider.Name()})

	// 5. Initialize Signal Scanner
	scanner, err := strategy.NewScanner(strategy.DefaultScannerConfig(), appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize signal scanner")
		log.Fatalf("FATAL: Failed to initialize signal scanner: %v", err)
	}
	appLogger.Info(context.Background(), "Signal scanner initialized")

	// 6. Initialize Application Service
	researchService, err := app.NewResearchService(
		cfg,
		appLogger,
		provider, // Pass the concrete implementation, service expects the interface
		repo,     // Pass the concrete implementation, service expects the interface
		repo,     // Pass the concrete implementation, service expects the interface
		scanner,
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize research service")
		log.Fatalf("FATAL: Failed to initialize research service: %v", err)
	}
	appLogger.Info(context.Background(), "Research service initialized")

	// 7. Start the Service
	// Use context.Background() as the base context for the application run
	if err := researchService.Run(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Research service exited with error")
		log.Fatalf("FATAL: Research service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
