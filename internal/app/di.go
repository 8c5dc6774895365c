// Package app provides a dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/seedsweep/internal/config"
	"github.com/allisson/seedsweep/internal/database"
	internalHTTP "github.com/allisson/seedsweep/internal/http"
	"github.com/allisson/seedsweep/internal/metrics"
	sweepHTTP "github.com/allisson/seedsweep/internal/sweep/http"
	sweepRepository "github.com/allisson/seedsweep/internal/sweep/repository"
	sweepUsecase "github.com/allisson/seedsweep/internal/sweep/usecase"
	"github.com/allisson/seedsweep/internal/trainer"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Repositories
	sweepRepo sweepUsecase.SweepRepository
	runRepo   sweepUsecase.RunRepository

	// Trainer
	runner trainer.Runner

	// Metrics
	metricsProvider *metrics.Provider
	sweepMetrics    metrics.SweepMetrics

	// Use Cases
	sweepUseCase sweepUsecase.UseCase

	// Servers
	httpServer    *internalHTTP.Server
	metricsServer *internalHTTP.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	sweepRepoInit       sync.Once
	runRepoInit         sync.Once
	runnerInit          sync.Once
	metricsProviderInit sync.Once
	sweepMetricsInit    sync.Once
	sweepUseCaseInit    sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the journal database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// SweepRepository returns the sweep repository instance.
func (c *Container) SweepRepository() (sweepUsecase.SweepRepository, error) {
	c.sweepRepoInit.Do(func() {
		repo, err := c.initSweepRepository()
		if err != nil {
			c.initErrors["sweepRepo"] = err
			return
		}
		c.sweepRepo = repo
	})
	if storedErr, exists := c.initErrors["sweepRepo"]; exists {
		return nil, storedErr
	}
	return c.sweepRepo, nil
}

// RunRepository returns the run repository instance.
func (c *Container) RunRepository() (sweepUsecase.RunRepository, error) {
	c.runRepoInit.Do(func() {
		repo, err := c.initRunRepository()
		if err != nil {
			c.initErrors["runRepo"] = err
			return
		}
		c.runRepo = repo
	})
	if storedErr, exists := c.initErrors["runRepo"]; exists {
		return nil, storedErr
	}
	return c.runRepo, nil
}

// Runner returns the trainer process runner.
func (c *Container) Runner() trainer.Runner {
	c.runnerInit.Do(func() {
		c.runner = trainer.NewExecRunner(
			c.config.RunTimeout,
			c.config.RunOutputTailBytes,
			c.Logger(),
		)
	})
	return c.runner
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// SweepMetrics returns the sweep metrics recorder, or nil when metrics are disabled.
func (c *Container) SweepMetrics() (metrics.SweepMetrics, error) {
	c.sweepMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["sweepMetrics"] = err
			return
		}
		if provider == nil {
			return
		}
		sweepMetrics, err := metrics.NewSweepMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["sweepMetrics"] = fmt.Errorf("failed to create sweep metrics: %w", err)
			return
		}
		c.sweepMetrics = sweepMetrics
	})
	if storedErr, exists := c.initErrors["sweepMetrics"]; exists {
		return nil, storedErr
	}
	return c.sweepMetrics, nil
}

// SweepUseCase returns the sweep use case instance.
func (c *Container) SweepUseCase() (sweepUsecase.UseCase, error) {
	c.sweepUseCaseInit.Do(func() {
		useCase, err := c.initSweepUseCase()
		if err != nil {
			c.initErrors["sweepUseCase"] = err
			return
		}
		c.sweepUseCase = useCase
	})
	if storedErr, exists := c.initErrors["sweepUseCase"]; exists {
		return nil, storedErr
	}
	return c.sweepUseCase, nil
}

// HTTPServer returns the status API server instance.
func (c *Container) HTTPServer() (*internalHTTP.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*internalHTTP.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = internalHTTP.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initSweepRepository creates the sweep repository for the configured driver.
func (c *Container) initSweepRepository() (sweepUsecase.SweepRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for sweep repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return sweepRepository.NewMySQLSweepRepository(db), nil
	case "postgres":
		return sweepRepository.NewPostgreSQLSweepRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRunRepository creates the run repository for the configured driver.
func (c *Container) initRunRepository() (sweepUsecase.RunRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for run repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return sweepRepository.NewMySQLRunRepository(db), nil
	case "postgres":
		return sweepRepository.NewPostgreSQLRunRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSweepUseCase creates the sweep use case with all its dependencies.
func (c *Container) initSweepUseCase() (sweepUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for sweep use case: %w", err)
	}

	sweepRepo, err := c.SweepRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep repository for sweep use case: %w", err)
	}

	runRepo, err := c.RunRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get run repository for sweep use case: %w", err)
	}

	sweepMetrics, err := c.SweepMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep metrics for sweep use case: %w", err)
	}

	useCaseConfig := sweepUsecase.Config{
		TrainerProgram: c.config.TrainerProgram,
		TrainerScript:  c.config.TrainerScript,
		TrainerWorkDir: c.config.TrainerWorkDir,
		Cooldown:       c.config.RunCooldown,
		MaxAttempts:    c.config.RunMaxAttempts,
		RetryDelay:     c.config.RunRetryDelay,
	}

	return sweepUsecase.NewSweepUseCase(
		useCaseConfig,
		txManager,
		sweepRepo,
		runRepo,
		c.Runner(),
		sweepMetrics,
		c.Logger(),
	), nil
}

// initHTTPServer creates the status API server with all its dependencies.
func (c *Container) initHTTPServer() (*internalHTTP.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	useCase, err := c.SweepUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep use case for http server: %w", err)
	}

	options := internalHTTP.Options{
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}
	if provider != nil {
		options.MetricsMiddleware = metrics.HTTPMetricsMiddleware(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
		)
	}

	sweepHandler := sweepHTTP.NewSweepHandler(useCase, logger)

	return internalHTTP.NewServer(
		db,
		c.config.ServerHost,
		c.config.ServerPort,
		logger,
		sweepHandler,
		options,
	), nil
}
