package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"wagerledger/config"
	"wagerledger/database"
	"wagerledger/events"
	"wagerledger/handlers"
	"wagerledger/infrastructure"
	"wagerledger/metrics"
	"wagerledger/repository"
	"wagerledger/repository/memory"
	"wagerledger/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	if err := ConfigureLogging(cfg); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageDriver,
		"custodian":   cfg.Custodian,
	}).Info("Starting wager ledger...")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize storage
	var (
		uowFactory  service.UnitOfWorkFactory
		clock       service.Clock = service.SystemClock{}
		manualClock *service.ManualClock
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		manualClock = service.NewManualClock(time.Now().UTC())
		clock = manualClock
		uowFactory = memory.NewStore(clock).NewUnitOfWorkFactory(eventBus)
		log.Warn("Using in-memory storage; state is lost on exit and the clock only moves through /api/dev/clock")
	default:
		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		log.Info("Database connection established successfully")

		uowFactory = repository.NewUnitOfWorkFactory(db, eventBus)
	}

	// Initialize NATS when configured
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer natsClient.Close()

		publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		if err := publisher.EnsureDomainEventStream(natsClient); err != nil {
			log.WithError(err).Warn("Could not ensure ledger event stream, events may be dropped")
		}
		publisher.Attach(eventBus)
	}

	// Initialize custodian
	var custodian service.Custodian
	switch cfg.Custodian {
	case config.CustodianNATS:
		if natsClient == nil {
			return errors.New("the nats custodian requires NATS_SERVERS")
		}
		custodian = infrastructure.NewNATSCustodian(natsClient, cfg.CustodianSubject, cfg.CustodianTimeout)
	default:
		custodian = infrastructure.NewLogCustodian()
	}

	// Initialize services
	ledgerService := service.NewLedgerService(uowFactory, cfg.Game, clock)
	withdrawalService := service.NewWithdrawalService(uowFactory, cfg.Game, clock, custodian)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Ledger:      ledgerService,
		Withdrawals: withdrawalService,
		Metrics:     ledgerMetrics,
		Gatherer:    registry,
		Clock:       manualClock,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	// Give in-flight requests time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("Shutdown completed")
	return nil
}

// ConfigureLogging applies the configured level and format to logrus
func ConfigureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
