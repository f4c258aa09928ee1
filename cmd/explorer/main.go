package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	app_service "crypto-bubble-map-explorer/internal/application/service"
	"crypto-bubble-map-explorer/internal/domain/entity"
	domain_service "crypto-bubble-map-explorer/internal/domain/service"
	"crypto-bubble-map-explorer/internal/infrastructure/config"
	"crypto-bubble-map-explorer/internal/infrastructure/database"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"
	"crypto-bubble-map-explorer/internal/infrastructure/messaging"
	"crypto-bubble-map-explorer/internal/infrastructure/metrics"
	"crypto-bubble-map-explorer/internal/infrastructure/transport"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.Resolver),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			database.NewNeo4JWalletRepository,
			database.NewNeo4JTransactionRepository,
			messaging.NewNATSConnection,
			messaging.NewNATSConsumer,
			messaging.NewNATSPublisher,
			func(cfg *config.Config) *metrics.Collector {
				return metrics.NewCollector(cfg.Metrics.Namespace)
			},
		),

		// Application providers
		fx.Provide(
			app_service.NewWalletResolverService,
			newViewManager,
			newHTTPServer,
		),

		fx.Invoke(startDatabase),
		fx.Invoke(startMessaging),
		fx.Invoke(startHTTPServer),

		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

func newViewManager(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	resolver domain_service.WalletResolver,
	collector *metrics.Collector,
	publisher *messaging.NATSPublisher,
	log *logger.Logger,
) *app_service.ViewManager {
	var observer app_service.ViewObserver = app_service.NopObserver{}
	if cfg.Metrics.Enabled {
		observer = collector
	}

	views := app_service.NewViewManager(app_service.NewGraphViewConfig(cfg), resolver, observer, cfg.App.MaxViews, log)
	if cfg.NATS.Enabled && cfg.NATS.PublishEvents {
		views.AddListener(publisher.HandleNodeEvent)
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			views.CloseAll()
			return nil
		},
	})
	return views
}

func newHTTPServer(
	cfg *config.Config,
	views *app_service.ViewManager,
	collector *metrics.Collector,
	neo4jClient *database.Neo4JClient,
	nc *messaging.NATSConnection,
	log *logger.Logger,
) *transport.Server {
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = collector.Handler()
	}

	health := func(ctx context.Context) map[string]bool {
		checks := map[string]bool{"neo4j": neo4jClient.IsConnected(ctx)}
		if nc.Enabled() {
			checks["nats"] = nc.IsConnected()
		}
		return checks
	}

	return transport.NewServer(transport.ServerConfig{
		Port:        cfg.App.HTTPPort,
		MetricsPath: cfg.Metrics.Path,
	}, views, metricsHandler, health, log)
}

// startDatabase connects the Neo4J client backing the wallet resolver
func startDatabase(lifecycle fx.Lifecycle, neo4jClient *database.Neo4JClient, log *logger.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := neo4jClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Neo4J: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := neo4jClient.Close(ctx); err != nil {
				log.Error("Failed to close Neo4J connection", zap.Error(err))
			}
			return nil
		},
	})
}

// startMessaging connects NATS and feeds search requests to a worker pool
func startMessaging(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	nc *messaging.NATSConnection,
	consumer *messaging.NATSConsumer,
	views *app_service.ViewManager,
	log *logger.Logger,
) {
	var wg sync.WaitGroup
	workCtx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := nc.Connect(ctx); err != nil {
				return err
			}
			if err := consumer.Subscribe(); err != nil {
				return err
			}

			workers := cfg.App.WorkerPoolSize
			if workers <= 0 {
				workers = 1
			}
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(workerID int) {
					defer wg.Done()
					processSearches(workCtx, consumer.GetMessageChannel(), views, log.WithFields(zap.Int("worker_id", workerID)))
				}(i)
			}
			log.Info("Search workers started", zap.Int("workers", workers))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			if err := consumer.Disconnect(); err != nil {
				log.Error("Failed to stop consumer", zap.Error(err))
			}
			wg.Wait()
			return nc.Close()
		},
	})
}

// processSearches adds each requested wallet to its view until the channel closes
func processSearches(ctx context.Context, requests <-chan *entity.SearchRequest, views *app_service.ViewManager, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			view, err := views.GetOrCreate(req.ViewID)
			if err != nil {
				log.Warn("Cannot open view for search", zap.String("view_id", req.ViewID), zap.Error(err))
				continue
			}

			node, err := view.AddWallet(ctx, req.Address, nil)
			if err != nil {
				if errors.Is(err, app_service.ErrAddInFlight) {
					log.Debug("Search dropped, add in flight", zap.String("address", req.Address))
				} else {
					log.Error("Failed to add searched wallet", zap.String("address", req.Address), zap.Error(err))
				}
				continue
			}

			if req.Expand {
				if _, err := view.ExpandConnections(ctx, node.ID); err != nil {
					log.Warn("Failed to expand connections", zap.String("node_id", node.ID), zap.Error(err))
				}
			}
		}
	}
}

// startHTTPServer serves the view API
func startHTTPServer(lifecycle fx.Lifecycle, server *transport.Server) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
