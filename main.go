package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/incomesense-be/internal/api"
	"github.com/isdelr/incomesense-be/internal/auth"
	"github.com/isdelr/incomesense-be/internal/broker"
	"github.com/isdelr/incomesense-be/internal/config"
	"github.com/isdelr/incomesense-be/internal/database"
	"github.com/isdelr/incomesense-be/internal/logger"
	"github.com/isdelr/incomesense-be/internal/monitoring"
	"github.com/isdelr/incomesense-be/internal/repository"
	"github.com/isdelr/incomesense-be/internal/repository/mongorepo"
	"github.com/isdelr/incomesense-be/internal/repository/sqlrepo"
	"github.com/isdelr/incomesense-be/internal/services"
	"github.com/isdelr/incomesense-be/internal/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exiting")
}

func run(ctx context.Context, cfg *config.Config) error {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	// Set up WebSocket Hub and the optional broker
	hub := websocket.NewHub()
	notifiers := services.Notifiers{hub}
	if cfg.AMQPURL != "" {
		publisher, err := broker.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn().Err(err).Msg("AMQP unavailable, change messages will not be published")
		} else {
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
			log.Info().Str("exchange", cfg.AMQPExchange).Msg("Publishing change messages to AMQP")
		}
	}

	// Set up services
	userService := services.NewUserService(store)
	transactionService := services.NewTransactionService(store, store, notifiers)
	summaryService := services.NewSummaryService(store)
	eventService := services.NewEventService(store)

	scheduler, err := monitoring.NewScheduler(cfg.EventPruneSchedule, cfg.EventRetention, eventService)
	if err != nil {
		return err
	}
	statUpdater, err := monitoring.NewStatUpdater(15 * time.Second)
	if err != nil {
		return fmt.Errorf("init stat updater: %w", err)
	}

	router := api.NewRouter(api.Deps{
		BasePath:       cfg.BasePath,
		AllowedOrigins: cfg.AllowedOrigins,
		Tokens:         tokens,
		Users:          userService,
		Transactions:   transactionService,
		Summaries:      summaryService,
		Events:         eventService,
		Hub:            hub,
		Store:          store,
		Stats:          statUpdater,
		Started:        time.Now(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error { return statUpdater.Run(gctx) })
	g.Go(func() error {
		log.Info().Int("port", cfg.ServerPort).Str("base_path", cfg.BasePath).Str("driver", cfg.DatabaseDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore connects to the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		db, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return mongorepo.New(ctx, db)
	case config.DriverPostgres:
		return openSQLStore(database.Postgres, cfg.DatabaseURL)
	default:
		return openSQLStore(database.SQLite, cfg.DatabasePath)
	}
}

func openSQLStore(driver, dsn string) (repository.Store, error) {
	db, err := database.New(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply database migrations: %w", err)
	}
	return sqlrepo.New(db, driver)
}
