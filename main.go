package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bloodzy/backend/config"
	"bloodzy/backend/handlers"
	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/logging"
	"bloodzy/backend/services/matching"
	"bloodzy/backend/services/stats"
	"bloodzy/backend/store"
	"bloodzy/backend/store/cache"
	"bloodzy/backend/store/memory"
	"bloodzy/backend/store/mongo"
	"bloodzy/backend/store/postgres"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Logging)
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	checks := handlers.Checks{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	donors, closeDonors, err := openDonors(ctx, cfg.Mongo, logger, checks)
	if err != nil {
		return err
	}
	defer closeDonors()

	var statsCache stats.Cache
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		statsCache = cache.NewStatsCache(client, cfg.Redis.StatsTTL)
		logger.Info("statistics cache enabled", "ttl", cfg.Redis.StatsTTL)
	}

	users := postgres.NewUsers(db)
	donations := postgres.NewDonations(db)

	matcher := matching.New(donors, users,
		matching.WithIncludeUnavailable(cfg.Search.IncludeUnavailable),
		matching.WithLimit(cfg.Search.ResultLimit),
		matching.WithStoreTimeout(cfg.Search.StoreTimeout),
		matching.WithLogger(logger),
	)

	router := handlers.NewRouter(handlers.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Tokens:    auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Accounts:  users,
		Users:     users,
		Donors:    donors,
		Donations: donations,
		Hospitals: postgres.NewHospitals(db),
		Searcher:  matcher,
		Stats:     stats.NewService(donations, statsCache, logger),
		Health:    checks,
	})

	return serve(ctx, cfg.HTTP, router, logger)
}

// openDonors selects MongoDB when a URI is configured and the in-memory
// store otherwise.
func openDonors(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger, checks handlers.Checks) (store.DonorStore, func(), error) {
	if cfg.URI == "" {
		logger.Warn("MONGO_URI not set, donor profiles are kept in memory")
		return memory.NewDonorStore(), func() {}, nil
	}

	client, err := mongo.Connect(ctx, cfg.URI)
	if err != nil {
		return nil, nil, err
	}
	donors := mongo.NewDonorStore(client.Database(cfg.Database).Collection(cfg.DonorsCollection))
	if err := donors.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	checks["mongo"] = donors.Ping

	return donors, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect", "error", err)
		}
	}, nil
}

func serve(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
