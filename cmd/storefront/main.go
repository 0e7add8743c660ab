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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/tourcart/internal/api"
	"github.com/nikolayk812/tourcart/internal/assistant"
	"github.com/nikolayk812/tourcart/internal/cart"
	"github.com/nikolayk812/tourcart/internal/config"
	"github.com/nikolayk812/tourcart/internal/events"
	"github.com/nikolayk812/tourcart/internal/logger"
	"github.com/nikolayk812/tourcart/internal/port"
	"github.com/nikolayk812/tourcart/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("storefront stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("openStore: %w", err)
	}
	defer closeStore()
	log.Info().Str("store", cfg.StoreDriver).Msg("cart store ready")

	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		return fmt.Errorf("openPublisher: %w", err)
	}
	defer closePublisher()

	registry := cart.NewRegistry(store, log, cart.WithWriteTimeout(cfg.WriteTimeout))

	gateway, err := assistant.NewGateway(assistant.Config{
		UpstreamURL: cfg.UpstreamURL,
		APIKey:      cfg.UpstreamAPIKey,
		Model:       cfg.UpstreamModel,
	}, &http.Client{}, log)
	if err != nil {
		return fmt.Errorf("assistant.NewGateway: %w", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      log,
		CORSOrigins: cfg.CORSOrigin,
	}, api.NewCartHandler(registry, publisher), gateway)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// no WriteTimeout: assistant replies stream for as long as the model talks
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	log.Info().Msg("storefront exited")
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (port.CartStore, func(), error) {
	noop := func() {}

	switch cfg.StoreDriver {
	case config.StoreFile:
		store, err := repository.NewFileStore(cfg.FileDir)
		return store, noop, err

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("client.Ping: %w", err)
		}
		store, err := repository.NewRedisStore(client)
		return store, func() { _ = client.Close() }, err

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pool.Ping: %w", err)
		}
		store, err := repository.NewCart(pool)
		return store, pool.Close, err

	default:
		return repository.NewMemoryStore(), noop, nil
	}
}

func openPublisher(cfg config.Config, log zerolog.Logger) (port.BookingPublisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn().Msg("KAFKA_BROKERS not set, booking confirmations are only logged")
		return events.NewLogPublisher(log), func() {}, nil
	}

	publisher, err := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
	if err != nil {
		return nil, nil, err
	}

	return publisher, func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka writer close failed")
		}
	}, nil
}
