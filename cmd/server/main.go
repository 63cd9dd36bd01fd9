package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	auditservice "shelterhub/internal/audit/service"
	auditstore "shelterhub/internal/audit/store"
	authhandler "shelterhub/internal/auth/handler"
	authservice "shelterhub/internal/auth/service"
	"shelterhub/internal/auth/store/revocation"
	"shelterhub/internal/auth/token"
	"shelterhub/internal/broadcast"
	"shelterhub/internal/identity/secrets"
	idstore "shelterhub/internal/identity/store"
	photostore "shelterhub/internal/photo/store"
	"shelterhub/internal/platform/config"
	"shelterhub/internal/platform/db"
	"shelterhub/internal/platform/httpserver"
	"shelterhub/internal/platform/kafka"
	"shelterhub/internal/platform/logger"
	"shelterhub/internal/platform/metrics"
	platformredis "shelterhub/internal/platform/redis"
	registryhandler "shelterhub/internal/registry/handler"
	registryservice "shelterhub/internal/registry/service"
	shelterservice "shelterhub/internal/shelter/service"
	shelterstore "shelterhub/internal/shelter/store"
	httptransport "shelterhub/internal/transport/http"
	"shelterhub/pkg/email"
	"shelterhub/pkg/platform/middleware/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("SHELTERHUB_CONFIG"), "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled or the HTTP
// server fails.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)
	checks := map[string]httptransport.HealthCheck{}

	var database *sql.DB
	if cfg.Database.URL != "" {
		var err error
		database, err = db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer database.Close()
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(database); err != nil {
				return err
			}
		}
		checks["database"] = database.PingContext
		log.Info("using postgres storage")
	} else {
		log.Warn("database.url not set; using in-memory storage")
	}

	identities, err := buildIdentityStore(ctx, cfg, database)
	if err != nil {
		return err
	}

	revocations, closeRevocations, err := buildRevocationList(ctx, cfg, m, checks)
	if err != nil {
		return err
	}
	defer closeRevocations()

	tokens := token.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	guard := authservice.New(identities, revocations, tokens, secrets.Verify,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAdminKey(cfg.Auth.AdminKey),
	)

	stores, txRunner := buildStores(database)
	shelters := shelterservice.New(txRunner, stores, guard,
		shelterservice.WithLogger(log),
		shelterservice.WithMetrics(m),
		shelterservice.WithMaxUploadBytes(cfg.HTTP.MaxUploadBytes),
	)
	audit := auditservice.New(stores.Audit.(auditservice.Store), auditservice.WithLogger(log))

	hubOpts := []broadcast.Option{broadcast.WithLogger(log), broadcast.WithMetrics(m)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic,
			kafka.WithLogger(log),
			kafka.WithMetrics(m),
		)
		if err != nil {
			return err
		}
		defer producer.Close()
		hubOpts = append(hubOpts, broadcast.WithMirror(producer))
		log.Info("mirroring change events to kafka", "topic", cfg.Kafka.Topic)
	}
	hub := broadcast.NewHub(hubOpts...)
	defer hub.Close()

	registry := registryservice.New(guard, shelters, audit, hub, registryservice.WithLogger(log))

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.TokenRPS,
		Burst:             cfg.RateLimit.TokenBurst,
	})

	router := httptransport.NewRouter(log,
		httptransport.Config{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Checks:         checks,
			Gatherer:       prometheus.DefaultGatherer,
		},
		authhandler.New(guard, log, limiter.Middleware),
		registryhandler.New(registry, log, registryhandler.WithMaxRequestBytes(4*cfg.HTTP.MaxUploadBytes)),
		broadcast.NewHandler(hub, guard, broadcast.HandlerConfig{
			RequireToken:   cfg.Broadcast.RequireToken,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			SendBuffer:     cfg.Broadcast.SendBuffer,
		}, log),
	)
	srv := httpserver.New(cfg.HTTP.Addr, router, cfg.HTTP.ReadTimeout, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("starting shelterhub", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildStores(database *sql.DB) (shelterservice.Stores, shelterservice.TxRunner) {
	if database == nil {
		stores := shelterservice.Stores{
			Shelters: shelterstore.NewInMemoryStore(),
			Links:    shelterstore.NewInMemoryLinkStore(),
			Audit:    auditstore.NewInMemoryStore(),
			Blobs:    photostore.NewInMemoryStore(),
		}
		return stores, shelterservice.NewMemoryTx(stores)
	}
	stores := shelterservice.Stores{
		Shelters: shelterstore.NewPostgres(database),
		Links:    shelterstore.NewPostgresLinkStore(database),
		Audit:    auditstore.NewPostgres(database),
		Blobs:    photostore.NewPostgres(database),
	}
	return stores, shelterservice.NewPostgresTx(database, stores)
}

func buildIdentityStore(ctx context.Context, cfg *config.Config, database *sql.DB) (authservice.IdentityStore, error) {
	seed := make([]idstore.Identity, 0, len(cfg.Identities))
	for _, ident := range cfg.Identities {
		name := ident.DisplayName
		if name == "" {
			name = email.DisplayName(ident.Email)
		}
		seed = append(seed, idstore.Identity{
			ID:           ident.ID,
			Email:        ident.Email,
			DisplayName:  name,
			PasswordHash: ident.PasswordHash,
		})
	}
	if database == nil {
		return idstore.NewInMemoryStore(seed...), nil
	}
	store := idstore.NewPostgres(database)
	for _, ident := range seed {
		if err := store.Upsert(ctx, ident); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// buildRevocationList falls back to memory when redis.url is empty.
func buildRevocationList(ctx context.Context, cfg *config.Config, m *metrics.Metrics, checks map[string]httptransport.HealthCheck) (authservice.RevocationList, func(), error) {
	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return revocation.NewInMemoryTRL(), func() {}, nil
	}
	checks["redis"] = client.Health
	trl := revocation.NewRedisTRL(client.Client, revocation.WithLatencyObserver(m.RevocationLatency))
	return trl, func() { _ = client.Close() }, nil
}
