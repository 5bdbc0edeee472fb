package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"profiled/internal/audit"
	"profiled/internal/audit/stream"
	"profiled/internal/identity"
	jwttoken "profiled/internal/jwt_token"
	"profiled/internal/platform/config"
	"profiled/internal/platform/httpserver"
	"profiled/internal/platform/logger"
	"profiled/internal/platform/metrics"
	"profiled/internal/platform/postgres"
	"profiled/internal/platform/redis"
	"profiled/internal/profile"
	"profiled/internal/ratelimit"
	httptransport "profiled/internal/transport/http"
	"profiled/internal/uploads"
)

const (
	shutdownTimeout = 10 * time.Second
	streamBuffer    = 256
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		profileStore profile.Store
		auditStore   audit.Store
		runner       profile.TxRunner
	)
	if cfg.DatabaseURL == "" {
		log.Warn("no database configured, using in-memory stores")
		profileStore = profile.NewInMemory()
		auditStore = audit.NewInMemory()
		runner = &profile.MutexTxRunner{}
	} else {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		profileStore = profile.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		runner = postgres.NewTxRunner(db)
	}

	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	group, ctx := errgroup.WithContext(ctx)

	recorderOpts := []audit.Option{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := stream.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer publisher.Close()

		inbox := make(chan audit.Entry, streamBuffer)
		recorderOpts = append(recorderOpts, audit.WithStream(inbox))

		worker := stream.NewWorker(inbox, publisher, log)
		group.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	recorder := audit.NewRecorder(auditStore, log, m, recorderOpts...)
	limiter := ratelimit.NewChecker(profileStore, cache, cfg.Cooldown, log)
	service := profile.NewService(profileStore, recorder, limiter, runner, m, log)

	tokens := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	verifier := identity.NewVerifier(tokens, profileStore)

	uploadManager, err := uploads.NewManager(cfg.Uploads.Dir, cfg.Uploads.MaxBytes, log)
	if err != nil {
		return err
	}

	handler := httptransport.NewProfileHandler(service, uploadManager, log)
	router := httptransport.NewRouter(handler, verifier, m, log, uploadManager.Dir())
	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		if err := recorder.RunRetention(ctx, cfg.Audit.SweepInterval, cfg.Audit.Retention); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		log.Info("starting profiled server",
			"addr", cfg.Addr,
			"environment", cfg.Environment,
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
