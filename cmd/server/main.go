package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"veridoc/internal/biometric/extractor"
	bhandler "veridoc/internal/biometric/handler"
	"veridoc/internal/biometric/matcher"
	bservice "veridoc/internal/biometric/service"
	bstore "veridoc/internal/biometric/store"
	chandler "veridoc/internal/certificate/handler"
	cservice "veridoc/internal/certificate/service"
	cstore "veridoc/internal/certificate/store"
	dhandler "veridoc/internal/directory/handler"
	dservice "veridoc/internal/directory/service"
	dirstore "veridoc/internal/directory/store"
	"veridoc/internal/login"
	lhandler "veridoc/internal/login/handler"
	"veridoc/internal/platform/config"
	"veridoc/internal/platform/httpserver"
	"veridoc/internal/platform/logger"
	"veridoc/internal/platform/metrics"
	"veridoc/internal/platform/postgres"
	"veridoc/internal/platform/redis"
	"veridoc/internal/signature"
	transport "veridoc/internal/transport/http"
	"veridoc/pkg/platform/audit"
)

func main() {
	if err := run(); err != nil {
		logger.New().Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Stores. Postgres and Redis are optional in development; without them
	// everything falls back to in-process state.
	var (
		accounts   dirstore.Store = dirstore.NewInMemoryStore()
		templates  bstore.Store   = bstore.NewInMemoryStore()
		certs      cstore.Store   = cstore.NewInMemoryStore()
		auditStore audit.Store    = audit.NewInMemoryStore()
	)
	var checks []transport.HealthCheck
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.InitSchema(ctx, db); err != nil {
			return err
		}
		accounts = dirstore.NewPostgresStore(db)
		templates = bstore.NewPostgresStore(db)
		certs = cstore.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		checks = append(checks, transport.HealthCheck{Name: "postgres", Check: db.PingContext})
	}

	var (
		challenges login.ChallengeStore = login.NewMemoryChallengeStore()
		otps       login.OTPStore       = login.NewMemoryOTPStore()
	)
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		challenges = login.NewRedisChallengeStore(redisClient)
		otps = login.NewRedisOTPStore(redisClient)
		checks = append(checks, transport.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	keystore, err := signature.NewFileKeystore(cfg.KeysDir)
	if err != nil {
		return err
	}
	signer := signature.NewService(keystore)

	auditor := audit.NewPublisher(256, log)
	worker := audit.NewWorker(auditStore, auditor.Inbox(), log)

	extract := extractor.NewHTTPExtractor(cfg.ExtractorURL, cfg.VectorLength)
	tokens := login.NewTokenIssuer(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.SessionTTL)

	enrollment := bservice.New(templates, extract, m, auditor, log)
	directory := dservice.New(accounts, templates, m, auditor, log)
	certificates := cservice.New(certs, signer, accounts, m, auditor, log)
	logins := login.NewService(
		accounts, templates, matcher.NewEuclidean(), extract,
		challenges, otps, login.NewLogSender(log), tokens,
		login.Options{
			MatchThreshold: cfg.MatchThreshold,
			ChallengeTTL:   cfg.ChallengeTTL,
			OTPTTL:         cfg.OTPTTL,
			OTPLength:      cfg.OTPLength,
		},
		m, auditor, log,
	)

	router := transport.NewRouter(log, checks,
		bhandler.New(enrollment, log),
		dhandler.New(directory, tokens, log),
		lhandler.New(logins, log),
		chandler.New(certificates, tokens, log),
	)
	server := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
