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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/terrena-pm/terrena/internal/app"
	"github.com/terrena-pm/terrena/internal/auth"
	"github.com/terrena-pm/terrena/internal/authz"
	"github.com/terrena-pm/terrena/internal/observability"
	"github.com/terrena-pm/terrena/internal/permits"
	"github.com/terrena-pm/terrena/internal/platform/cache"
	"github.com/terrena-pm/terrena/internal/platform/db"
	"github.com/terrena-pm/terrena/internal/projects"
	"github.com/terrena-pm/terrena/internal/shared"
	"github.com/terrena-pm/terrena/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	issuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService, issuer)
	authMiddleware := auth.Middleware{
		Secret:  cfg.TokenSecret,
		Service: authService,
		Logger:  logger,
	}

	projectsRepo := projects.NewRepository(pool, redisClient, cfg.SnapshotCacheTTL)
	projectsService := projects.NewService(projectsRepo)
	projectsHandler := projects.NewHandler(logger, projectsService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	permitsRepo := permits.NewRepository(pool)
	permitsService := permits.NewService(permitsRepo)
	permitsHandler := permits.NewHandler(logger, permitsService, jobClient)

	accessMiddleware := authz.Middleware{
		Engine:   authz.NewEngine(authz.DefaultConfig()),
		Projects: projectsRepo,
		Options: authz.Options{
			AllowCreateFor:          []string{shared.RoleAdmin, shared.RolePromoter, shared.RoleManagement},
			PromoterCanEditAssigned: cfg.PromoterCanEditAssigned,
			CommercialOnlySales:     cfg.CommercialOnlySales,
		},
		Logger:   logger,
		Observer: metrics,
	}

	inspector := asynq.NewInspector(redisOpts)
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		AccessMiddleware: accessMiddleware,
		ProjectsHandler:  projectsHandler,
		PermitsHandler:   permitsHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
