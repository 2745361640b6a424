package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/pixcheckout/api/controllers"
	"github.com/angelmondragon/pixcheckout/api/routes"
	"github.com/angelmondragon/pixcheckout/internal/roles"
	"github.com/angelmondragon/pixcheckout/pkg/auth"
	"github.com/angelmondragon/pixcheckout/pkg/config"
	"github.com/angelmondragon/pixcheckout/pkg/db"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
	"github.com/angelmondragon/pixcheckout/pkg/metrics"
	"github.com/angelmondragon/pixcheckout/pkg/migrate"
	"github.com/angelmondragon/pixcheckout/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeAutoMigrate(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	tokens, err := auth.NewTokens(cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to configure token verification", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	pingers := map[string]controllers.Pinger{"database": dbClient}

	var lookup roles.Lookup = roles.NewRepository(dbClient.DB(), cfg.Roles.LookupTimeout)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		lookup = roles.NewCachedLookup(lookup, redisClient, cfg.Roles.CacheTTL, logg)
		pingers["redis"] = redisClient
	} else {
		logg.Info(context.Background(), "redis not configured, role cache disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"db_driver": cfg.DB.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			Gatherer:   registry,
			Metrics:    checkoutMetrics,
			RoleLookup: lookup,
			Tokens:     tokens,
			Pingers:    pingers,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
