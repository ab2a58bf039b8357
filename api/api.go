package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coderanker/api/modules"
	"coderanker/api/routes"
	"coderanker/pkg/config"
	"coderanker/pkg/database"
	"coderanker/pkg/logger"
	pkgredis "coderanker/pkg/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Couldn't initialize the configuration: %v", err)
	}

	appLogger, err := logger.CreateLogger()
	if err != nil {
		log.Fatalf("Couldn't create the logger: %v", err)
	}
	defer appLogger.Close()

	db, err := database.NewConnection(cfg.Database.DSN)
	if err != nil {
		log.Fatal(err)
	}

	// Runs the migrations.
	rawDb, err := db.DB()
	if err != nil {
		log.Fatalf("Couldn't get raw db connection: %v", err)
	}
	defer rawDb.Close()

	if err := database.RunMigrations(cfg, rawDb); err != nil {
		log.Fatal(err)
	}

	redisClient, err := pkgredis.NewClient(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Create a module with all necessary handlers.
	module, err := modules.NewModule(&modules.ModuleDependencies{
		DB:       db,
		Redis:    redisClient,
		Config:   cfg,
		Logger:   appLogger,
		Registry: registry,
	})
	if err != nil {
		log.Fatalf("Couldn't create the api module: %v", err)
	}

	// Create a new router with the routes setup.
	router := routes.NewRouter(module.Router)
	router.SetupRoutes(
		module.LeaderboardHandler,
		module.UserHandler,
		module.WSHandler,
		module.HealthHandler,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go module.Hub.Run(ctx)
	go func() {
		if err := module.Relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Errorf("re-rank relay stopped: %v", err)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Infof("Starting the api on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve http: %v", err)
		}
	}()

	<-ctx.Done()
	appLogger.Infof("Shutting down the api...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	module.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Error shutting down the http server: %v", err)
	}
}
