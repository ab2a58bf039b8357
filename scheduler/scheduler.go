package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	rankingservice "coderanker/api/services/ranking"
	"coderanker/fetcher/data"
	"coderanker/pkg/archive"
	"coderanker/pkg/config"
	"coderanker/pkg/database"
	"coderanker/pkg/logger"
	"coderanker/pkg/metrics"
	pkgredis "coderanker/pkg/redis"
	"coderanker/scheduler/jobs"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const healthService = "coderanker.Scheduler"

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

	// The scheduler has no http listener, the collectors only feed the counters.
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		log.Fatalf("Couldn't register the metrics: %v", err)
	}

	providers := data.NewProviderFetcher(cfg.Providers)
	engineDeps := &rankingservice.RankingServiceDeps{
		DB:       db,
		GitHub:   providers.GitHub,
		LeetCode: providers.LeetCode,
		Logger:   appLogger,
		Metrics:  m,
		Config:   cfg.Ranking,
	}
	// Without a bucket the expired logs are deleted without a copy.
	if archiver, ok := archive.NewS3Archiver(cfg.Bucket); ok {
		engineDeps.Archiver = archiver
	} else {
		appLogger.Warnf("No log bucket configured, expired refresh logs won't be archived.")
	}
	engine := rankingservice.NewRankingService(engineDeps)

	j := jobs.NewJobs(&jobs.JobsDeps{
		Engine:    engine,
		Publisher: redisClient,
		Uploader:  appLogger,
		Logger:    appLogger,
		Bucket:    cfg.Bucket,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Infof("Starting scheduler.")

	// Create a new scheduler with options.
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Re-rank every hour, and once on startup.
	_, err = s.NewJob(
		gocron.CronJob("0 * * * *", false),
		gocron.NewTask(func() { j.ReRank(ctx) }),
		gocron.WithName("leaderboard-rerank"),
		gocron.WithTags("ranking"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.JobOption(gocron.WithStartImmediately()),
	)
	if err != nil {
		log.Fatalf("Failed to create re-rank job: %v", err)
	}

	_, err = s.NewJob(
		gocron.CronJob("0 */6 * * *", false),
		gocron.NewTask(func() { j.RefreshActiveUsers(ctx) }),
		gocron.WithName("active-users-refresh"),
		gocron.WithTags("ranking"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Fatalf("Failed to create active users refresh job: %v", err)
	}

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 0, 0),
			),
		),
		gocron.NewTask(func() { j.CleanupRefreshLogs(ctx) }),
		gocron.WithName("refresh-log-cleanup"),
		gocron.WithTags("cleanup"),
	)
	if err != nil {
		log.Fatalf("Failed to create refresh log cleanup job: %v", err)
	}

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(23, 55, 0),
			),
		),
		gocron.NewTask(func() { j.UploadLogs(ctx) }),
		gocron.WithName("log-upload"),
		gocron.WithTags("logs"),
	)
	if err != nil {
		log.Fatalf("Failed to create log upload job: %v", err)
	}

	grpcServer, healthServer := startHealthServer(cfg.Scheduler.HealthAddress)

	// Start the scheduler.
	s.Start()
	healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_SERVING)

	// Wait for termination signal.
	<-ctx.Done()
	appLogger.Infof("Shutting down scheduler...")

	healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	if err := s.Shutdown(); err != nil {
		appLogger.Errorf("Error shutting down scheduler: %v", err)
	}
	grpcServer.GracefulStop()
}

// Start the grpc health server used by the orchestrator health checks.
func startHealthServer(addr string) (*grpc.Server, *health.Server) {
	list, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Couldn't start the tcp server: %v", err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	go func() {
		log.Printf("Running gRPC health server on %s.", addr)
		if err := grpcServer.Serve(list); err != nil {
			log.Fatalf("Failed to serve grpc: %v", err)
		}
	}()

	return grpcServer, healthServer
}
