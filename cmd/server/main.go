package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/nps-engine/internal/api"
	"github.com/ignite/nps-engine/internal/config"
	"github.com/ignite/nps-engine/internal/pkg/distlock"
	"github.com/ignite/nps-engine/internal/pkg/logger"
	"github.com/ignite/nps-engine/internal/repository/memory"
	"github.com/ignite/nps-engine/internal/repository/postgres"
	"github.com/ignite/nps-engine/internal/service/analytics"
	"github.com/ignite/nps-engine/internal/service/campaign"
	"github.com/ignite/nps-engine/internal/service/ledger"
	"github.com/ignite/nps-engine/internal/service/sending"
	"github.com/ignite/nps-engine/internal/service/survey"
	"github.com/ignite/nps-engine/internal/tracking"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories: Postgres when configured, in-memory otherwise.
	var (
		surveyRepo    survey.Repository
		campaignRepo  campaign.Repository
		ledgerRepo    ledger.Repository
		analyticsRepo analytics.Repository
		campaignGet   ledger.CampaignGetter
		db            *sql.DB
	)
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			pingCancel()
			log.Fatalf("ping database: %v", err)
		}
		pingCancel()
		logger.Info("connected to postgres")

		campaignPG := postgres.NewCampaignRepo(db)
		surveyRepo = postgres.NewSurveyRepo(db)
		campaignRepo = campaignPG
		ledgerRepo = postgres.NewLedgerRepo(db)
		analyticsRepo = postgres.NewAnalyticsRepo(db)
		campaignGet = campaignPG
	} else {
		logger.Warn("no DATABASE_URL, using in-memory store (dev mode)")
		store := memory.NewStore()
		surveyRepo = store
		campaignRepo = store
		ledgerRepo = store
		analyticsRepo = store
		campaignGet = store
	}

	surveys := survey.NewService(surveyRepo)
	led := ledger.NewService(ledgerRepo, campaignGet)
	campaigns := campaign.NewService(campaignRepo, led)
	metrics := analytics.NewService(analyticsRepo)

	// Dispatch transport and rate limiter.
	var transport sending.Transport
	if cfg.SES.Enabled {
		transport, err = sending.NewSESTransport(ctx, cfg.SES)
		if err != nil {
			log.Fatalf("ses transport: %v", err)
		}
		logger.Info("ses transport ready", "region", cfg.SES.Region)
	} else {
		logger.Warn("ses disabled, using log-only transport")
		transport = logTransport{}
	}

	var redisClient *redis.Client
	var limiter sending.Limiter = sending.NopLimiter{}
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("redis url: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			pingCancel()
			log.Fatalf("ping redis: %v", err)
		}
		pingCancel()
		logger.Info("connected to redis", "rate_per_second", cfg.Sending.RatePerSecond)
		limiter = sending.NewRedisLimiter(redisClient, cfg.Sending.RatePerSecond)
	}

	dispatcher := sending.NewDispatcher(transport, limiter, led, campaigns, sending.Options{
		Workers:         cfg.Sending.Workers,
		TrackingBaseURL: cfg.Tracking.BaseURL,
	})
	campaigns.SetDispatcher(dispatcher)
	defer dispatcher.Shutdown()

	// With shared state (Redis or Postgres) the scheduler tick is held by
	// one instance at a time. A lone dev instance needs no lock.
	if redisClient != nil || db != nil {
		campaigns.SetSchedulerLock(distlock.NewLock(redisClient, db, "campaign-scheduler", 25*time.Second))
	}
	go campaigns.RunScheduler(ctx, 30*time.Second)

	handlers := api.NewHandlers(surveys, campaigns, led, metrics)
	server := api.NewServer(cfg.Server, handlers)

	// With a queue configured, provider callbacks arrive via SQS and the
	// consumer drains them into the ledger. Without one (dev mode), the
	// tracking endpoints run inside this server and write directly.
	if cfg.Tracking.QueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SES.Region))
		if err != nil {
			log.Fatalf("aws config: %v", err)
		}
		sqsClient := sqs.NewFromConfig(awsCfg)
		consumer := tracking.NewConsumer(sqsClient, cfg.Tracking.QueueURL, led)
		consumer.Start(ctx)
		defer consumer.Stop()
	} else {
		th := tracking.NewHandler(tracking.NewDirectSink(led))
		server.Mount("/t", th.Routes())
		logger.Info("tracking endpoints mounted at /t (dev mode)")
	}

	go func() {
		logger.Info("api server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(cfg.Server.Addr()); err != nil {
			log.Printf("listen: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

// logTransport accepts every message and logs it. Dev mode stand-in for SES.
type logTransport struct{}

func (logTransport) Send(_ context.Context, msg *sending.Message) (*sending.Result, error) {
	logger.Info("dispatch (log only)", "email", msg.Email, "campaign", msg.CampaignID)
	return &sending.Result{Accepted: true, MessageID: "log-" + msg.RecipientID, SentAt: time.Now().UTC()}, nil
}
