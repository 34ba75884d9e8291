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

	"github.com/ignite/nps-engine/internal/repository/postgres"
	"github.com/ignite/nps-engine/internal/service/ledger"
	"github.com/ignite/nps-engine/internal/tracking"
)

// Tracking worker: drains the SQS tracking queue into the recipient ledger.
// Runs separately from the API server so event bursts are absorbed by the
// queue instead of the request path.
func main() {
	log.Println("starting tracking worker...")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	queueURL := os.Getenv("SQS_TRACKING_QUEUE_URL")
	if queueURL == "" {
		log.Fatal("SQS_TRACKING_QUEUE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("ping database: %v", err)
	}
	pingCancel()
	log.Println("connected to database")

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("aws config: %v", err)
	}
	sqsClient := sqs.NewFromConfig(awsCfg)

	led := ledger.NewService(postgres.NewLedgerRepo(db), postgres.NewCampaignRepo(db))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := tracking.NewConsumer(sqsClient, queueURL, led)
	consumer.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down tracking worker...")
	consumer.Stop()
	cancel()
}
