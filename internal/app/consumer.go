package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-paytax/internal/events"
	"go-paytax/internal/messaging/kafka"
	"go-paytax/internal/messaging/kafka/consumer"
	"go-paytax/internal/rates"
	"go-paytax/internal/revision"
	"go-paytax/internal/shared/connection"
	"go-paytax/internal/taxation"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer hosts the salary change and recalculation consumers plus the
// pipeline poll loop that retries backed-off events.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	ratesProvider := rates.NewCachedProvider(
		rates.NewStaticProvider(),
		redisClient,
		12*time.Hour,
		logger,
	)

	taxationRepo := taxation.NewRepository(gormDB)
	revisionRepo := revision.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	engine := taxation.NewEngine(ratesProvider)
	taxationService := taxation.NewService(taxationRepo, engine, logger)

	pipeline := revision.NewPipeline(
		revisionRepo,
		taxationService,
		ratesProvider,
		outboxRepo,
		logger,
		revision.PipelineConfig{},
	)

	salaryChangeReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.SalaryChangeApprovedTopic,
		GroupID:        "go-paytax-salary-change",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer salaryChangeReader.Close()

	recalcReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.TaxationRecalculationRequestedTopic,
		GroupID:        "go-paytax-recalculation",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer recalcReader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeSalaryChangeApproved(ctx, salaryChangeReader, pipeline, logger)
	go consumer.ConsumeRecalculationRequested(ctx, recalcReader, taxationService, logger)
	go pipeline.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
