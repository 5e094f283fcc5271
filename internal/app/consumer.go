package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-wages/internal/events"
	"go-wages/internal/messaging/kafka/consumer"
	"go-wages/internal/shared/connection"
	"go-wages/internal/wage"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func RunConsumer(cfg Config) error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, 5)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		logger.Warn("redis unavailable, regenerating without lock or cache", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	mods, _ := newServices(sqlDB, gormDB, rdb, cfg)
	regen := consumer.RegeneratorFunc(func(ctx context.Context, p wage.Partition) error {
		_, err := mods.analysis.Regenerate(ctx, p)
		return err
	})

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.WagePartitionIngestedTopic,
		GroupID:        cfg.ConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deadLetter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5)
	if err != nil {
		return err
	}
	defer deadLetter.Close()

	go consumer.ConsumeWagePartitionIngested(ctx, reader, regen, logger, consumer.ConsumerConfig{
		DeadLetter: deadLetter,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
