package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"time"

	analysiserrors "go-wages/internal/analysis/errors"
	"go-wages/internal/events"
	"go-wages/internal/shared/contextutil"
	"go-wages/internal/wage"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumer loops need.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// MessageWriter receives events that could not be processed.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Regenerator rebuilds the analysis artifacts of one partition.
type Regenerator interface {
	Regenerate(ctx context.Context, p wage.Partition) error
}

type RegeneratorFunc func(ctx context.Context, p wage.Partition) error

func (f RegeneratorFunc) Regenerate(ctx context.Context, p wage.Partition) error {
	return f(ctx, p)
}

type ConsumerConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	// DeadLetter receives events whose regeneration kept failing. Without it
	// such events are logged and dropped.
	DeadLetter MessageWriter
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	return c
}

// ConsumeWagePartitionIngested regenerates artifacts for every completed
// ingestion. Undecodable events and partitions that are busy are committed
// and skipped: a busy partition is owned by a newer job whose completion
// emits its own event. Events that still fail after cfg.MaxAttempts are
// copied to cfg.DeadLetter before their offset is committed; the loop does
// not move on until that copy is written or ctx is done.
func ConsumeWagePartitionIngested(
	ctx context.Context,
	reader MessageReader,
	regen Regenerator,
	logger *zap.Logger,
	cfg ConsumerConfig,
) {
	cfg = cfg.withDefaults()
	log := logger.Named("kafka.consumer.wage_partition_ingested")
	log.Info("wage partition consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("wage partition consumer stopped")
				return
			}
			log.Error("fetch wage partition message failed", zap.Error(err))
			continue
		}

		var event events.WagePartitionIngestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode wage_partition_ingested event failed", zap.Error(err))
			commit(ctx, reader, msg, log)
			continue
		}

		p := wage.Partition{Location: event.Location, Year: event.Year}
		evLog := log.With(
			zap.String("partition", p.String()),
			zap.String("job_id", event.JobID),
			zap.String("request_id", event.RequestID),
		)
		if !p.Valid() {
			evLog.Warn("event has no usable partition, skipping")
			commit(ctx, reader, msg, log)
			continue
		}

		msgCtx := contextutil.WithLogger(contextutil.WithRequestID(ctx, event.RequestID), evLog)
		err = regenerate(msgCtx, regen, p, cfg)
		switch {
		case err == nil:
			evLog.Info("artifacts regenerated from wage_partition_ingested event")
		case errors.Is(err, analysiserrors.ErrPartitionBusy):
			evLog.Warn("partition busy, skipping regeneration")
		case ctx.Err() != nil:
			log.Info("wage partition consumer stopped")
			return
		default:
			evLog.Error("regenerate artifacts failed", zap.Error(err))
			if !deadLetter(ctx, cfg, msg, err, evLog) {
				log.Info("wage partition consumer stopped")
				return
			}
		}

		commit(ctx, reader, msg, log)
	}
}

func regenerate(ctx context.Context, regen Regenerator, p wage.Partition, cfg ConsumerConfig) error {
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = regen.Regenerate(ctx, p)
		if err == nil || errors.Is(err, analysiserrors.ErrPartitionBusy) || attempt == cfg.MaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Backoff * time.Duration(attempt)):
		}
	}
	return err
}

// deadLetter parks msg on the dead-letter topic, retrying until it succeeds.
// It reports false only when ctx ended first, in which case msg stays
// uncommitted and is redelivered after a restart.
func deadLetter(ctx context.Context, cfg ConsumerConfig, msg kafkago.Message, cause error, log *zap.Logger) bool {
	if cfg.DeadLetter == nil {
		log.Error("no dead-letter writer configured, dropping event", zap.Int64("offset", msg.Offset))
		return true
	}

	dlq := kafkago.Message{
		Topic: events.WagePartitionIngestedDeadLetterTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(slices.Clone(msg.Headers),
			kafkago.Header{Key: "source_topic", Value: []byte(msg.Topic)},
			kafkago.Header{Key: "source_partition", Value: []byte(strconv.Itoa(msg.Partition))},
			kafkago.Header{Key: "source_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			kafkago.Header{Key: "error", Value: []byte(cause.Error())},
		),
	}

	for attempt := 1; ; attempt++ {
		err := cfg.DeadLetter.WriteMessages(ctx, dlq)
		if err == nil {
			log.Warn("event moved to dead-letter topic", zap.Int64("offset", msg.Offset))
			return true
		}
		log.Error("write dead-letter event failed", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(cfg.Backoff):
		}
	}
}

func commit(ctx context.Context, reader MessageReader, msg kafkago.Message, log *zap.Logger) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit wage partition message failed",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
	}
}
