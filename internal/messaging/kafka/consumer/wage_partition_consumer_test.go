package consumer_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	analysiserrors "go-wages/internal/analysis/errors"
	"go-wages/internal/events"
	"go-wages/internal/messaging/kafka/consumer"
	"go-wages/internal/wage"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader serves queued messages and cancels the loop once drained.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func eventMessage(offset int64, location string, year int) kafkago.Message {
	body, _ := json.Marshal(events.WagePartitionIngestedEvent{
		EventType: events.WagePartitionIngestedType,
		JobID:     "job-1",
		Location:  location,
		Year:      year,
	})
	return kafkago.Message{Offset: offset, Value: body}
}

// fakeWriter records dead-letter writes; writeFn, when set, decides the
// outcome of each call.
type fakeWriter struct {
	mu      sync.Mutex
	written []kafkago.Message
	calls   int
	writeFn func(call int) error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.writeFn != nil {
		if err := w.writeFn(w.calls); err != nil {
			return err
		}
	}
	w.written = append(w.written, msgs...)
	return nil
}

func run(t *testing.T, msgs []kafkago.Message, regen consumer.Regenerator) *fakeReader {
	t.Helper()
	return runWith(t, msgs, regen, nil, nil)
}

func runWith(t *testing.T, msgs []kafkago.Message, regen consumer.Regenerator, dlq *fakeWriter, onCancel func(context.CancelFunc)) *fakeReader {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if onCancel != nil {
		onCancel(cancel)
	}

	cfg := consumer.ConsumerConfig{
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
	}
	if dlq != nil {
		cfg.DeadLetter = dlq
	}

	reader := &fakeReader{queue: msgs, cancel: cancel}
	done := make(chan struct{})
	go func() {
		consumer.ConsumeWagePartitionIngested(ctx, reader, regen, zap.NewNop(), cfg)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
	return reader
}

func TestConsumeWagePartitionIngested(t *testing.T) {
	t.Run("regenerates and commits", func(t *testing.T) {
		var got []wage.Partition
		regen := consumer.RegeneratorFunc(func(ctx context.Context, p wage.Partition) error {
			got = append(got, p)
			return nil
		})

		reader := run(t, []kafkago.Message{eventMessage(1, "UCLA", 2023), eventMessage(2, "UCSD", 2022)}, regen)

		assert.Equal(t, []wage.Partition{{Location: "UCLA", Year: 2023}, {Location: "UCSD", Year: 2022}}, got)
		assert.Equal(t, []int64{1, 2}, reader.committed)
	})

	t.Run("poison and busy messages are committed", func(t *testing.T) {
		regen := consumer.RegeneratorFunc(func(ctx context.Context, p wage.Partition) error {
			return analysiserrors.ErrPartitionBusy
		})

		reader := run(t, []kafkago.Message{
			{Offset: 1, Value: []byte("not json")},
			eventMessage(2, "", 2023),
			eventMessage(3, "UCLA", 2023),
		}, regen)

		assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		regen := consumer.RegeneratorFunc(func(ctx context.Context, p wage.Partition) error {
			calls++
			if calls == 1 {
				return errors.New("db blip")
			}
			return nil
		})

		reader := run(t, []kafkago.Message{eventMessage(7, "UCLA", 2023)}, regen)

		assert.Equal(t, 2, calls)
		assert.Equal(t, []int64{7}, reader.committed)
	})

	t.Run("persistent failure is dead-lettered then committed", func(t *testing.T) {
		calls := 0
		regen := consumer.RegeneratorFunc(func(ctx context.Context, p wage.Partition) error {
			calls++
			return errors.New("db down")
		})
		dlq := &fakeWriter{}

		msg := eventMessage(7, "UCLA", 2023)
		msg.Topic = events.WagePartitionIngestedTopic
		reader := runWith(t, []kafkago.Message{msg}, regen, dlq, nil)

		assert.Equal(t, 2, calls)
		require.Len(t, dlq.written, 1)
		parked := dlq.written[0]
		assert.Equal(t, events.WagePartitionIngestedDeadLetterTopic, parked.Topic)
		assert.Equal(t, msg.Value, parked.Value)
		headers := map[string]string{}
		for _, h := range parked.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "7", headers["source_offset"])
		assert.Equal(t, "db down", headers["error"])
		assert.Equal(t, []int64{7}, reader.committed)
	})

	t.Run("dead-letter write is retried before committing", func(t *testing.T) {
		regen := consumer.RegeneratorFunc(func(ctx context.Context, p wage.Partition) error {
			return errors.New("db down")
		})
		dlq := &fakeWriter{writeFn: func(call int) error {
			if call < 3 {
				return errors.New("broker unavailable")
			}
			return nil
		}}

		reader := runWith(t, []kafkago.Message{eventMessage(7, "UCLA", 2023)}, regen, dlq, nil)

		assert.Equal(t, 3, dlq.calls)
		assert.Len(t, dlq.written, 1)
		assert.Equal(t, []int64{7}, reader.committed)
	})

	t.Run("shutdown while dead-lettering leaves the message uncommitted", func(t *testing.T) {
		regen := consumer.RegeneratorFunc(func(ctx context.Context, p wage.Partition) error {
			return errors.New("db down")
		})
		var stop context.CancelFunc
		dlq := &fakeWriter{writeFn: func(call int) error {
			if call == 2 {
				stop()
			}
			return errors.New("broker unavailable")
		}}

		reader := runWith(t, []kafkago.Message{eventMessage(7, "UCLA", 2023)}, regen, dlq,
			func(cancel context.CancelFunc) { stop = cancel })

		assert.Empty(t, dlq.written)
		assert.Empty(t, reader.committed)
	})

	t.Run("without a dead-letter writer the event is dropped", func(t *testing.T) {
		regen := consumer.RegeneratorFunc(func(ctx context.Context, p wage.Partition) error {
			return errors.New("db down")
		})

		reader := run(t, []kafkago.Message{eventMessage(7, "UCLA", 2023)}, regen)

		assert.Equal(t, []int64{7}, reader.committed)
	})
}
