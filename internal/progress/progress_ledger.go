package progress

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"maps"
	"slices"
	"time"

	"go-wages/internal/events"
	"go-wages/internal/messaging/kafka"
	progresserrors "go-wages/internal/progress/errors"
	"go-wages/internal/shared/contextutil"
	"go-wages/internal/wage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const aggregateTypePartition = "wage_partition"

// Ledger records the lifecycle of ingestion jobs in upload_progress. Every
// write after Start is conditional on the job id, so a job that has been
// superseded gets ErrJobSuperseded instead of touching the row.
type Ledger struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewLedger(db *sql.DB, repo Repository, logger ...*zap.Logger) *Ledger {
	return NewLedgerWithOutbox(db, repo, nil, logger...)
}

// NewLedgerWithOutbox queues a wage_partition_ingested event in the same
// transaction that marks a job completed.
func NewLedgerWithOutbox(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) *Ledger {
	l := zap.L().Named("progress.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("progress.ledger")
	}
	return &Ledger{
		db:     db,
		repo:   repo,
		outbox: outbox,
		now:    func() time.Time { return time.Now().UTC() },
		logger: l,
	}
}

func (l *Ledger) Start(ctx context.Context, p wage.Partition, total int) (string, error) {
	if !p.Valid() {
		return "", progresserrors.ErrInvalidPartition
	}
	log := contextutil.GetLogger(ctx, l.logger)

	prev, err := l.repo.FindByPartition(ctx, p)
	switch {
	case err == nil && prev.Status == StatusProcessing:
		log.Warn("superseding in-flight upload",
			zap.String("partition", p.String()),
			zap.String("previous_job_id", prev.JobID),
			zap.Int("previous_uploaded", prev.UploadedRecords),
		)
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return "", mapRepositoryError(err)
	}

	jobID := uuid.NewString()
	now := l.now()
	if err := l.repo.Start(ctx, UploadProgress{
		Location:     p.Location,
		Year:         p.Year,
		JobID:        jobID,
		Status:       StatusProcessing,
		TotalRecords: total,
		StartedAt:    now,
	}); err != nil {
		log.Error("start upload progress failed", zap.String("partition", p.String()), zap.Error(err))
		return "", mapRepositoryError(err)
	}

	log.Info("upload progress started",
		zap.String("partition", p.String()),
		zap.String("job_id", jobID),
		zap.Int("total_records", total),
	)
	return jobID, nil
}

func (l *Ledger) Advance(ctx context.Context, p wage.Partition, jobID string, uploaded int) error {
	ok, err := l.repo.Advance(ctx, p, jobID, uploaded, l.now())
	if err != nil {
		return mapRepositoryError(err)
	}
	if !ok {
		return progresserrors.ErrJobSuperseded
	}
	return nil
}

// Complete marks the job completed and queues one wage_partition_ingested
// event for p plus one for every partition in others, which maps partitions
// reached through record-level overrides to their record counts.
func (l *Ledger) Complete(ctx context.Context, p wage.Partition, jobID string, total int, others map[wage.Partition]int) error {
	log := contextutil.GetLogger(ctx, l.logger)
	now := l.now()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("complete upload begin tx failed", zap.Error(err))
		return mapRepositoryError(err)
	}
	defer tx.Rollback()

	ok, err := l.repo.WithTx(tx).MarkCompleted(ctx, p, jobID, now)
	if err != nil {
		log.Error("mark upload completed failed", zap.String("job_id", jobID), zap.Error(err))
		return mapRepositoryError(err)
	}
	if !ok {
		return progresserrors.ErrJobSuperseded
	}

	if l.outbox != nil {
		outbox := l.outbox.WithTx(tx)
		if err := l.queueIngested(ctx, outbox, p, jobID, total, now); err != nil {
			return err
		}

		extra := slices.SortedFunc(maps.Keys(others), func(a, b wage.Partition) int {
			return cmp.Compare(a.String(), b.String())
		})
		for _, op := range extra {
			if op == p || !op.Valid() {
				continue
			}
			if err := l.queueIngested(ctx, outbox, op, jobID, others[op], now); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("complete upload commit failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	log.Info("upload completed",
		zap.String("partition", p.String()),
		zap.String("job_id", jobID),
		zap.Int("total_records", total),
		zap.Int("other_partitions", len(others)),
	)
	return nil
}

func (l *Ledger) queueIngested(ctx context.Context, outbox kafka.OutboxRepository, p wage.Partition, jobID string, total int, at time.Time) error {
	rid := contextutil.GetRequestID(ctx)
	event, err := kafka.NewOutboxEvent(
		events.WagePartitionIngestedTopic,
		events.WagePartitionIngestedType,
		aggregateTypePartition,
		p.String(),
		rid,
		events.WagePartitionIngestedEvent{
			EventType:    events.WagePartitionIngestedType,
			RequestID:    rid,
			JobID:        jobID,
			Location:     p.Location,
			Year:         p.Year,
			TotalRecords: total,
			OccurredAt:   at,
		},
	)
	if err != nil {
		return err
	}
	if err := outbox.Create(ctx, event); err != nil {
		contextutil.GetLogger(ctx, l.logger).Error("queue partition ingested event failed",
			zap.String("partition", p.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (l *Ledger) Fail(ctx context.Context, p wage.Partition, jobID string, cause error) error {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}

	ok, err := l.repo.MarkFailed(ctx, p, jobID, reason, l.now())
	if err != nil {
		return mapRepositoryError(err)
	}
	if !ok {
		return progresserrors.ErrJobSuperseded
	}

	contextutil.GetLogger(ctx, l.logger).Warn("upload failed",
		zap.String("partition", p.String()),
		zap.String("job_id", jobID),
		zap.String("reason", reason),
	)
	return nil
}
