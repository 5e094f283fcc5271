package ingest

import (
	"cmp"
	"context"
	"errors"
	"iter"
	"maps"
	"slices"
	"time"

	ingesterrors "go-wages/internal/ingest/errors"
	progresserrors "go-wages/internal/progress/errors"
	"go-wages/internal/shared/contextutil"
	"go-wages/internal/wage"

	"go.uber.org/zap"
)

const (
	DefaultChunkSize = 1000

	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusSuperseded = "superseded"
)

// RecordSource is a counted, lazily produced sequence of records.
type RecordSource interface {
	Len() int
	Records() iter.Seq[wage.WageRecord]
}

// SliceSource adapts an in-memory slice to RecordSource.
type SliceSource []wage.WageRecord

func (s SliceSource) Len() int { return len(s) }

func (s SliceSource) Records() iter.Seq[wage.WageRecord] {
	return func(yield func(wage.WageRecord) bool) {
		for _, r := range s {
			if !yield(r) {
				return
			}
		}
	}
}

type WageWriter interface {
	UpsertBatch(ctx context.Context, records []wage.WageRecord) error
}

// Ledger tracks one job per partition. Calls made with a job id that no
// longer owns the partition return progresserrors.ErrJobSuperseded.
type Ledger interface {
	Start(ctx context.Context, p wage.Partition, total int) (string, error)
	Advance(ctx context.Context, p wage.Partition, jobID string, uploaded int) error
	Complete(ctx context.Context, p wage.Partition, jobID string, total int, others map[wage.Partition]int) error
	Fail(ctx context.Context, p wage.Partition, jobID string, cause error) error
}

type Result struct {
	JobID      string
	Partition  wage.Partition
	Attempted  int
	Succeeded  int
	Status     string
	Superseded bool
	// OtherPartitions lists partitions reached through record-level
	// location/year overrides, sorted.
	OtherPartitions []wage.Partition
}

type Engine struct {
	wages     WageWriter
	ledger    Ledger
	chunkSize int
	metrics   *Metrics
	logger    *zap.Logger
}

type Option func(*Engine)

func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.Named("ingest.engine")
		}
	}
}

func NewEngine(wages WageWriter, ledger Ledger, opts ...Option) *Engine {
	e := &Engine{
		wages:     wages,
		ledger:    ledger,
		chunkSize: DefaultChunkSize,
		logger:    zap.L().Named("ingest.engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) ChunkSize() int {
	return e.chunkSize
}

// Ingest claims the partition in the ledger and writes every record.
func (e *Engine) Ingest(ctx context.Context, p wage.Partition, source RecordSource) (Result, error) {
	job, err := e.Begin(ctx, p, source)
	if err != nil {
		return Result{Partition: p}, err
	}
	return job.Run(ctx)
}

// Begin claims the partition and returns a job ready to run. Any job
// previously running for p is superseded from this point on.
func (e *Engine) Begin(ctx context.Context, p wage.Partition, source RecordSource) (*Job, error) {
	if !p.Valid() {
		return nil, ingesterrors.ErrInvalidPartition
	}

	jobID, err := e.ledger.Start(ctx, p, source.Len())
	if err != nil {
		return nil, err
	}

	return &Job{
		ID:        jobID,
		Partition: p,
		engine:    e,
		source:    source,
	}, nil
}

// Job is one claimed ingestion run. Run must be called at most once.
type Job struct {
	ID        string
	Partition wage.Partition

	engine *Engine
	source RecordSource
}

// Abandon marks a job that will never run as failed.
func (j *Job) Abandon(ctx context.Context, cause error) error {
	err := j.engine.ledger.Fail(ctx, j.Partition, j.ID, cause)
	if errors.Is(err, progresserrors.ErrJobSuperseded) {
		return nil
	}
	return err
}

// Run upserts the records chunk by chunk. A chunk is only started after the
// previous one and its progress update were acknowledged. The first storage
// error fails the job; earlier chunks stay committed.
func (j *Job) Run(ctx context.Context) (Result, error) {
	e := j.engine
	ctx = contextutil.WithJobID(ctx, j.ID)
	log := contextutil.GetLogger(ctx, e.logger).With(
		zap.String("job_id", j.ID),
		zap.String("partition", j.Partition.String()),
	)
	started := time.Now()

	res := Result{JobID: j.ID, Partition: j.Partition}
	chunk := make([]wage.WageRecord, 0, e.chunkSize)
	chunkNo := 0
	others := map[wage.Partition]int{}

	flush := func() (bool, error) {
		chunkNo++
		if err := ctx.Err(); err != nil {
			return false, j.fail(ctx, &res, log, err)
		}

		res.Attempted += len(chunk)
		chunkStart := time.Now()
		if err := e.wages.UpsertBatch(ctx, chunk); err != nil {
			e.metrics.observeChunk(false, len(chunk), time.Since(chunkStart))
			log.Error("chunk upsert failed", zap.Int("chunk", chunkNo), zap.Int("size", len(chunk)), zap.Error(err))
			return false, j.fail(ctx, &res, log, ingesterrors.ErrStorageWriteFailure.WithCause(err))
		}
		e.metrics.observeChunk(true, len(chunk), time.Since(chunkStart))
		res.Succeeded += len(chunk)
		chunk = chunk[:0]

		if err := e.ledger.Advance(ctx, j.Partition, j.ID, res.Succeeded); err != nil {
			if errors.Is(err, progresserrors.ErrJobSuperseded) {
				j.superseded(&res, log)
				return false, nil
			}
			log.Error("advance progress failed", zap.Int("chunk", chunkNo), zap.Error(err))
			return false, j.fail(ctx, &res, log, err)
		}

		log.Debug("chunk committed", zap.Int("chunk", chunkNo), zap.Int("uploaded", res.Succeeded))
		return true, nil
	}

	for rec := range j.source.Records() {
		if rp := rec.Partition(); rp != j.Partition {
			others[rp]++
		}
		chunk = append(chunk, rec)
		if len(chunk) < e.chunkSize {
			continue
		}
		if ok, err := flush(); !ok {
			e.metrics.observeJob(res.Status, time.Since(started))
			return res, err
		}
	}
	if len(chunk) > 0 {
		if ok, err := flush(); !ok {
			e.metrics.observeJob(res.Status, time.Since(started))
			return res, err
		}
	}

	res.OtherPartitions = slices.SortedFunc(maps.Keys(others), func(a, b wage.Partition) int {
		return cmp.Compare(a.String(), b.String())
	})
	if len(others) > 0 {
		log.Warn("records routed to other partitions by overrides",
			zap.Stringers("partitions", res.OtherPartitions),
		)
	}

	if err := e.ledger.Complete(ctx, j.Partition, j.ID, res.Succeeded, others); err != nil {
		if errors.Is(err, progresserrors.ErrJobSuperseded) {
			j.superseded(&res, log)
			e.metrics.observeJob(res.Status, time.Since(started))
			return res, nil
		}
		log.Error("complete progress failed", zap.Error(err))
		err = j.fail(ctx, &res, log, err)
		e.metrics.observeJob(res.Status, time.Since(started))
		return res, err
	}

	res.Status = StatusCompleted
	e.metrics.observeJob(res.Status, time.Since(started))
	log.Info("ingestion completed",
		zap.Int("records", res.Succeeded),
		zap.Int("chunks", chunkNo),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

func (j *Job) superseded(res *Result, log *zap.Logger) {
	res.Status = StatusSuperseded
	res.Superseded = true
	log.Warn("job superseded by a newer upload, stopping", zap.Int("uploaded", res.Succeeded))
}

// fail records cause in the ledger and returns it. The ledger write ignores
// cancellation of ctx so a stopped job still leaves a terminal row.
func (j *Job) fail(ctx context.Context, res *Result, log *zap.Logger, cause error) error {
	res.Status = StatusFailed
	err := j.engine.ledger.Fail(context.WithoutCancel(ctx), j.Partition, j.ID, cause)
	switch {
	case errors.Is(err, progresserrors.ErrJobSuperseded):
		j.superseded(res, log)
	case err != nil:
		log.Error("record upload failure failed", zap.NamedError("cause", cause), zap.Error(err))
	}
	return cause
}
