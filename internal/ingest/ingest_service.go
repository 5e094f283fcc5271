package ingest

import (
	"context"
	"errors"

	ingesterrors "go-wages/internal/ingest/errors"
	"go-wages/internal/shared/contextutil"
	"go-wages/internal/shared/workerpool"
	"go-wages/internal/wage"
	"go-wages/internal/wagefile"

	"go.uber.org/zap"
)

const StatusQueued = "processing"

type Service interface {
	Upload(ctx context.Context, payload *wagefile.Payload) (UploadResponse, error)
	UploadAsync(ctx context.Context, payload *wagefile.Payload) (UploadResponse, error)
}

// FilterCache is dropped after every completed upload so new locations and
// years show up in the wage filters.
type FilterCache interface {
	InvalidateFilterOptions(ctx context.Context)
}

type service struct {
	engine *Engine
	pool   *workerpool.Pool
	cache  FilterCache
	logger *zap.Logger
}

func NewService(engine *Engine, pool *workerpool.Pool, cache FilterCache, logger ...*zap.Logger) Service {
	l := zap.L().Named("ingest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ingest.service")
	}
	return &service{engine: engine, pool: pool, cache: cache, logger: l}
}

func (s *service) Upload(ctx context.Context, payload *wagefile.Payload) (UploadResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Info("upload requested",
		zap.String("partition", payload.Partition().String()),
		zap.Int("records", payload.Len()),
	)

	res, err := s.engine.Ingest(ctx, payload.Partition(), payload)
	s.afterRun(ctx, payload, res)

	resp := mapResultToResponse(res, payload.Len())
	resp.Coercions = payload.Coercions()
	return resp, err
}

// UploadAsync claims the partition before returning so pollers see the job
// immediately; the records are written on the worker pool.
func (s *service) UploadAsync(ctx context.Context, payload *wagefile.Payload) (UploadResponse, error) {
	if s.pool == nil {
		return s.Upload(ctx, payload)
	}
	log := contextutil.GetLogger(ctx, s.logger)

	job, err := s.engine.Begin(ctx, payload.Partition(), payload)
	if err != nil {
		return UploadResponse{}, err
	}

	rid := contextutil.GetRequestID(ctx)
	submitErr := s.pool.TrySubmit(func(poolCtx context.Context) error {
		jobCtx := contextutil.WithRequestID(poolCtx, rid)
		res, err := job.Run(jobCtx)
		s.afterRun(jobCtx, payload, res)
		return err
	})
	if submitErr != nil {
		log.Warn("upload queue rejected job", zap.String("job_id", job.ID), zap.Error(submitErr))
		if err := job.Abandon(ctx, submitErr); err != nil {
			log.Error("abandon queued job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		if errors.Is(submitErr, workerpool.ErrQueueFull) || errors.Is(submitErr, workerpool.ErrPoolClosed) {
			return UploadResponse{}, ingesterrors.ErrUploadQueueFull.WithCause(submitErr)
		}
		return UploadResponse{}, submitErr
	}

	log.Info("upload queued",
		zap.String("job_id", job.ID),
		zap.String("partition", job.Partition.String()),
		zap.Int("records", payload.Len()),
	)
	return UploadResponse{
		JobID:        job.ID,
		Location:     job.Partition.Location,
		Year:         job.Partition.Year,
		Status:       StatusQueued,
		TotalRecords: payload.Len(),
	}, nil
}

func (s *service) afterRun(ctx context.Context, payload *wagefile.Payload, res Result) {
	log := contextutil.GetLogger(ctx, s.logger)
	if c := payload.Coercions(); c.Total() > 0 {
		fields := make([]zap.Field, 0, len(c)+2)
		fields = append(fields, zap.String("partition", res.Partition.String()), zap.Int("total", c.Total()))
		for name, n := range c {
			fields = append(fields, zap.Int(name, n))
		}
		log.Warn("record fields coerced to defaults", fields...)
	}

	if res.Status == StatusCompleted && s.cache != nil {
		s.cache.InvalidateFilterOptions(ctx)
	}
}

var _ RecordSource = (*wagefile.Payload)(nil)

var _ WageWriter = (wage.Repository)(nil)
