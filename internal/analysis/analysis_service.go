package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	analysiserrors "go-wages/internal/analysis/errors"
	"go-wages/internal/shared/contextutil"
	"go-wages/internal/shared/lock"
	"go-wages/internal/wage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	artifactCacheTTL = 30 * time.Minute
	LockTTL          = 10 * time.Minute
)

func SummaryCacheKey(p wage.Partition) string {
	return fmt.Sprintf("analysis:summary:%s:%d", p.Location, p.Year)
}

func PyramidCacheKey(p wage.Partition) string {
	return fmt.Sprintf("analysis:pyramid:%s:%d", p.Location, p.Year)
}

func TitlesCacheKey(p wage.Partition) string {
	return fmt.Sprintf("analysis:titles:%s:%d", p.Location, p.Year)
}

func LockKey(p wage.Partition) string {
	return fmt.Sprintf("lock:analysis:%s:%d", p.Location, p.Year)
}

type WageReader interface {
	FindByPartition(ctx context.Context, p wage.Partition) ([]wage.WageRecord, error)
}

type ProgressChecker interface {
	IsProcessing(ctx context.Context, p wage.Partition) (bool, error)
}

type Service interface {
	Regenerate(ctx context.Context, p wage.Partition) (RegenerateResponse, error)
	GetSummary(ctx context.Context, p wage.Partition) (SummaryResponse, error)
	GetPyramid(ctx context.Context, p wage.Partition) (PyramidResponse, error)
	GetTitles(ctx context.Context, p wage.Partition) (TitleAnalysisResponse, error)
	ListSummaries(ctx context.Context, req ListSummariesRequest) ([]SummaryResponse, error)
}

type service struct {
	repo     Repository
	wages    WageReader
	progress ProgressChecker
	locker   *lock.Locker
	rdb      *redis.Client
	topN     int
	now      func() time.Time
	sf       *singleflight.Group
	logger   *zap.Logger
}

func NewService(
	repo Repository,
	wages WageReader,
	progress ProgressChecker,
	locker *lock.Locker,
	rdb *redis.Client,
	topN int,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("analysis.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("analysis.service")
	}
	if topN <= 0 {
		topN = DefaultTopTitles
	}
	return &service{
		repo:     repo,
		wages:    wages,
		progress: progress,
		locker:   locker,
		rdb:      rdb,
		topN:     topN,
		now:      func() time.Time { return time.Now().UTC() },
		sf:       &singleflight.Group{},
		logger:   l,
	}
}

// Regenerate recomputes all artifacts of p from the wage store and replaces
// the stored ones atomically. It refuses while an ingestion job owns p or
// another regeneration of p holds the partition lock.
func (s *service) Regenerate(ctx context.Context, p wage.Partition) (RegenerateResponse, error) {
	if !p.Valid() {
		return RegenerateResponse{}, analysiserrors.ErrInvalidPartition
	}
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("partition", p.String()))
	started := time.Now()

	busy, err := s.progress.IsProcessing(ctx, p)
	if err != nil {
		log.Error("check partition progress failed", zap.Error(err))
		return RegenerateResponse{}, err
	}
	if busy {
		regenerations.WithLabelValues("busy").Inc()
		log.Warn("regeneration refused, ingestion in progress")
		return RegenerateResponse{}, analysiserrors.ErrPartitionBusy
	}

	release, err := s.locker.Acquire(ctx, LockKey(p))
	if errors.Is(err, lock.ErrNotAcquired) {
		regenerations.WithLabelValues("busy").Inc()
		return RegenerateResponse{}, analysiserrors.ErrPartitionBusy
	}
	if err != nil {
		log.Error("acquire partition lock failed", zap.Error(err))
		return RegenerateResponse{}, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("release partition lock failed", zap.Error(err))
		}
	}()

	records, err := s.wages.FindByPartition(ctx, p)
	if err != nil {
		regenerations.WithLabelValues("error").Inc()
		log.Error("read partition records failed", zap.Error(err))
		return RegenerateResponse{}, mapRepositoryError(err)
	}

	artifacts := Compute(p, records, s.topN, s.now())
	if err := s.repo.ReplaceArtifacts(ctx, artifacts); err != nil {
		regenerations.WithLabelValues("error").Inc()
		log.Error("store artifacts failed", zap.Error(err))
		return RegenerateResponse{}, mapRepositoryError(err)
	}

	s.invalidate(ctx, p)
	regenerations.WithLabelValues("ok").Inc()
	regenerationDuration.Observe(time.Since(started).Seconds())

	log.Info("artifacts regenerated",
		zap.Int("records", len(records)),
		zap.Int("brackets", len(artifacts.Pyramid.Brackets.Data())),
		zap.Int("unique_titles", artifacts.Titles.UniqueTitles),
		zap.Duration("elapsed", time.Since(started)),
	)
	return RegenerateResponse{
		Summary: mapSummary(artifacts.Summary),
		Pyramid: mapPyramid(artifacts.Pyramid),
		Titles:  mapTitles(artifacts.Titles),
	}, nil
}

func (s *service) invalidate(ctx context.Context, p wage.Partition) {
	if s.rdb == nil {
		return
	}
	keys := []string{SummaryCacheKey(p), PyramidCacheKey(p), TitlesCacheKey(p)}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Error("failed to invalidate artifact cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *service) GetSummary(ctx context.Context, p wage.Partition) (SummaryResponse, error) {
	return cached(ctx, s, SummaryCacheKey(p), func(ctx context.Context) (SummaryResponse, error) {
		row, err := s.repo.FindSummary(ctx, p)
		if err != nil {
			return SummaryResponse{}, mapRepositoryError(err)
		}
		return mapSummary(row), nil
	})
}

func (s *service) GetPyramid(ctx context.Context, p wage.Partition) (PyramidResponse, error) {
	return cached(ctx, s, PyramidCacheKey(p), func(ctx context.Context) (PyramidResponse, error) {
		row, err := s.repo.FindPyramid(ctx, p)
		if err != nil {
			return PyramidResponse{}, mapRepositoryError(err)
		}
		return mapPyramid(row), nil
	})
}

func (s *service) GetTitles(ctx context.Context, p wage.Partition) (TitleAnalysisResponse, error) {
	return cached(ctx, s, TitlesCacheKey(p), func(ctx context.Context) (TitleAnalysisResponse, error) {
		row, err := s.repo.FindTitleAnalysis(ctx, p)
		if err != nil {
			return TitleAnalysisResponse{}, mapRepositoryError(err)
		}
		return mapTitles(row), nil
	})
}

func (s *service) ListSummaries(ctx context.Context, req ListSummariesRequest) ([]SummaryResponse, error) {
	rows, err := s.repo.ListSummaries(ctx, SummaryFilter{Location: req.Location, Year: req.Year})
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list summaries failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	res := make([]SummaryResponse, len(rows))
	for i, row := range rows {
		res[i] = mapSummary(row)
	}
	return res, nil
}

// cached serves key from Redis, falling back to load behind singleflight and
// storing the result. Cache failures only cost a database read.
func cached[T any](ctx context.Context, s *service, key string, load func(context.Context) (T, error)) (T, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var v T
			if json.Unmarshal(raw, &v) == nil {
				return v, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("artifact cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if s.rdb != nil {
			if payload, err := json.Marshal(v); err == nil {
				if err := s.rdb.Set(ctx, key, payload, artifactCacheTTL).Err(); err != nil {
					s.logger.Warn("cache artifact failed", zap.String("key", key), zap.Error(err))
				}
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
