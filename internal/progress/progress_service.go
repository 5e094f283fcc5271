package progress

import (
	"context"

	progresserrors "go-wages/internal/progress/errors"
	"go-wages/internal/shared/contextutil"
	"go-wages/internal/wage"

	"go.uber.org/zap"
)

// Service is the read side of the ledger. Nothing here mutates a row.
type Service interface {
	GetByPartition(ctx context.Context, p wage.Partition) (ProgressResponse, error)
	ListByLocation(ctx context.Context, location string) ([]ProgressResponse, error)
	IsProcessing(ctx context.Context, p wage.Partition) (bool, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("progress.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("progress.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetByPartition(ctx context.Context, p wage.Partition) (ProgressResponse, error) {
	if !p.Valid() {
		return ProgressResponse{}, progresserrors.ErrInvalidPartition
	}

	row, err := s.repo.FindByPartition(ctx, p)
	if err != nil {
		mapped := mapRepositoryError(err)
		if mapped != progresserrors.ErrProgressNotFound {
			contextutil.GetLogger(ctx, s.logger).Error("find upload progress failed",
				zap.String("partition", p.String()),
				zap.Error(err),
			)
		}
		return ProgressResponse{}, mapped
	}
	return mapToResponse(row), nil
}

func (s *service) ListByLocation(ctx context.Context, location string) ([]ProgressResponse, error) {
	rows, err := s.repo.FindByLocation(ctx, location)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list upload progress failed",
			zap.String("location", location),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err)
	}

	out := make([]ProgressResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToResponse(row))
	}
	return out, nil
}

// IsProcessing reports whether an ingestion job currently owns p. A partition
// with no ledger row is idle.
func (s *service) IsProcessing(ctx context.Context, p wage.Partition) (bool, error) {
	row, err := s.repo.FindByPartition(ctx, p)
	if err != nil {
		mapped := mapRepositoryError(err)
		if mapped == progresserrors.ErrProgressNotFound {
			return false, nil
		}
		return false, mapped
	}
	return row.Status == StatusProcessing, nil
}
