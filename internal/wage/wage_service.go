package wage

import (
	"context"
	"encoding/json"
	"time"

	"go-wages/internal/shared/contextutil"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	FilterOptionsKey = "wages:filters"
	filterOptionsTTL = 10 * time.Minute
)

type Service interface {
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	Aggregate(ctx context.Context, req AggregateRequest) ([]PartitionAggregateResponse, error)
	FilterOptions(ctx context.Context) (FilterOptionsResponse, error)
	InvalidateFilterOptions(ctx context.Context)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("wage.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("wage.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	req = req.Normalize()
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("search wages requested",
		zap.String("location", req.Location),
		zap.Int("year", req.Year),
		zap.Int("page", req.Page),
		zap.Int("page_size", req.PageSize),
	)

	rows, total, err := s.repo.Search(ctx, SearchFilter{
		Name:     req.Name,
		Title:    req.Title,
		Location: req.Location,
		Year:     req.Year,
		Limit:    req.PageSize,
		Offset:   (req.Page - 1) * req.PageSize,
	})
	if err != nil {
		log.Error("search wages failed", zap.Error(err))
		return SearchResult{}, mapRepositoryError(err)
	}

	return SearchResult{
		Items:    mapToListResponse(rows),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

func (s *service) Aggregate(ctx context.Context, req AggregateRequest) ([]PartitionAggregateResponse, error) {
	rows, err := s.repo.AggregateByPartition(ctx, AggregateFilter{
		Location: req.Location,
		Year:     req.Year,
	})
	if err != nil {
		s.logger.Error("aggregate wages failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	res := make([]PartitionAggregateResponse, len(rows))
	for i, row := range rows {
		res[i] = PartitionAggregateResponse{
			Location:      row.Location,
			Year:          row.Year,
			EmployeeCount: row.EmployeeCount,
			TotalGross:    row.TotalGross.Round(2),
			AverageGross:  row.AverageGross.Round(2),
			MaxGross:      row.MaxGross.Round(2),
			MinGross:      row.MinGross.Round(2),
		}
	}
	return res, nil
}

func (s *service) FilterOptions(ctx context.Context) (FilterOptionsResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, FilterOptionsKey).Result(); err == nil {
			var resp FilterOptionsResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(FilterOptionsKey, func() (any, error) {
		locations, err := s.repo.DistinctLocations(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		years, err := s.repo.DistinctYears(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := FilterOptionsResponse{Locations: locations, Years: years}
		if s.rdb != nil {
			if payload, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, FilterOptionsKey, payload, filterOptionsTTL).Err(); err != nil {
					s.logger.Warn("cache filter options failed", zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		s.logger.Error("load filter options failed", zap.Error(err))
		return FilterOptionsResponse{}, err
	}

	return v.(FilterOptionsResponse), nil
}

// InvalidateFilterOptions drops the cached location/year lists after new
// partitions land.
func (s *service) InvalidateFilterOptions(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, FilterOptionsKey).Err(); err != nil {
		s.logger.Error("failed to invalidate filter options cache",
			zap.Error(err),
			zap.String("key", FilterOptionsKey),
		)
	}
}

func mapToResponse(rec WageRecord) WageResponse {
	return WageResponse{
		ID:          rec.ID,
		Location:    rec.Location,
		Year:        rec.Year,
		EmployeeID:  rec.EmployeeID,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Title:       rec.Title,
		BasePay:     rec.BasePay,
		OvertimePay: rec.OvertimePay,
		AdjustPay:   rec.AdjustPay,
		GrossPay:    rec.GrossPay,
		ScrapedAt:   rec.ScrapedAt,
	}
}

func mapToListResponse(rows []WageRecord) []WageResponse {
	res := make([]WageResponse, len(rows))
	for i, rec := range rows {
		res[i] = mapToResponse(rec)
	}
	return res
}
