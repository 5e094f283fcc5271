package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-wages/internal/analysis"
	analysiserrors "go-wages/internal/analysis/errors"
	"go-wages/internal/analysis/mock"
	"go-wages/internal/shared/lock"
	"go-wages/internal/wage"

	"github.com/go-redis/redismock/v9"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeAnalysisRepository struct {
	replaceFn       func(ctx context.Context, a analysis.Artifacts) error
	findSummaryFn   func(ctx context.Context, p wage.Partition) (analysis.WageSummary, error)
	findPyramidFn   func(ctx context.Context, p wage.Partition) (analysis.WagePyramid, error)
	findTitlesFn    func(ctx context.Context, p wage.Partition) (analysis.TitleAnalysis, error)
	listSummariesFn func(ctx context.Context, filter analysis.SummaryFilter) ([]analysis.WageSummary, error)
}

func (f *fakeAnalysisRepository) WithTx(tx *gorm.DB) analysis.Repository { return f }

func (f *fakeAnalysisRepository) ReplaceArtifacts(ctx context.Context, a analysis.Artifacts) error {
	if f.replaceFn != nil {
		return f.replaceFn(ctx, a)
	}
	return nil
}

func (f *fakeAnalysisRepository) FindSummary(ctx context.Context, p wage.Partition) (analysis.WageSummary, error) {
	return f.findSummaryFn(ctx, p)
}

func (f *fakeAnalysisRepository) FindPyramid(ctx context.Context, p wage.Partition) (analysis.WagePyramid, error) {
	return f.findPyramidFn(ctx, p)
}

func (f *fakeAnalysisRepository) FindTitleAnalysis(ctx context.Context, p wage.Partition) (analysis.TitleAnalysis, error) {
	return f.findTitlesFn(ctx, p)
}

func (f *fakeAnalysisRepository) ListSummaries(ctx context.Context, filter analysis.SummaryFilter) ([]analysis.WageSummary, error) {
	return f.listSummariesFn(ctx, filter)
}

type fakeWageReader struct {
	records []wage.WageRecord
	err     error
}

func (f *fakeWageReader) FindByPartition(ctx context.Context, p wage.Partition) ([]wage.WageRecord, error) {
	return f.records, f.err
}

type fakeProgress struct {
	processing bool
	err        error
}

func (f *fakeProgress) IsProcessing(ctx context.Context, p wage.Partition) (bool, error) {
	return f.processing, f.err
}

func TestAnalysisService_Regenerate(t *testing.T) {
	ctx := context.Background()
	records := []wage.WageRecord{rec("Clerk", 10), rec("Clerk", 20), rec("Engineer", 30), rec("Engineer", 40)}

	t.Run("computes and stores all artifacts", func(t *testing.T) {
		var stored analysis.Artifacts
		repo := &fakeAnalysisRepository{
			replaceFn: func(ctx context.Context, a analysis.Artifacts) error {
				stored = a
				return nil
			},
		}
		svc := analysis.NewService(repo, &fakeWageReader{records: records}, &fakeProgress{}, nil, nil, 0)

		res, err := svc.Regenerate(ctx, ucla2023)

		require.NoError(t, err)
		assert.Equal(t, ucla2023, stored.Partition)
		assert.Equal(t, 4, res.Summary.EmployeeCount)
		assert.Equal(t, "25", res.Summary.MedianPay.String())
		assert.Equal(t, 4, res.Pyramid.TotalEmployees)
		assert.Equal(t, analysis.DefaultTopTitles, res.Titles.TopN)
		assert.Equal(t, 2, res.Titles.UniqueTitles)
	})

	t.Run("refuses while ingestion is processing", func(t *testing.T) {
		repo := &fakeAnalysisRepository{
			replaceFn: func(ctx context.Context, a analysis.Artifacts) error {
				t.Fatal("artifacts must not be written while busy")
				return nil
			},
		}
		svc := analysis.NewService(repo, &fakeWageReader{records: records}, &fakeProgress{processing: true}, nil, nil, 20)

		_, err := svc.Regenerate(ctx, ucla2023)

		assert.ErrorIs(t, err, analysiserrors.ErrPartitionBusy)
	})

	t.Run("refuses while another regeneration holds the lock", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectSetNX(analysis.LockKey(ucla2023), "tok", analysis.LockTTL).SetVal(false)
		locker := lock.New(rdb, analysis.LockTTL, lock.WithTokenFunc(func() string { return "tok" }))

		svc := analysis.NewService(&fakeAnalysisRepository{}, &fakeWageReader{records: records}, &fakeProgress{}, locker, nil, 20)

		_, err := svc.Regenerate(ctx, ucla2023)

		assert.ErrorIs(t, err, analysiserrors.ErrPartitionBusy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locks, invalidates caches and releases", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		key := analysis.LockKey(ucla2023)
		mock.ExpectSetNX(key, "tok", analysis.LockTTL).SetVal(true)
		mock.ExpectDel(
			analysis.SummaryCacheKey(ucla2023),
			analysis.PyramidCacheKey(ucla2023),
			analysis.TitlesCacheKey(ucla2023),
		).SetVal(3)
		mock.Regexp().ExpectEvalSha(`.+`, []string{key}, "tok").SetVal(int64(1))
		locker := lock.New(rdb, analysis.LockTTL, lock.WithTokenFunc(func() string { return "tok" }))

		svc := analysis.NewService(&fakeAnalysisRepository{}, &fakeWageReader{records: records}, &fakeProgress{}, locker, rdb, 20)

		_, err := svc.Regenerate(ctx, ucla2023)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		repo := &fakeAnalysisRepository{
			replaceFn: func(ctx context.Context, a analysis.Artifacts) error { return errors.New("tx aborted") },
		}
		svc := analysis.NewService(repo, &fakeWageReader{records: records}, &fakeProgress{}, nil, nil, 20)

		_, err := svc.Regenerate(ctx, ucla2023)

		assert.EqualError(t, err, "tx aborted")
	})

	t.Run("invalid partition", func(t *testing.T) {
		svc := analysis.NewService(&fakeAnalysisRepository{}, &fakeWageReader{}, &fakeProgress{}, nil, nil, 20)

		_, err := svc.Regenerate(ctx, wage.Partition{Location: "UCLA"})

		assert.ErrorIs(t, err, analysiserrors.ErrInvalidPartition)
	})
}

func TestAnalysisService_GetSummary(t *testing.T) {
	ctx := context.Background()
	row := analysis.Summarize(ucla2023, []wage.WageRecord{rec("Clerk", 10), rec("Clerk", 30)}, generated)

	t.Run("cache miss loads and stores", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		key := analysis.SummaryCacheKey(ucla2023)

		repo := &fakeAnalysisRepository{
			findSummaryFn: func(ctx context.Context, p wage.Partition) (analysis.WageSummary, error) { return row, nil },
		}
		svc := analysis.NewService(repo, &fakeWageReader{}, &fakeProgress{}, nil, rdb, 20)

		// Uncached service renders the exact bytes the cached one will store.
		first, err := analysis.NewService(repo, &fakeWageReader{}, &fakeProgress{}, nil, nil, 20).GetSummary(ctx, ucla2023)
		require.NoError(t, err)
		payload, _ := json.Marshal(first)

		mock.ExpectGet(key).RedisNil()
		mock.ExpectSet(key, payload, 30*time.Minute).SetVal("OK")

		res, err := svc.GetSummary(ctx, ucla2023)

		require.NoError(t, err)
		assert.Equal(t, 2, res.EmployeeCount)
		assert.Equal(t, "20", res.MedianPay.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache hit skips the store", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cachedValue, _ := json.Marshal(analysis.SummaryResponse{Location: "UCLA", Year: 2023, EmployeeCount: 7})
		mock.ExpectGet(analysis.SummaryCacheKey(ucla2023)).SetVal(string(cachedValue))

		repo := &fakeAnalysisRepository{
			findSummaryFn: func(ctx context.Context, p wage.Partition) (analysis.WageSummary, error) {
				t.Fatal("store must not be queried on cache hit")
				return analysis.WageSummary{}, nil
			},
		}
		svc := analysis.NewService(repo, &fakeWageReader{}, &fakeProgress{}, nil, rdb, 20)

		res, err := svc.GetSummary(ctx, ucla2023)

		require.NoError(t, err)
		assert.Equal(t, 7, res.EmployeeCount)
	})

	t.Run("not generated yet", func(t *testing.T) {
		repo := &fakeAnalysisRepository{
			findSummaryFn: func(ctx context.Context, p wage.Partition) (analysis.WageSummary, error) {
				return analysis.WageSummary{}, gorm.ErrRecordNotFound
			},
		}
		svc := analysis.NewService(repo, &fakeWageReader{}, &fakeProgress{}, nil, nil, 20)

		_, err := svc.GetSummary(ctx, ucla2023)

		assert.ErrorIs(t, err, analysiserrors.ErrArtifactNotFound)
	})
}

func TestAnalysisService_GetPyramidAndTitles(t *testing.T) {
	ctx := context.Background()
	records := []wage.WageRecord{rec("Clerk", 10), rec("Engineer", 150000)}
	artifacts := analysis.Compute(ucla2023, records, 20, generated)

	repo := &fakeAnalysisRepository{
		findPyramidFn: func(ctx context.Context, p wage.Partition) (analysis.WagePyramid, error) { return artifacts.Pyramid, nil },
		findTitlesFn:  func(ctx context.Context, p wage.Partition) (analysis.TitleAnalysis, error) { return artifacts.Titles, nil },
	}
	svc := analysis.NewService(repo, &fakeWageReader{}, &fakeProgress{}, nil, nil, 20)

	pyramid, err := svc.GetPyramid(ctx, ucla2023)
	require.NoError(t, err)
	assert.Len(t, pyramid.Brackets, 2)

	titles, err := svc.GetTitles(ctx, ucla2023)
	require.NoError(t, err)
	assert.Equal(t, 2, titles.UniqueTitles)
}

func TestAnalysisService_ListSummaries(t *testing.T) {
	ctx := context.Background()

	t.Run("maps rows in store order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockRepository(ctrl)
		repo.EXPECT().
			ListSummaries(gomock.Any(), analysis.SummaryFilter{Location: "UCLA"}).
			Return([]analysis.WageSummary{
				{Location: "UCLA", Year: 2023},
				{Location: "UCLA", Year: 2022},
			}, nil)
		svc := analysis.NewService(repo, &fakeWageReader{}, &fakeProgress{}, nil, nil, 20)

		res, err := svc.ListSummaries(ctx, analysis.ListSummariesRequest{Location: "UCLA"})

		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, 2023, res[0].Year)
	})

	t.Run("store unavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockRepository(ctrl)
		repo.EXPECT().
			ListSummaries(gomock.Any(), gomock.Any()).
			Return(nil, &pgconn.PgError{Code: "08006", Message: "connection failure"})
		svc := analysis.NewService(repo, &fakeWageReader{}, &fakeProgress{}, nil, nil, 20)

		_, err := svc.ListSummaries(ctx, analysis.ListSummariesRequest{})

		assert.ErrorIs(t, err, analysiserrors.ErrAnalysisStoreUnavailable)
	})
}
