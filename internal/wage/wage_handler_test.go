package wage_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-wages/internal/shared/response"
	"go-wages/internal/wage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWageService struct {
	searchFn        func(ctx context.Context, req wage.SearchRequest) (wage.SearchResult, error)
	aggregateFn     func(ctx context.Context, req wage.AggregateRequest) ([]wage.PartitionAggregateResponse, error)
	filterOptionsFn func(ctx context.Context) (wage.FilterOptionsResponse, error)
}

func (f *fakeWageService) Search(ctx context.Context, req wage.SearchRequest) (wage.SearchResult, error) {
	return f.searchFn(ctx, req)
}

func (f *fakeWageService) Aggregate(ctx context.Context, req wage.AggregateRequest) ([]wage.PartitionAggregateResponse, error) {
	return f.aggregateFn(ctx, req)
}

func (f *fakeWageService) FilterOptions(ctx context.Context) (wage.FilterOptionsResponse, error) {
	return f.filterOptionsFn(ctx)
}

func (f *fakeWageService) InvalidateFilterOptions(ctx context.Context) {}

func TestWageHandler_Search(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success with pagination meta", func(t *testing.T) {
		svc := &fakeWageService{
			searchFn: func(ctx context.Context, req wage.SearchRequest) (wage.SearchResult, error) {
				assert.Equal(t, "turing", req.Name)
				assert.Equal(t, 2023, req.Year)
				return wage.SearchResult{
					Items:    []wage.WageResponse{{ID: 1, LastName: "Turing"}},
					Total:    120,
					Page:     1,
					PageSize: 50,
				}, nil
			},
		}

		h := wage.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/wages?name=turing&year=2023", nil)

		h.Search(c)

		require.Equal(t, http.StatusOK, w.Code)
		var env response.ApiEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.True(t, env.Ok)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(120), env.Meta.Total)
		assert.Equal(t, 3, env.Meta.TotalPages)
	})

	t.Run("invalid year", func(t *testing.T) {
		h := wage.NewHandler(&fakeWageService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/wages?year=abc", nil)

		h.Search(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service error", func(t *testing.T) {
		svc := &fakeWageService{
			searchFn: func(ctx context.Context, req wage.SearchRequest) (wage.SearchResult, error) {
				return wage.SearchResult{}, errors.New("db down")
			},
		}

		h := wage.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/wages", nil)

		h.Search(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})
}

func TestWageHandler_AggregateAndFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeWageService{
		aggregateFn: func(ctx context.Context, req wage.AggregateRequest) ([]wage.PartitionAggregateResponse, error) {
			assert.Equal(t, "UCLA", req.Location)
			return []wage.PartitionAggregateResponse{{Location: "UCLA", Year: 2023, EmployeeCount: 4}}, nil
		},
		filterOptionsFn: func(ctx context.Context) (wage.FilterOptionsResponse, error) {
			return wage.FilterOptionsResponse{Locations: []string{"UCLA"}, Years: []int{2023}}, nil
		},
	}

	r := gin.New()
	wage.RegisterRoutes(r.Group("/api/v1"), wage.NewHandler(svc))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wages/aggregate?location=UCLA", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"employee_count":4`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wages/filters", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"locations":["UCLA"]`)
}
