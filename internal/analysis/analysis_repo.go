package analysis

import (
	"context"

	"go-wages/internal/wage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SummaryFilter struct {
	Location string
	Year     int
}

//go:generate mockgen -source=analysis_repo.go -destination=mock/analysis_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ReplaceArtifacts(ctx context.Context, a Artifacts) error
	FindSummary(ctx context.Context, p wage.Partition) (WageSummary, error)
	FindPyramid(ctx context.Context, p wage.Partition) (WagePyramid, error)
	FindTitleAnalysis(ctx context.Context, p wage.Partition) (TitleAnalysis, error)
	ListSummaries(ctx context.Context, filter SummaryFilter) ([]WageSummary, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

var partitionConflict = []clause.Column{{Name: "location"}, {Name: "year"}}

// ReplaceArtifacts upserts the summary, pyramid and title analysis of one
// partition in a single transaction.
func (r *repository) ReplaceArtifacts(ctx context.Context, a Artifacts) error {
	summary, pyramid, titles := a.Summary, a.Pyramid, a.Titles
	summary.ID, pyramid.ID, titles.ID = 0, 0, 0

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range []any{&summary, &pyramid, &titles} {
			err := tx.Clauses(clause.OnConflict{Columns: partitionConflict, UpdateAll: true}).
				Create(row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) FindSummary(ctx context.Context, p wage.Partition) (WageSummary, error) {
	var s WageSummary
	err := r.db.WithContext(ctx).
		Where("location = ? AND year = ?", p.Location, p.Year).
		First(&s).Error
	return s, err
}

func (r *repository) FindPyramid(ctx context.Context, p wage.Partition) (WagePyramid, error) {
	var w WagePyramid
	err := r.db.WithContext(ctx).
		Where("location = ? AND year = ?", p.Location, p.Year).
		First(&w).Error
	return w, err
}

func (r *repository) FindTitleAnalysis(ctx context.Context, p wage.Partition) (TitleAnalysis, error) {
	var t TitleAnalysis
	err := r.db.WithContext(ctx).
		Where("location = ? AND year = ?", p.Location, p.Year).
		First(&t).Error
	return t, err
}

func (r *repository) ListSummaries(ctx context.Context, filter SummaryFilter) ([]WageSummary, error) {
	q := r.db.WithContext(ctx).Model(&WageSummary{})
	if filter.Location != "" {
		q = q.Where("location = ?", filter.Location)
	}
	if filter.Year > 0 {
		q = q.Where("year = ?", filter.Year)
	}

	var rows []WageSummary
	err := q.Order("year DESC, location ASC").Find(&rows).Error
	return rows, err
}
