package wage

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// insertBatchSize caps rows per INSERT statement inside one chunk so the
// bind-parameter count stays under driver limits.
const insertBatchSize = 500

type SearchFilter struct {
	Name     string
	Title    string
	Location string
	Year     int
	Limit    int
	Offset   int
}

type AggregateFilter struct {
	Location string
	Year     int
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertBatch(ctx context.Context, records []WageRecord) error
	FindByPartition(ctx context.Context, p Partition) ([]WageRecord, error)
	Search(ctx context.Context, filter SearchFilter) ([]WageRecord, int64, error)
	AggregateByPartition(ctx context.Context, filter AggregateFilter) ([]PartitionAggregate, error)
	DistinctLocations(ctx context.Context) ([]string, error)
	DistinctYears(ctx context.Context) ([]int, error)
}

type repository struct {
	db     *gorm.DB
	policy MergePolicy
}

func NewRepository(db *gorm.DB) Repository {
	return NewRepositoryWithPolicy(db, LastWriteWins)
}

func NewRepositoryWithPolicy(db *gorm.DB, policy MergePolicy) Repository {
	return &repository{db: db, policy: policy}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx, policy: r.policy}
}

// UpsertBatch writes records as one atomic unit, resolving key matches with
// the repository's merge policy.
func (r *repository) UpsertBatch(ctx context.Context, records []WageRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := r.policy.Collapse(records)
	now := time.Now().UTC()
	for i := range rows {
		rows[i].ID = 0
		rows[i].UploadedAt = now
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(r.policy.OnConflict()).CreateInBatches(&rows, insertBatchSize).Error
	})
}

func (r *repository) FindByPartition(ctx context.Context, p Partition) ([]WageRecord, error) {
	var rows []WageRecord
	err := r.db.WithContext(ctx).
		Where("location = ? AND year = ?", p.Location, p.Year).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Search(ctx context.Context, filter SearchFilter) ([]WageRecord, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if total == 0 {
		return []WageRecord{}, 0, nil
	}

	var rows []WageRecord
	q := r.filtered(ctx, filter).
		Order("grosspay DESC").
		Order("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// filtered builds the predicate shared by the page query and its count query.
func (r *repository) filtered(ctx context.Context, filter SearchFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&WageRecord{})

	if name := strings.TrimSpace(filter.Name); name != "" {
		like := "%" + strings.ToLower(name) + "%"
		q = q.Where(
			"LOWER(firstname) LIKE ? OR LOWER(lastname) LIKE ? OR LOWER(firstname || ' ' || lastname) LIKE ?",
			like, like, like,
		)
	}
	if title := strings.TrimSpace(filter.Title); title != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%")
	}
	if filter.Location != "" {
		q = q.Where("location = ?", filter.Location)
	}
	if filter.Year > 0 {
		q = q.Where("year = ?", filter.Year)
	}

	return q
}

func (r *repository) AggregateByPartition(ctx context.Context, filter AggregateFilter) ([]PartitionAggregate, error) {
	q := r.db.WithContext(ctx).Model(&WageRecord{})
	if filter.Location != "" {
		q = q.Where("location = ?", filter.Location)
	}
	if filter.Year > 0 {
		q = q.Where("year = ?", filter.Year)
	}

	var rows []PartitionAggregate
	err := q.Select(`
	location,
	year,
	COUNT(*) AS employee_count,
	COALESCE(SUM(grosspay), 0) AS total_gross,
	COALESCE(AVG(grosspay), 0) AS average_gross,
	COALESCE(MAX(grosspay), 0) AS max_gross,
	COALESCE(MIN(grosspay), 0) AS min_gross`).
		Group("location, year").
		Order("year DESC, location ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) DistinctLocations(ctx context.Context) ([]string, error) {
	var locations []string
	err := r.db.WithContext(ctx).
		Model(&WageRecord{}).
		Distinct("location").
		Order("location ASC").
		Pluck("location", &locations).Error
	return locations, err
}

func (r *repository) DistinctYears(ctx context.Context) ([]int, error) {
	var years []int
	err := r.db.WithContext(ctx).
		Model(&WageRecord{}).
		Distinct("year").
		Order("year DESC").
		Pluck("year", &years).Error
	return years, err
}
