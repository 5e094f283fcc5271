package progress

import (
	"time"

	"go-wages/internal/wage"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// UploadProgress is the ledger row for one partition. JobID identifies the
// ingestion job that currently owns the row; writes from any other job are
// ignored.
type UploadProgress struct {
	Location        string
	Year            int
	JobID           string
	Status          string
	TotalRecords    int
	UploadedRecords int
	ErrorMessage    string
	StartedAt       time.Time
	CompletedAt     *time.Time
	UpdatedAt       time.Time
}

func (p UploadProgress) Partition() wage.Partition {
	return wage.Partition{Location: p.Location, Year: p.Year}
}

func (p UploadProgress) Terminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}

func (p UploadProgress) Percent() float64 {
	if p.TotalRecords == 0 {
		if p.Status == StatusCompleted {
			return 100
		}
		return 0
	}
	return float64(p.UploadedRecords) / float64(p.TotalRecords) * 100
}
