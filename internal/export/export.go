// Package export writes wage partitions to Parquet files using
// github.com/parquet-go/parquet-go.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go-wages/internal/wage"

	"github.com/parquet-go/parquet-go"
)

// WageRow is the Parquet shape of a WageRecord. Amounts are kept as decimal
// text so exported values match the store exactly.
type WageRow struct {
	Location    string    `parquet:"location,snappy,dict"`
	Year        int32     `parquet:"year,snappy"`
	EmployeeID  *int64    `parquet:"employee_id,optional,snappy"`
	FirstName   string    `parquet:"firstname,snappy"`
	LastName    string    `parquet:"lastname,snappy"`
	Title       string    `parquet:"title,snappy,dict"`
	BasePay     string    `parquet:"basepay,snappy"`
	OvertimePay string    `parquet:"overtimepay,snappy"`
	AdjustPay   string    `parquet:"adjustpay,snappy"`
	GrossPay    string    `parquet:"grosspay,snappy"`
	ScrapedAt   time.Time `parquet:"scraped_at,snappy"`
}

func ToRow(r wage.WageRecord) WageRow {
	return WageRow{
		Location:    r.Location,
		Year:        int32(r.Year),
		EmployeeID:  r.EmployeeID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Title:       r.Title,
		BasePay:     r.BasePay.StringFixed(2),
		OvertimePay: r.OvertimePay.StringFixed(2),
		AdjustPay:   r.AdjustPay.StringFixed(2),
		GrossPay:    r.GrossPay.StringFixed(2),
		ScrapedAt:   r.ScrapedAt.UTC(),
	}
}

// WriteRecords encodes records to w as a single Parquet file.
func WriteRecords(w io.Writer, records []wage.WageRecord) (int, error) {
	rows := make([]WageRow, len(records))
	for i, r := range records {
		rows[i] = ToRow(r)
	}

	writer := parquet.NewGenericWriter[WageRow](w)
	n, err := writer.Write(rows)
	if err != nil {
		_ = writer.Close()
		return n, fmt.Errorf("failed to write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return n, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return n, nil
}

type WageReader interface {
	FindByPartition(ctx context.Context, p wage.Partition) ([]wage.WageRecord, error)
}

// WritePartitionFile exports every stored record of p to outputPath.
func WritePartitionFile(ctx context.Context, wages WageReader, p wage.Partition, outputPath string) (int, error) {
	records, err := wages.FindByPartition(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("failed to read partition %s: %w", p, err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	n, err := WriteRecords(file, records)
	if err != nil {
		return n, err
	}
	return n, file.Sync()
}
