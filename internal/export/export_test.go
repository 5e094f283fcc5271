package export_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-wages/internal/export"
	"go-wages/internal/wage"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWageReader struct {
	records []wage.WageRecord
	err     error
}

func (f fakeWageReader) FindByPartition(ctx context.Context, p wage.Partition) ([]wage.WageRecord, error) {
	return f.records, f.err
}

func sampleRecords() []wage.WageRecord {
	id := int64(42)
	scraped := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []wage.WageRecord{
		{
			Location:    "UCLA",
			Year:        2023,
			EmployeeID:  &id,
			FirstName:   "Ada",
			LastName:    "Lovelace",
			Title:       "Engineer",
			BasePay:     decimal.RequireFromString("100000.5"),
			OvertimePay: decimal.Zero,
			AdjustPay:   decimal.RequireFromString("-10"),
			GrossPay:    decimal.RequireFromString("99990.5"),
			ScrapedAt:   scraped,
		},
		{
			Location:  "UCLA",
			Year:      2023,
			Title:     "*****",
			GrossPay:  decimal.NewFromInt(5),
			ScrapedAt: scraped,
		},
	}
}

func readRows(t *testing.T, r io.ReaderAt, size int64) []export.WageRow {
	t.Helper()

	f, err := parquet.OpenFile(r, size)
	require.NoError(t, err)

	reader := parquet.NewGenericReader[export.WageRow](f)
	defer reader.Close()

	rows := make([]export.WageRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestWageRowSchema(t *testing.T) {
	schema := parquet.SchemaOf(new(export.WageRow))

	for _, col := range []string{
		"location", "year", "employee_id", "firstname", "lastname", "title",
		"basepay", "overtimepay", "adjustpay", "grosspay", "scraped_at",
	} {
		_, ok := schema.Lookup(col)
		assert.True(t, ok, "column %s", col)
	}
}

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer

	n, err := export.WriteRecords(&buf, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows := readRows(t, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.Len(t, rows, 2)

	assert.Equal(t, "UCLA", rows[0].Location)
	assert.Equal(t, int32(2023), rows[0].Year)
	require.NotNil(t, rows[0].EmployeeID)
	assert.Equal(t, int64(42), *rows[0].EmployeeID)
	assert.Equal(t, "100000.50", rows[0].BasePay)
	assert.Equal(t, "-10.00", rows[0].AdjustPay)
	assert.Equal(t, "99990.50", rows[0].GrossPay)
	assert.WithinDuration(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), rows[0].ScrapedAt, time.Millisecond)

	assert.Nil(t, rows[1].EmployeeID)
	assert.Equal(t, "0.00", rows[1].BasePay)
}

func TestWritePartitionFile(t *testing.T) {
	ctx := context.Background()
	p := wage.Partition{Location: "UCLA", Year: 2023}

	t.Run("writes every record", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "ucla-2023.parquet")

		n, err := export.WritePartitionFile(ctx, fakeWageReader{records: sampleRecords()}, p, out)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		f, err := os.Open(out)
		require.NoError(t, err)
		defer f.Close()
		info, err := f.Stat()
		require.NoError(t, err)

		assert.Len(t, readRows(t, f, info.Size()), 2)
	})

	t.Run("empty partition still yields a valid file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "empty.parquet")

		n, err := export.WritePartitionFile(ctx, fakeWageReader{}, p, out)
		require.NoError(t, err)
		assert.Zero(t, n)

		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})

	t.Run("store failure creates nothing", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "never.parquet")

		_, err := export.WritePartitionFile(ctx, fakeWageReader{err: errors.New("db down")}, p, out)
		assert.ErrorContains(t, err, "db down")

		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("invalid path", func(t *testing.T) {
		_, err := export.WritePartitionFile(ctx, fakeWageReader{}, p, "/nonexistent/directory/out.parquet")
		assert.Error(t, err)
	})
}
