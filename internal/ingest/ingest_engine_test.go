package ingest_test

import (
	"context"
	"errors"
	"testing"

	"go-wages/internal/ingest"
	ingesterrors "go-wages/internal/ingest/errors"
	"go-wages/internal/wage"
	"go-wages/internal/wagefile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ucla2023 = wage.Partition{Location: "UCLA", Year: 2023}

func records(n int) ingest.SliceSource {
	out := make(ingest.SliceSource, n)
	for i := range out {
		id := int64(i + 1)
		out[i] = wage.WageRecord{
			Location:   "UCLA",
			Year:       2023,
			EmployeeID: &id,
			Title:      "Clerk",
			GrossPay:   decimal.NewFromInt(int64(1000 * (i + 1))),
		}
	}
	return out
}

func TestEngine_ChunksAndCompletes(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	engine := ingest.NewEngine(store, ledger, ingest.WithChunkSize(1000))

	res, err := engine.Ingest(context.Background(), ucla2023, records(2500))

	require.NoError(t, err)
	assert.Equal(t, ingest.StatusCompleted, res.Status)
	assert.Equal(t, 2500, res.Attempted)
	assert.Equal(t, 2500, res.Succeeded)
	assert.Equal(t, 3, store.calls)

	row := ledger.row(ucla2023)
	assert.Equal(t, "completed", row.status)
	assert.Equal(t, res.JobID, row.jobID)
	assert.Equal(t, []int{1000, 2000, 2500}, row.history)
	assert.Equal(t, row.total, row.uploaded)
}

func TestEngine_ProgressIsMonotonic(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	engine := ingest.NewEngine(store, ledger, ingest.WithChunkSize(7))

	_, err := engine.Ingest(context.Background(), ucla2023, records(50))
	require.NoError(t, err)

	row := ledger.row(ucla2023)
	for i := 1; i < len(row.history); i++ {
		assert.GreaterOrEqual(t, row.history[i], row.history[i-1])
	}
	for _, v := range row.history {
		assert.LessOrEqual(t, v, row.total)
	}
}

func TestEngine_FailureIsolation(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	store.failOn = 3
	engine := ingest.NewEngine(store, ledger, ingest.WithChunkSize(2))

	res, err := engine.Ingest(context.Background(), ucla2023, records(10))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ingesterrors.ErrStorageWriteFailure))
	assert.Equal(t, ingest.StatusFailed, res.Status)
	assert.Equal(t, 6, res.Attempted)
	assert.Equal(t, 4, res.Succeeded)

	// chunks 1 and 2 stay, chunk 3 failed, chunks 4 and 5 never ran
	assert.Equal(t, []int64{1, 2, 3, 4}, store.ids())
	assert.Equal(t, 3, store.calls)

	row := ledger.row(ucla2023)
	assert.Equal(t, "failed", row.status)
	assert.Equal(t, 4, row.uploaded)
	assert.Contains(t, row.errMsg, "connection reset by peer")
}

func TestEngine_RetryAfterFailureIsIdempotent(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	store.failOn = 2
	engine := ingest.NewEngine(store, ledger, ingest.WithChunkSize(3))

	_, err := engine.Ingest(context.Background(), ucla2023, records(9))
	require.Error(t, err)

	res, err := engine.Ingest(context.Background(), ucla2023, records(9))
	require.NoError(t, err)
	assert.Equal(t, ingest.StatusCompleted, res.Status)

	_, err = engine.Ingest(context.Background(), ucla2023, records(9))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, store.ids())
	assert.Equal(t, "completed", ledger.row(ucla2023).status)
}

func TestEngine_RecordOverridesAnnounceOtherPartitions(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	engine := ingest.NewEngine(store, ledger, ingest.WithChunkSize(2))

	payload, err := wagefile.Parse([]byte(`{
		"location": "UCLA", "year": 2023,
		"records": [
			{"employee_id": 1, "grosspay": "100"},
			{"employee_id": 2, "grosspay": "200", "location": "UCB"},
			{"employee_id": 3, "grosspay": "300", "year": 2022}
		]
	}`))
	require.NoError(t, err)

	res, err := engine.Ingest(context.Background(), payload.Partition(), payload)

	require.NoError(t, err)
	assert.Equal(t, ingest.StatusCompleted, res.Status)
	ucb2023 := wage.Partition{Location: "UCB", Year: 2023}
	ucla2022 := wage.Partition{Location: "UCLA", Year: 2022}
	assert.Equal(t, []wage.Partition{ucb2023, ucla2022}, res.OtherPartitions)
	assert.Equal(t, map[wage.Partition]int{ucla2023: 3, ucb2023: 1, ucla2022: 1}, ledger.announced())
}

func TestEngine_NoOverridesAnnounceOnlyJobPartition(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	engine := ingest.NewEngine(store, ledger)

	res, err := engine.Ingest(context.Background(), ucla2023, records(4))

	require.NoError(t, err)
	assert.Empty(t, res.OtherPartitions)
	assert.Equal(t, map[wage.Partition]int{ucla2023: 4}, ledger.announced())
}

func TestEngine_ZeroRecords(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	engine := ingest.NewEngine(store, ledger)

	res, err := engine.Ingest(context.Background(), ucla2023, ingest.SliceSource{})

	require.NoError(t, err)
	assert.Equal(t, ingest.StatusCompleted, res.Status)
	assert.Zero(t, store.calls)
	assert.Equal(t, "completed", ledger.row(ucla2023).status)
}

func TestEngine_SupersededJobStops(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	engine := ingest.NewEngine(store, ledger, ingest.WithChunkSize(2))

	var newer string
	store.beforeFn = func(call int) {
		if call == 2 {
			id, err := ledger.Start(context.Background(), ucla2023, 4)
			require.NoError(t, err)
			newer = id
		}
	}

	res, err := engine.Ingest(context.Background(), ucla2023, records(10))

	require.NoError(t, err)
	assert.True(t, res.Superseded)
	assert.Equal(t, ingest.StatusSuperseded, res.Status)
	assert.Equal(t, 2, store.calls)

	row := ledger.row(ucla2023)
	assert.Equal(t, newer, row.jobID)
	assert.Equal(t, "processing", row.status)
	assert.Zero(t, row.uploaded)
}

func TestEngine_CanceledContextFailsJob(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	engine := ingest.NewEngine(store, ledger, ingest.WithChunkSize(2))

	ctx, cancel := context.WithCancel(context.Background())
	store.beforeFn = func(call int) {
		if call == 1 {
			cancel()
		}
	}

	res, err := engine.Ingest(ctx, ucla2023, records(6))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ingest.StatusFailed, res.Status)
	assert.Equal(t, "failed", ledger.row(ucla2023).status)
}

func TestEngine_RejectsBadPartition(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	engine := ingest.NewEngine(store, ledger)

	_, err := engine.Ingest(context.Background(), wage.Partition{Year: 2023}, records(1))

	assert.ErrorIs(t, err, ingesterrors.ErrInvalidPartition)
	assert.Zero(t, store.calls)
}

func TestEngine_LedgerStartError(t *testing.T) {
	store, ledger := newMemWageStore(), newMemLedger()
	ledger.startErr = errors.New("ledger down")
	engine := ingest.NewEngine(store, ledger)

	_, err := engine.Ingest(context.Background(), ucla2023, records(3))

	assert.EqualError(t, err, "ledger down")
	assert.Zero(t, store.calls)
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	store, ledger := newMemWageStore(), newMemLedger()
	store.failOn = 2
	engine := ingest.NewEngine(store, ledger, ingest.WithChunkSize(2), ingest.WithMetrics(ingest.NewMetrics(reg)))

	_, _ = engine.Ingest(context.Background(), ucla2023, records(6))

	n, err := testutil.GatherAndCount(reg, "wages_ingest_chunks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(reg, "wages_ingest_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
