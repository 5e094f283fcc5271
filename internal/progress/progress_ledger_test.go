package progress_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"go-wages/internal/events"
	"go-wages/internal/messaging/kafka"
	kafkamock "go-wages/internal/messaging/kafka/mock"
	"go-wages/internal/progress"
	progresserrors "go-wages/internal/progress/errors"
	"go-wages/internal/progress/mock"
	"go-wages/internal/shared/contextutil"
	"go-wages/internal/wage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ledgerDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	repo    *mock.MockRepository
	outbox  *kafkamock.MockOutboxRepository
}

func setupLedger(t *testing.T) (*progress.Ledger, ledgerDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	deps := ledgerDeps{
		db:      db,
		sqlMock: sqlMock,
		repo:    mock.NewMockRepository(ctrl),
		outbox:  kafkamock.NewMockOutboxRepository(ctrl),
	}
	return progress.NewLedgerWithOutbox(db, deps.repo, deps.outbox), deps
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestLedger_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh partition", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		deps.repo.EXPECT().FindByPartition(ctx, ucla2023).Return(progress.UploadProgress{}, sql.ErrNoRows)
		deps.repo.EXPECT().Start(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, row progress.UploadProgress) error {
				assert.Equal(t, progress.StatusProcessing, row.Status)
				assert.Equal(t, 42, row.TotalRecords)
				assert.NotEmpty(t, row.JobID)
				return nil
			})

		jobID, err := ledger.Start(ctx, ucla2023, 42)
		require.NoError(t, err)
		assert.NotEmpty(t, jobID)
	})

	t.Run("in-flight job is superseded", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		deps.repo.EXPECT().FindByPartition(ctx, ucla2023).Return(progress.UploadProgress{
			JobID:  "old-job",
			Status: progress.StatusProcessing,
		}, nil)
		deps.repo.EXPECT().Start(ctx, gomock.Any()).Return(nil)

		jobID, err := ledger.Start(ctx, ucla2023, 10)
		require.NoError(t, err)
		assert.NotEqual(t, "old-job", jobID)
	})

	t.Run("invalid partition", func(t *testing.T) {
		ledger, _ := setupLedger(t)
		_, err := ledger.Start(ctx, wage.Partition{Location: "UCLA"}, 10)
		assert.ErrorIs(t, err, progresserrors.ErrInvalidPartition)
	})

	t.Run("store error", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		deps.repo.EXPECT().FindByPartition(ctx, ucla2023).Return(progress.UploadProgress{}, errors.New("boom"))

		_, err := ledger.Start(ctx, ucla2023, 10)
		assert.EqualError(t, err, "boom")
	})
}

func TestLedger_Advance(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		deps.repo.EXPECT().Advance(ctx, ucla2023, "job-1", 1000, gomock.Any()).Return(true, nil)
		assert.NoError(t, ledger.Advance(ctx, ucla2023, "job-1", 1000))
	})

	t.Run("superseded", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		deps.repo.EXPECT().Advance(ctx, ucla2023, "job-1", 1000, gomock.Any()).Return(false, nil)
		assert.ErrorIs(t, ledger.Advance(ctx, ucla2023, "job-1", 1000), progresserrors.ErrJobSuperseded)
	})
}

func TestLedger_Complete(t *testing.T) {
	t.Run("marks completed and queues event in one tx", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		ctx := contextutil.WithRequestID(context.Background(), "rid-1")

		expectTx(deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().MarkCompleted(ctx, ucla2023, "job-1", gomock.Any()).Return(true, nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, event kafka.OutboxEvent) error {
				assert.Equal(t, events.WagePartitionIngestedTopic, event.Topic)
				assert.Equal(t, "UCLA/2023", event.AggregateID)
				assert.Equal(t, "rid-1", event.RequestID)

				var payload events.WagePartitionIngestedEvent
				require.NoError(t, json.Unmarshal(event.Payload, &payload))
				assert.Equal(t, "job-1", payload.JobID)
				assert.Equal(t, 2023, payload.Year)
				assert.Equal(t, 7, payload.TotalRecords)
				return nil
			})

		require.NoError(t, ledger.Complete(ctx, ucla2023, "job-1", 7, nil))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("queues an event for each overridden partition", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		ctx := context.Background()
		ucb2023 := wage.Partition{Location: "UCB", Year: 2023}
		ucla2022 := wage.Partition{Location: "UCLA", Year: 2022}

		var got []events.WagePartitionIngestedEvent
		expectTx(deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().MarkCompleted(ctx, ucla2023, "job-1", gomock.Any()).Return(true, nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Times(3).DoAndReturn(
			func(_ context.Context, event kafka.OutboxEvent) error {
				var payload events.WagePartitionIngestedEvent
				require.NoError(t, json.Unmarshal(event.Payload, &payload))
				got = append(got, payload)
				return nil
			})

		others := map[wage.Partition]int{ucla2022: 1, ucb2023: 2}
		require.NoError(t, ledger.Complete(ctx, ucla2023, "job-1", 10, others))

		require.Len(t, got, 3)
		assert.Equal(t, "UCLA", got[0].Location)
		assert.Equal(t, 2023, got[0].Year)
		assert.Equal(t, 10, got[0].TotalRecords)
		assert.Equal(t, "UCB", got[1].Location)
		assert.Equal(t, 2, got[1].TotalRecords)
		assert.Equal(t, "UCLA", got[2].Location)
		assert.Equal(t, 2022, got[2].Year)
		for _, e := range got {
			assert.Equal(t, "job-1", e.JobID)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("superseded job rolls back without an event", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		ctx := context.Background()

		expectTx(deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().MarkCompleted(ctx, ucla2023, "job-1", gomock.Any()).Return(false, nil)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		err := ledger.Complete(ctx, ucla2023, "job-1", 7, nil)
		assert.ErrorIs(t, err, progresserrors.ErrJobSuperseded)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("outbox failure rolls back", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		ctx := context.Background()

		expectTx(deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().MarkCompleted(ctx, ucla2023, "job-1", gomock.Any()).Return(true, nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("outbox down"))

		err := ledger.Complete(ctx, ucla2023, "job-1", 7, nil)
		assert.EqualError(t, err, "outbox down")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLedger_Fail(t *testing.T) {
	ctx := context.Background()

	t.Run("records the cause", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		deps.repo.EXPECT().MarkFailed(ctx, ucla2023, "job-1", "connection reset", gomock.Any()).Return(true, nil)
		assert.NoError(t, ledger.Fail(ctx, ucla2023, "job-1", errors.New("connection reset")))
	})

	t.Run("superseded", func(t *testing.T) {
		ledger, deps := setupLedger(t)
		deps.repo.EXPECT().MarkFailed(ctx, ucla2023, "job-1", gomock.Any(), gomock.Any()).Return(false, nil)
		assert.ErrorIs(t, ledger.Fail(ctx, ucla2023, "job-1", errors.New("x")), progresserrors.ErrJobSuperseded)
	})
}
