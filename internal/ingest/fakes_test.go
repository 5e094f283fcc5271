package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"

	progresserrors "go-wages/internal/progress/errors"
	"go-wages/internal/wage"

	"github.com/google/uuid"
)

// memWageStore keys rows like the real unique index: rows without an
// employee id are always appended.
type memWageStore struct {
	mu        sync.Mutex
	rows      map[string]wage.WageRecord
	anonymous []wage.WageRecord
	calls     int
	failOn    int
	beforeFn  func(call int)
}

func newMemWageStore() *memWageStore {
	return &memWageStore{rows: map[string]wage.WageRecord{}}
}

func (s *memWageStore) UpsertBatch(ctx context.Context, records []wage.WageRecord) error {
	s.mu.Lock()
	s.calls++
	call := s.calls
	before := s.beforeFn
	s.mu.Unlock()

	if before != nil {
		before(call)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == call {
		return errors.New("connection reset by peer")
	}
	for _, r := range records {
		if r.EmployeeID == nil {
			s.anonymous = append(s.anonymous, r)
			continue
		}
		s.rows[fmt.Sprintf("%s/%d/%d", r.Location, r.Year, *r.EmployeeID)] = r
	}
	return nil
}

func (s *memWageStore) ids() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, *r.EmployeeID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type ledgerRow struct {
	jobID    string
	status   string
	total    int
	uploaded int
	errMsg   string
	history  []int
}

// memLedger mirrors the conditional writes of the SQL ledger.
type memLedger struct {
	mu       sync.Mutex
	rows     map[wage.Partition]*ledgerRow
	startErr error
	// ingested counts records announced per partition on completion.
	ingested map[wage.Partition]int
}

func newMemLedger() *memLedger {
	return &memLedger{
		rows:     map[wage.Partition]*ledgerRow{},
		ingested: map[wage.Partition]int{},
	}
}

func (l *memLedger) Start(ctx context.Context, p wage.Partition, total int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.startErr != nil {
		return "", l.startErr
	}
	id := uuid.NewString()
	l.rows[p] = &ledgerRow{jobID: id, status: "processing", total: total}
	return id, nil
}

func (l *memLedger) owned(p wage.Partition, jobID string) (*ledgerRow, error) {
	row, ok := l.rows[p]
	if !ok || row.jobID != jobID || row.status != "processing" {
		return nil, progresserrors.ErrJobSuperseded
	}
	return row, nil
}

func (l *memLedger) Advance(ctx context.Context, p wage.Partition, jobID string, uploaded int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, err := l.owned(p, jobID)
	if err != nil {
		return err
	}
	row.uploaded = max(row.uploaded, min(uploaded, row.total))
	row.history = append(row.history, row.uploaded)
	return nil
}

func (l *memLedger) Complete(ctx context.Context, p wage.Partition, jobID string, total int, others map[wage.Partition]int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, err := l.owned(p, jobID)
	if err != nil {
		return err
	}
	row.status = "completed"
	row.uploaded = row.total
	for op, n := range others {
		l.ingested[op] += n
	}
	l.ingested[p] += total
	return nil
}

func (l *memLedger) Fail(ctx context.Context, p wage.Partition, jobID string, cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, err := l.owned(p, jobID)
	if err != nil {
		return err
	}
	row.status = "failed"
	row.errMsg = cause.Error()
	return nil
}

func (l *memLedger) row(p wage.Partition) ledgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.rows[p]; ok {
		return *r
	}
	return ledgerRow{}
}

func (l *memLedger) announced() map[wage.Partition]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.ingested)
}
