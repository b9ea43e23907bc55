package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/sheets/memory"
	"fluxo/internal/storage"
)

type fakeEntries struct {
	mu      sync.Mutex
	entries []core.LedgerEntry
	failFor string
	lists   int
}

func (f *fakeEntries) ListEntries(_ context.Context, ownerID string, filter storage.EntryFilter) ([]core.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if ownerID == f.failFor {
		return nil, errors.New("database is locked")
	}
	var out []core.LedgerEntry
	for _, e := range f.entries {
		if e.OwnerID == ownerID && (filter.Period == "" || e.Period == filter.Period) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntries) OwnersWithEntries(_ context.Context, period string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range f.entries {
		if e.Period == period && !seen[e.OwnerID] {
			seen[e.OwnerID] = true
			out = append(out, e.OwnerID)
		}
	}
	return out, nil
}

type failingExporter struct{}

func (failingExporter) ExportPeriod(context.Context, string, string, []core.LedgerEntry) error {
	return errors.New("quota exceeded")
}

func entry(id, owner string, d core.Date) core.LedgerEntry {
	return core.LedgerEntry{
		ID: id, OwnerID: owner, Type: core.Expense, Description: "Coffee",
		Amount: core.Money{Cents: -500}, Date: d, PaymentMethod: core.PaymentPix,
		Status: core.StatusPaid, Period: d.Period(),
	}
}

func testLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func seeded() *fakeEntries {
	return &fakeEntries{entries: []core.LedgerEntry{
		entry("a1", "alice", core.NewDate(2025, 2, 27)),
		entry("a2", "alice", core.NewDate(2025, 3, 1)),
		entry("a3", "alice", core.NewDate(2025, 3, 2)),
		entry("b1", "bob", core.NewDate(2025, 3, 3)),
	}}
}

func TestHandleLedgerChangedExportsEachPeriod(t *testing.T) {
	sink := memory.New()
	w := NewExportWorker(seeded(), sink, testLogger())

	msg := amqp.NewLedgerChangedMessage("alice", []string{"2025-03", "2025-02", "2025-03"}, 3, "recurring")
	require.NoError(t, w.HandleLedgerChanged(context.Background(), msg))

	assert.Equal(t, []string{"2025-02 alice", "2025-03 alice"}, sink.Tabs())
	assert.Equal(t, 2, sink.Exports(), "duplicate periods export once")

	rows, err := sink.ReadPeriod(context.Background(), "alice", "2025-03")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a2", rows[0].EntryID)
}

func TestHandleLedgerChangedSkipsMalformedPeriodsAndMissingOwner(t *testing.T) {
	sink := memory.New()
	w := NewExportWorker(seeded(), sink, testLogger())

	msg := amqp.NewLedgerChangedMessage("alice", []string{"March", "2025-03"}, 1, "manual")
	require.NoError(t, w.HandleLedgerChanged(context.Background(), msg))
	assert.Equal(t, []string{"2025-03 alice"}, sink.Tabs())

	anon := amqp.NewLedgerChangedMessage("", []string{"2025-03"}, 1, "manual")
	require.NoError(t, w.HandleLedgerChanged(context.Background(), anon))
	assert.Equal(t, 1, sink.Exports())
}

func TestHandleLedgerChangedReturnsExportErrors(t *testing.T) {
	w := NewExportWorker(seeded(), failingExporter{}, testLogger())
	msg := amqp.NewLedgerChangedMessage("alice", []string{"2025-02", "2025-03"}, 2, "manual")

	err := w.HandleLedgerChanged(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-02")
	assert.Contains(t, err.Error(), "2025-03")
}

func TestReconcilePeriod(t *testing.T) {
	src := seeded()
	sink := memory.New()
	w := NewExportWorker(src, sink, testLogger())

	require.NoError(t, w.ReconcilePeriod(context.Background(), "2025-03"))
	assert.Equal(t, []string{"2025-03 alice", "2025-03 bob"}, sink.Tabs())

	require.NoError(t, w.ReconcilePeriod(context.Background(), "2024-01"))
	assert.Equal(t, 2, sink.Exports())

	src.failFor = "bob"
	err := w.ReconcilePeriod(context.Background(), "2025-03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 owners failed")
}

func TestReconcilePeriodStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewExportWorker(seeded(), memory.New(), testLogger())
	err := w.ReconcilePeriod(ctx, "2025-03")
	assert.ErrorIs(t, err, context.Canceled)
}
