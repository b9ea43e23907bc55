package memory

import (
	"context"
	"testing"

	"fluxo/internal/core"
)

func entry(id string, day int, cents int64) core.LedgerEntry {
	typ := core.Expense
	if cents > 0 {
		typ = core.Income
	}
	d := core.NewDate(2025, 4, day)
	return core.LedgerEntry{
		ID: id, OwnerID: "bob", Type: typ, Description: id, Amount: core.Money{Cents: cents},
		Date: d, PaymentMethod: core.PaymentPix, Status: core.StatusPaid, Period: d.Period(),
	}
}

func TestStoreExportReplacesTab(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.ExportPeriod(ctx, "bob", "2025-04", []core.LedgerEntry{entry("a", 3, -100), entry("b", 1, 200)}); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, _ := s.ReadPeriod(ctx, "bob", "2025-04")
	if len(rows) != 2 || rows[0].EntryID != "b" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	if err := s.ExportPeriod(ctx, "bob", "2025-04", []core.LedgerEntry{entry("c", 9, -50)}); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, _ = s.ReadPeriod(ctx, "bob", "2025-04")
	if len(rows) != 1 || rows[0].EntryID != "c" {
		t.Fatalf("second export should replace the tab, got %+v", rows)
	}
	if s.Exports() != 2 {
		t.Errorf("expected 2 exports, got %d", s.Exports())
	}
}

func TestStoreTabsAndMissingPeriod(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.ExportPeriod(ctx, "bob", "2025-04", nil)
	_ = s.ExportPeriod(ctx, "", "2025-03", nil)

	tabs := s.Tabs()
	if len(tabs) != 2 || tabs[0] != "2025-03" || tabs[1] != "2025-04 bob" {
		t.Fatalf("unexpected tabs: %v", tabs)
	}
	rows, err := s.ReadPeriod(ctx, "bob", "2025-01")
	if err != nil || rows != nil {
		t.Fatalf("missing tab should read empty, got %v %v", rows, err)
	}
}
