package services

import "context"

// Sources of ledger changes.
const (
	SourceRecurring = "recurring"
	SourceManual    = "manual"
)

// LedgerChange is the "data changed" signal: some of an owner's periods now
// hold different entries and any cached view of them is stale.
type LedgerChange struct {
	OwnerID string
	Periods []string
	Entries int
	Source  string
}

// Notifier receives ledger changes. Implementations must not block for long;
// they run on the caller's goroutine.
type Notifier interface {
	LedgerChanged(ctx context.Context, change LedgerChange)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, change LedgerChange)

func (f NotifierFunc) LedgerChanged(ctx context.Context, change LedgerChange) { f(ctx, change) }

// MultiNotifier fans a change out to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) LedgerChanged(ctx context.Context, change LedgerChange) {
	for _, n := range m {
		if n != nil {
			n.LedgerChanged(ctx, change)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) LedgerChanged(context.Context, LedgerChange) {}
