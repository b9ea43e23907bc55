package sheets

import (
	"context"

	"fluxo/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerExporter replaces the exported copy of one owner's period with entries.
	LedgerExporter interface {
		ExportPeriod(ctx context.Context, ownerID, period string, entries []core.LedgerEntry) error
	}

	// PeriodReader reads back an exported period.
	PeriodReader interface {
		ReadPeriod(ctx context.Context, ownerID, period string) ([]Row, error)
	}
)
