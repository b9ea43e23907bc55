package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/storage"
)

// EntryStore persists manual ledger entries.
type EntryStore interface {
	CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)
	GetEntry(ctx context.Context, ownerID, id string) (core.LedgerEntry, error)
	UpdateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)
	DeleteEntry(ctx context.Context, ownerID, id string) error
	ListEntries(ctx context.Context, ownerID string, f storage.EntryFilter) ([]core.LedgerEntry, error)
}

// EntryInput is a user-entered transaction. Amount is a magnitude; the sign
// follows Type. An empty Status picks the default for the payment method.
type EntryInput struct {
	Type          core.EntryType
	Description   string
	Amount        core.Money
	Date          core.Date
	CategoryID    *string
	CardID        *string
	PaymentMethod core.PaymentMethod
	Status        core.Status
}

// EntryService handles manually recorded ledger entries.
type EntryService struct {
	store    EntryStore
	notifier Notifier
	logger   *log.Logger
	newID    func() string
}

func NewEntryService(store EntryStore, notifier Notifier, logger *log.Logger) *EntryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &EntryService{
		store:    store,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentLedger),
		newID:    uuid.NewString,
	}
}

// DefaultStatus is paid for income and for expenses settled immediately;
// card expenses stay pending until the bill is paid.
func DefaultStatus(t core.EntryType, method core.PaymentMethod) core.Status {
	if t == core.Expense && method == core.PaymentCard {
		return core.StatusPending
	}
	return core.StatusPaid
}

func (in EntryInput) entry(id, ownerID string) core.LedgerEntry {
	status := in.Status
	if status == "" {
		status = DefaultStatus(in.Type, in.PaymentMethod)
	}
	return core.LedgerEntry{
		ID:            id,
		OwnerID:       ownerID,
		Type:          in.Type,
		Description:   strings.TrimSpace(in.Description),
		CategoryID:    emptyToNil(in.CategoryID),
		CardID:        emptyToNil(in.CardID),
		Amount:        in.Type.Sign(in.Amount),
		Date:          in.Date,
		PaymentMethod: in.PaymentMethod,
		Status:        status,
		Period:        in.Date.Period(),
	}
}

func (s *EntryService) Create(ctx context.Context, ownerID string, in EntryInput) (core.LedgerEntry, error) {
	e := in.entry(s.newID(), ownerID)
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("create entry: %w", err)
	}
	s.logger.InfoContext(ctx, "Entry created",
		log.FieldOwnerID, ownerID,
		log.FieldPeriod, created.Period,
		log.FieldAmountCents, created.Amount.Cents)
	s.changed(ctx, ownerID, created.Period)
	return created, nil
}

func (s *EntryService) Update(ctx context.Context, ownerID, id string, in EntryInput) (core.LedgerEntry, error) {
	before, err := s.store.GetEntry(ctx, ownerID, id)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e := in.entry(id, ownerID)
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	updated, err := s.store.UpdateEntry(ctx, e)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("update entry: %w", err)
	}
	s.changed(ctx, ownerID, before.Period, updated.Period)
	return updated, nil
}

func (s *EntryService) Delete(ctx context.Context, ownerID, id string) error {
	before, err := s.store.GetEntry(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	s.changed(ctx, ownerID, before.Period)
	return nil
}

func (s *EntryService) List(ctx context.Context, ownerID string, f storage.EntryFilter) ([]core.LedgerEntry, error) {
	return s.store.ListEntries(ctx, ownerID, f)
}

func (s *EntryService) changed(ctx context.Context, ownerID string, periods ...string) {
	if len(periods) == 2 && periods[0] == periods[1] {
		periods = periods[:1]
	}
	s.notifier.LedgerChanged(ctx, LedgerChange{
		OwnerID: ownerID,
		Periods: periods,
		Entries: 1,
		Source:  SourceManual,
	})
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
