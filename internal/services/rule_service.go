package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fluxo/internal/core"
	"fluxo/internal/log"
)

// nextOccurrenceHorizon covers a full year so sparse monthly rules (day 31)
// still resolve.
const nextOccurrenceHorizon = 366

type RuleCRUDStore interface {
	CreateRule(ctx context.Context, rule core.RecurrenceRule) (core.RecurrenceRule, error)
	GetRule(ctx context.Context, ownerID, id string) (core.RecurrenceRule, error)
	UpdateRule(ctx context.Context, rule core.RecurrenceRule) (core.RecurrenceRule, error)
	DeactivateRule(ctx context.Context, ownerID, id string) error
	ListRules(ctx context.Context, ownerID string) ([]core.RecurrenceRule, error)
}

type RuleInput struct {
	Kind              core.EntryType
	Name              string
	Icon              string
	CategoryID        *string
	Amount            core.Money
	Periodicity       core.Periodicity
	Weekday           *int
	MonthDayPrimary   *int
	MonthDaySecondary *int
}

// RuleView is a rule plus the next day it will produce an entry.
type RuleView struct {
	core.RecurrenceRule
	NextOccurrence *core.Date `json:"nextOccurrence"`
}

type RuleService struct {
	store  RuleCRUDStore
	loc    *time.Location
	now    func() time.Time
	newID  func() string
	logger *log.Logger
}

func NewRuleService(store RuleCRUDStore, loc *time.Location, logger *log.Logger) *RuleService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.Default(log.ComponentRecurring)
	}
	return &RuleService{
		store:  store,
		loc:    loc,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.WithComponent(log.ComponentRecurring),
	}
}

// Create validates and stores a new rule. It starts with no watermark, so the
// first sweep evaluates it from its creation day.
func (s *RuleService) Create(ctx context.Context, ownerID string, in RuleInput) (core.RecurrenceRule, error) {
	rule := in.apply(core.RecurrenceRule{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Active:    true,
		CreatedOn: core.DateOf(s.now(), s.loc),
	})
	if err := rule.Validate(); err != nil {
		return core.RecurrenceRule{}, err
	}
	created, err := s.store.CreateRule(ctx, rule)
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("create rule: %w", err)
	}
	s.logger.InfoContext(ctx, "Recurrence rule created",
		log.NewFields().WithRule(created.ID, ownerID, string(created.Periodicity)).ToSlice()...)
	return created, nil
}

// Update edits the rule definition. The watermark is kept, so an edit applies
// from the next unprocessed day onward.
func (s *RuleService) Update(ctx context.Context, ownerID, id string, in RuleInput) (core.RecurrenceRule, error) {
	current, err := s.store.GetRule(ctx, ownerID, id)
	if err != nil {
		return core.RecurrenceRule{}, err
	}
	rule := in.apply(current)
	if err := rule.Validate(); err != nil {
		return core.RecurrenceRule{}, err
	}
	return s.store.UpdateRule(ctx, rule)
}

// Deactivate stops a rule; entries it already produced stay in the ledger.
func (s *RuleService) Deactivate(ctx context.Context, ownerID, id string) error {
	return s.store.DeactivateRule(ctx, ownerID, id)
}

// List returns the owner's active rules with their next occurrence.
func (s *RuleService) List(ctx context.Context, ownerID string) ([]RuleView, error) {
	rules, err := s.store.ListRules(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	today := core.DateOf(s.now(), s.loc)
	out := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		if !r.Active {
			continue
		}
		view := RuleView{RecurrenceRule: r}
		if next, ok := NextOccurrence(r, today); ok {
			view.NextOccurrence = &next
		}
		out = append(out, view)
	}
	return out, nil
}

// NextOccurrence returns the first day after the rule's watermark (or from its
// creation, or from today, whichever is latest) on which it fires.
func NextOccurrence(rule core.RecurrenceRule, today core.Date) (core.Date, bool) {
	if rule.Validate() != nil {
		return core.Date{}, false
	}
	matcher, err := GetOccurrenceMatcher(rule.Periodicity)
	if err != nil {
		return core.Date{}, false
	}
	from := today
	if rule.LastProcessed != nil && !rule.LastProcessed.Before(today) {
		from = rule.LastProcessed.AddDays(1)
	}
	if !rule.CreatedOn.IsZero() && rule.CreatedOn.After(from) {
		from = rule.CreatedOn
	}
	for i := 0; i < nextOccurrenceHorizon; i++ {
		d := from.AddDays(i)
		if matcher.Matches(rule, d) {
			return d, true
		}
	}
	return core.Date{}, false
}

func (in RuleInput) apply(rule core.RecurrenceRule) core.RecurrenceRule {
	rule.Kind = in.Kind
	rule.Name = strings.TrimSpace(in.Name)
	rule.Icon = strings.TrimSpace(in.Icon)
	rule.CategoryID = emptyToNil(in.CategoryID)
	rule.Amount = in.Amount
	rule.Periodicity = in.Periodicity
	rule.Weekday = in.Weekday
	rule.MonthDayPrimary = in.MonthDayPrimary
	rule.MonthDaySecondary = in.MonthDaySecondary
	return rule
}
