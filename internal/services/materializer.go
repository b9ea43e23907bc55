package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"fluxo/internal/core"
	"fluxo/internal/log"
)

// DefaultMaxDaysPerSweep bounds how many calendar days one rule walks per sweep.
const DefaultMaxDaysPerSweep = 366

// RuleStore is the recurrence rule persistence the materializer needs.
type RuleStore interface {
	ListActiveRules(ctx context.Context, scope core.Scope) ([]core.RecurrenceRule, error)
	GetWatermark(ctx context.Context, ruleID string) (*core.Date, error)
	AdvanceWatermark(ctx context.Context, ruleID string, day core.Date) error
}

// LedgerWriter stores generated entries as one all-or-nothing batch.
type LedgerWriter interface {
	InsertEntries(ctx context.Context, entries []core.LedgerEntry) error
}

// PassCommitter advances a watermark from expected to next and inserts entries
// in one atomic step, reporting false when the watermark was no longer expected.
// Rule stores that implement it get race-free commits.
type PassCommitter interface {
	CommitPass(ctx context.Context, ruleID string, expected *core.Date, next core.Date, entries []core.LedgerEntry) (bool, error)
}

type MaterializerConfig struct {
	// Location is the canonical zone "today" is resolved in.
	Location          *time.Location
	PaymentMethod     core.PaymentMethod
	DescriptionSuffix string
	MaxDaysPerSweep   int
}

func DefaultMaterializerConfig() MaterializerConfig {
	return MaterializerConfig{
		Location:        time.UTC,
		PaymentMethod:   core.PaymentPix,
		MaxDaysPerSweep: DefaultMaxDaysPerSweep,
	}
}

// SweepResult summarizes one catch-up sweep.
type SweepResult struct {
	RulesEvaluated int                 `json:"rulesEvaluated"`
	EntriesCreated int                 `json:"entriesCreated"`
	RulesFailed    int                 `json:"rulesFailed"`
	RulesSkipped   int                 `json:"rulesSkipped"`
	CreatedByOwner map[string]int      `json:"-"`
	PeriodsByOwner map[string][]string `json:"-"`
}

// RecurrenceMaterializer turns recurrence rules into ledger entries, once per
// rule per calendar day, catching up on every day missed since the last run.
type RecurrenceMaterializer struct {
	rules     RuleStore
	ledger    LedgerWriter
	committer PassCommitter
	cfg       MaterializerConfig
	notifier  Notifier
	logger    *log.Logger
	newID     func() string
	inflight  singleflight.Group
}

type MaterializerOption func(*RecurrenceMaterializer)

func WithNotifier(n Notifier) MaterializerOption {
	return func(m *RecurrenceMaterializer) {
		if n != nil {
			m.notifier = n
		}
	}
}

func WithLogger(l *log.Logger) MaterializerOption {
	return func(m *RecurrenceMaterializer) {
		if l != nil {
			m.logger = l.WithComponent(log.ComponentRecurring)
		}
	}
}

// WithIDGenerator replaces the uuid generator for entry ids.
func WithIDGenerator(fn func() string) MaterializerOption {
	return func(m *RecurrenceMaterializer) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewRecurrenceMaterializer wires a materializer. If rules also implements
// PassCommitter, watermark advance and insertion happen atomically.
func NewRecurrenceMaterializer(rules RuleStore, ledger LedgerWriter, cfg MaterializerConfig, opts ...MaterializerOption) *RecurrenceMaterializer {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PaymentMethod == "" {
		cfg.PaymentMethod = core.PaymentPix
	}
	if cfg.MaxDaysPerSweep <= 0 {
		cfg.MaxDaysPerSweep = DefaultMaxDaysPerSweep
	}
	m := &RecurrenceMaterializer{
		rules:    rules,
		ledger:   ledger,
		cfg:      cfg,
		notifier: nopNotifier{},
		logger:   log.Default(log.ComponentRecurring),
		newID:    uuid.NewString,
	}
	if pc, ok := rules.(PassCommitter); ok {
		m.committer = pc
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Today resolves now to a calendar day in the canonical zone.
func (m *RecurrenceMaterializer) Today(now time.Time) core.Date {
	return core.DateOf(now, m.cfg.Location)
}

// RunCatchUpSweep processes every active rule in scope up to the day now falls
// on. Concurrent calls for the same scope share one in-flight sweep. A failing
// rule is logged and counted, never aborting the others. A caller that joined a
// sweep interrupted by its starter's context runs its own sweep instead.
func (m *RecurrenceMaterializer) RunCatchUpSweep(ctx context.Context, scope core.Scope, now time.Time) (SweepResult, error) {
	today := m.Today(now)
	for {
		v, err, shared := m.inflight.Do(scope.Key(), func() (any, error) {
			return m.sweep(ctx, scope, today)
		})
		res, _ := v.(SweepResult)
		if !shared {
			return res, err
		}
		if err != nil && ctx.Err() == nil && isContextErr(err) {
			m.logger.InfoContext(ctx, "Joined sweep was interrupted, sweeping again", log.FieldScope, scope.Key())
			continue
		}
		m.logger.DebugContext(ctx, "Joined in-flight sweep", log.FieldScope, scope.Key())
		return res, err
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (m *RecurrenceMaterializer) sweep(ctx context.Context, scope core.Scope, today core.Date) (SweepResult, error) {
	started := time.Now()
	rules, err := m.rules.ListActiveRules(ctx, scope)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list active rules: %w", err)
	}

	res := SweepResult{
		CreatedByOwner: make(map[string]int),
		PeriodsByOwner: make(map[string][]string),
	}
	periods := make(map[string]map[string]struct{})

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			m.notify(ctx, res)
			return res, fmt.Errorf("sweep interrupted after %d rules: %w", res.RulesEvaluated, err)
		}
		res.RulesEvaluated++

		out, err := m.processRule(ctx, rule, today)
		if err != nil {
			res.RulesFailed++
			m.logger.ErrorContext(ctx, "Failed to materialize recurrence rule",
				log.NewFields().WithRule(rule.ID, rule.OwnerID, string(rule.Periodicity)).WithError(err).ToSlice()...)
			continue
		}
		if out.skipped {
			res.RulesSkipped++
			continue
		}
		if out.created == 0 {
			continue
		}
		res.EntriesCreated += out.created
		res.CreatedByOwner[rule.OwnerID] += out.created
		if periods[rule.OwnerID] == nil {
			periods[rule.OwnerID] = make(map[string]struct{})
		}
		for _, p := range out.periods {
			periods[rule.OwnerID][p] = struct{}{}
		}
	}

	for owner, set := range periods {
		list := make([]string, 0, len(set))
		for p := range set {
			list = append(list, p)
		}
		sort.Strings(list)
		res.PeriodsByOwner[owner] = list
	}

	m.notify(ctx, res)

	m.logger.InfoContext(ctx, "Recurring sweep complete",
		log.FieldScope, scope.Key(),
		log.FieldToday, today.String(),
		log.FieldRulesEvaluated, res.RulesEvaluated,
		log.FieldEntriesCreated, res.EntriesCreated,
		log.FieldRulesSkipped, res.RulesSkipped,
		log.FieldRulesFailed, res.RulesFailed,
		log.FieldDuration, time.Since(started).Milliseconds())
	return res, nil
}

func (m *RecurrenceMaterializer) notify(ctx context.Context, res SweepResult) {
	for owner, n := range res.CreatedByOwner {
		if n == 0 {
			continue
		}
		m.notifier.LedgerChanged(ctx, LedgerChange{
			OwnerID: owner,
			Periods: res.PeriodsByOwner[owner],
			Entries: n,
			Source:  SourceRecurring,
		})
	}
}

type ruleOutcome struct {
	created int
	periods []string
	skipped bool
}

func (m *RecurrenceMaterializer) processRule(ctx context.Context, rule core.RecurrenceRule, today core.Date) (ruleOutcome, error) {
	watermark := rule.LastProcessed
	if watermark != nil {
		if watermark.Equal(today) {
			return ruleOutcome{skipped: true}, nil
		}
		if watermark.After(today) {
			m.logger.WarnContext(ctx, "Recurrence rule watermark is in the future, skipping",
				log.FieldRuleID, rule.ID, log.FieldWatermark, watermark.String(), log.FieldToday, today.String())
			return ruleOutcome{skipped: true}, nil
		}
	}

	start := today
	switch {
	case watermark != nil:
		start = watermark.AddDays(1)
	case !rule.CreatedOn.IsZero():
		start = rule.CreatedOn
	}
	if start.After(today) {
		return ruleOutcome{skipped: true}, nil
	}

	end := today
	if start.DaysUntil(today) >= m.cfg.MaxDaysPerSweep {
		end = start.AddDays(m.cfg.MaxDaysPerSweep - 1)
		m.logger.InfoContext(ctx, "Capping recurrence walk, remainder resumes next sweep",
			log.FieldRuleID, rule.ID, log.FieldWindowStart, start.String(), log.FieldWindowEnd, end.String())
	}

	matcher := m.matcherFor(ctx, rule)
	var entries []core.LedgerEntry
	var periods []string
	for day := start; !day.After(end); day = day.AddDays(1) {
		if matcher == nil || !matcher.Matches(rule, day) {
			continue
		}
		entries = append(entries, m.buildEntry(rule, day))
		if p := day.Period(); len(periods) == 0 || periods[len(periods)-1] != p {
			periods = append(periods, p)
		}
	}

	committed, err := m.commit(ctx, rule.ID, watermark, end, entries)
	if err != nil {
		return ruleOutcome{}, err
	}
	if !committed {
		m.logger.InfoContext(ctx, "Recurrence rule already processed by a concurrent sweep",
			log.FieldRuleID, rule.ID, log.FieldToday, today.String())
		return ruleOutcome{skipped: true}, nil
	}

	if len(entries) > 0 {
		m.logger.DebugContext(ctx, "Materialized recurrence rule",
			log.FieldRuleID, rule.ID,
			log.FieldOwnerID, rule.OwnerID,
			log.FieldWindowStart, start.String(),
			log.FieldWindowEnd, end.String(),
			log.FieldEntriesCreated, len(entries))
	}
	return ruleOutcome{created: len(entries), periods: periods}, nil
}

// matcherFor returns nil for rules that cannot match any day.
func (m *RecurrenceMaterializer) matcherFor(ctx context.Context, rule core.RecurrenceRule) OccurrenceMatcher {
	if err := rule.Validate(); err != nil {
		m.logger.WarnContext(ctx, "Malformed recurrence rule never matches",
			log.FieldRuleID, rule.ID, log.FieldError, err.Error())
		return nil
	}
	matcher, err := GetOccurrenceMatcher(rule.Periodicity)
	if err != nil {
		m.logger.WarnContext(ctx, "No occurrence matcher for rule",
			log.FieldRuleID, rule.ID, log.FieldError, err.Error())
		return nil
	}
	return matcher
}

// commit writes one rule's pass. With an atomic committer the watermark moves
// only if it still equals expected. Otherwise the watermark is re-read right
// before insertion and the pass is abandoned if it moved. That fallback is two
// writes: if the entries land but AdvanceWatermark fails, the rule is reported
// failed with the watermark unchanged and the next sweep inserts the same
// window again. Stores that need exactly-once must implement PassCommitter.
func (m *RecurrenceMaterializer) commit(ctx context.Context, ruleID string, expected *core.Date, next core.Date, entries []core.LedgerEntry) (bool, error) {
	if m.committer != nil {
		ok, err := m.committer.CommitPass(ctx, ruleID, expected, next, entries)
		if err != nil {
			return false, fmt.Errorf("commit pass: %w", err)
		}
		return ok, nil
	}

	current, err := m.rules.GetWatermark(ctx, ruleID)
	if err != nil {
		return false, fmt.Errorf("re-read watermark: %w", err)
	}
	if !sameDay(current, expected) {
		return false, nil
	}
	if err := m.ledger.InsertEntries(ctx, entries); err != nil {
		return false, fmt.Errorf("insert entries: %w", err)
	}
	if err := m.rules.AdvanceWatermark(ctx, ruleID, next); err != nil {
		return false, fmt.Errorf("advance watermark: %w", err)
	}
	return true, nil
}

func sameDay(a, b *core.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (m *RecurrenceMaterializer) buildEntry(rule core.RecurrenceRule, day core.Date) core.LedgerEntry {
	description := rule.Name
	if suffix := strings.TrimSpace(m.cfg.DescriptionSuffix); suffix != "" {
		description = rule.Name + " " + suffix
	}
	return core.LedgerEntry{
		ID:            m.newID(),
		OwnerID:       rule.OwnerID,
		Type:          rule.Kind,
		Description:   description,
		CategoryID:    rule.CategoryID,
		Amount:        rule.Kind.Sign(rule.Amount),
		Date:          day,
		PaymentMethod: m.cfg.PaymentMethod,
		Status:        core.StatusPaid,
		Period:        day.Period(),
	}
}
