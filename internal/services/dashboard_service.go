package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fluxo/internal/cache"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/storage"
)

const (
	DefaultRankingSize = 5
	dashboardCacheSize = 512

	uncategorizedName  = "Sem categoria"
	uncategorizedColor = "#9ca3af"
)

// LedgerReader is the read side the dashboard aggregates over.
type LedgerReader interface {
	ListEntries(ctx context.Context, ownerID string, f storage.EntryFilter) ([]core.LedgerEntry, error)
	ListCategories(ctx context.Context, ownerID string, includeInactive bool) ([]core.Category, error)
	ListCards(ctx context.Context, ownerID string) ([]core.Card, error)
	CardSpending(ctx context.Context, ownerID, period string) (map[string]core.Money, error)
}

// DashboardService projects the ledger into totals for a date range. Results
// are cached per owner and dropped whenever that owner's ledger changes.
type DashboardService struct {
	reader LedgerReader
	cache  cache.Cache[any]
	logger *log.Logger
}

// NewDashboardService caches results for ttl; a zero ttl disables caching.
func NewDashboardService(reader LedgerReader, ttl time.Duration, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Default(log.ComponentDashboard)
	}
	s := &DashboardService{reader: reader, logger: logger.WithComponent(log.ComponentDashboard)}
	if ttl > 0 {
		s.cache = cache.NewLRUCache[any](dashboardCacheSize, ttl)
	}
	return s
}

// Cache exposes the result cache so it can be registered for periodic cleanup.
func (s *DashboardService) Cache() cache.Cleaner {
	if c, ok := s.cache.(cache.Cleaner); ok {
		return c
	}
	return nil
}

// LedgerChanged drops cached projections of the owner. It lets the service be
// plugged in as a Notifier.
func (s *DashboardService) LedgerChanged(ctx context.Context, change LedgerChange) {
	s.Invalidate(ctx, change.OwnerID)
}

func (s *DashboardService) Invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.DeletePrefix(ownerID + "|"); n > 0 {
		s.logger.DebugContext(ctx, "Dashboard cache invalidated", log.FieldOwnerID, ownerID, "entries", n)
	}
}

func cached[T any](s *DashboardService, key string, load func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		s.cache.Set(key, v)
	}
	return v, nil
}

func cacheKey(ownerID, kind string, parts ...string) string {
	return ownerID + "|" + kind + "|" + strings.Join(parts, "|")
}

func rangeKey(r core.DateRange) string { return r.From.String() + ".." + r.To.String() }

// Stats returns balance, income, expense and top category over r.
func (s *DashboardService) Stats(ctx context.Context, ownerID string, r core.DateRange) (core.Stats, error) {
	return cached(s, cacheKey(ownerID, "stats", rangeKey(r)), func() (core.Stats, error) {
		entries, err := s.reader.ListEntries(ctx, ownerID, storage.EntryFilter{Range: &r})
		if err != nil {
			return core.Stats{}, fmt.Errorf("stats: %w", err)
		}
		stats := core.Stats{Range: r, EntryCount: len(entries)}
		for _, e := range entries {
			stats.Balance = stats.Balance.Add(e.Amount)
			switch e.Type {
			case core.Income:
				stats.TotalIncome = stats.TotalIncome.Add(e.Amount.Abs())
			case core.Expense:
				stats.TotalExpense = stats.TotalExpense.Add(e.Amount.Abs())
			}
		}

		totals, err := s.categoryTotals(ctx, ownerID, entries)
		if err != nil {
			return core.Stats{}, err
		}
		for i := range totals {
			if totals[i].CategoryID != nil {
				top := totals[i]
				stats.TopCategory = &top
				break
			}
		}
		return stats, nil
	})
}

// SpendingByCategory returns expense totals per category over r, largest
// first. Expenses without a category form their own bucket.
func (s *DashboardService) SpendingByCategory(ctx context.Context, ownerID string, r core.DateRange) ([]core.CategoryTotal, error) {
	return cached(s, cacheKey(ownerID, "categories", rangeKey(r)), func() ([]core.CategoryTotal, error) {
		entries, err := s.reader.ListEntries(ctx, ownerID, storage.EntryFilter{Range: &r, Type: core.Expense})
		if err != nil {
			return nil, fmt.Errorf("spending by category: %w", err)
		}
		return s.categoryTotals(ctx, ownerID, entries)
	})
}

// Ranking returns the n categories with the highest spending over r.
func (s *DashboardService) Ranking(ctx context.Context, ownerID string, r core.DateRange, n int) ([]core.CategoryTotal, error) {
	if n <= 0 {
		n = DefaultRankingSize
	}
	totals, err := s.SpendingByCategory(ctx, ownerID, r)
	if err != nil {
		return nil, err
	}
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals, nil
}

// CardSpending returns, for every card, the expenses charged to it in the
// period today falls in and what is left of its limit.
func (s *DashboardService) CardSpending(ctx context.Context, ownerID string, today core.Date) ([]core.CardSpending, error) {
	period := today.Period()
	return cached(s, cacheKey(ownerID, "cards", period), func() ([]core.CardSpending, error) {
		cards, err := s.reader.ListCards(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("card spending: %w", err)
		}
		spent, err := s.reader.CardSpending(ctx, ownerID, period)
		if err != nil {
			return nil, fmt.Errorf("card spending: %w", err)
		}
		out := make([]core.CardSpending, 0, len(cards))
		for _, c := range cards {
			used := spent[c.ID]
			out = append(out, core.CardSpending{
				Card:      c,
				Period:    period,
				Spent:     used,
				Available: c.Limit.Add(used.Negate()),
			})
		}
		return out, nil
	})
}

func (s *DashboardService) categoryTotals(ctx context.Context, ownerID string, entries []core.LedgerEntry) ([]core.CategoryTotal, error) {
	cats, err := s.reader.ListCategories(ctx, ownerID, true)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	byID := make(map[string]core.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	const uncategorized = ""
	buckets := make(map[string]*core.CategoryTotal)
	var all core.Money
	for _, e := range entries {
		if e.Type != core.Expense {
			continue
		}
		key := uncategorized
		if e.CategoryID != nil {
			key = *e.CategoryID
		}
		b, ok := buckets[key]
		if !ok {
			b = newBucket(key, byID)
			buckets[key] = b
		}
		b.Total = b.Total.Add(e.Amount.Abs())
		b.Count++
		all = all.Add(e.Amount.Abs())
	}

	out := make([]core.CategoryTotal, 0, len(buckets))
	for _, b := range buckets {
		b.Share = share(b.Total, all)
		if b.Limit != nil && b.Limit.Cents > 0 {
			b.LimitUsed = share(b.Total, *b.Limit)
			b.OverLimit = b.Total.Cents > b.Limit.Cents
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func newBucket(key string, byID map[string]core.Category) *core.CategoryTotal {
	if key == "" {
		return &core.CategoryTotal{Name: uncategorizedName, Color: uncategorizedColor, Icon: defaultCategoryIcon}
	}
	id := key
	b := &core.CategoryTotal{CategoryID: &id, Name: id}
	if c, ok := byID[key]; ok {
		b.Name, b.Color, b.Icon = c.Name, c.Color, c.Icon
		b.Limit = c.MonthlyLimit
	}
	return b
}

// share is part/whole as a percentage with two decimals.
func share(part, whole core.Money) string {
	if whole.IsZero() {
		return "0.00"
	}
	return part.Decimal().Div(whole.Decimal()).Mul(decimal.NewFromInt(100)).StringFixed(2)
}
