// Package services provides business logic and orchestration services.
//
// This file holds the per-periodicity occurrence strategies used by the
// recurrence materializer. Each strategy answers one question: does this rule
// fire on this calendar day?
package services

import (
	"fmt"

	"fluxo/internal/core"
)

// OccurrenceMatcher is the strategy interface for deciding whether a rule
// produces an entry on a given day. A rule missing the fields its periodicity
// needs never matches.
type OccurrenceMatcher interface {
	Matches(rule core.RecurrenceRule, day core.Date) bool
}

// DailyMatcher fires every day.
type DailyMatcher struct{}

func (DailyMatcher) Matches(core.RecurrenceRule, core.Date) bool { return true }

// WeeklyMatcher fires on the rule's weekday (0 = Sunday).
type WeeklyMatcher struct{}

func (WeeklyMatcher) Matches(rule core.RecurrenceRule, day core.Date) bool {
	if rule.Weekday == nil || *rule.Weekday < 0 || *rule.Weekday > 6 {
		return false
	}
	return day.Weekday() == *rule.Weekday
}

// BiweeklyMatcher fires on either of the rule's two days of the month.
type BiweeklyMatcher struct{}

func (BiweeklyMatcher) Matches(rule core.RecurrenceRule, day core.Date) bool {
	if !validDay(rule.MonthDayPrimary) || !validDay(rule.MonthDaySecondary) {
		return false
	}
	return day.Day() == *rule.MonthDayPrimary || day.Day() == *rule.MonthDaySecondary
}

// MonthlyMatcher fires on the rule's day of the month. Months without that
// day (31 in a 30-day month) are skipped, not clamped.
type MonthlyMatcher struct{}

func (MonthlyMatcher) Matches(rule core.RecurrenceRule, day core.Date) bool {
	if !validDay(rule.MonthDayPrimary) {
		return false
	}
	return day.Day() == *rule.MonthDayPrimary
}

func validDay(d *int) bool {
	return d != nil && *d >= 1 && *d <= 31
}

// occurrenceMatchers maps periodicities to their strategies.
var occurrenceMatchers = map[core.Periodicity]OccurrenceMatcher{
	core.Daily:    DailyMatcher{},
	core.Weekly:   WeeklyMatcher{},
	core.Biweekly: BiweeklyMatcher{},
	core.Monthly:  MonthlyMatcher{},
}

// GetOccurrenceMatcher returns the strategy for a periodicity.
func GetOccurrenceMatcher(p core.Periodicity) (OccurrenceMatcher, error) {
	m, ok := occurrenceMatchers[p]
	if !ok {
		return nil, fmt.Errorf("unknown periodicity: %s", p)
	}
	return m, nil
}

// RegisterOccurrenceMatcher adds or replaces a strategy. Call it during init only.
func RegisterOccurrenceMatcher(p core.Periodicity, m OccurrenceMatcher) {
	occurrenceMatchers[p] = m
}
