package services

import (
	"testing"

	"fluxo/internal/core"
)

func intp(v int) *int { return &v }

func TestWeeklyMatcher_Matches(t *testing.T) {
	monday := core.NewDate(2024, 1, 1)

	tests := []struct {
		name    string
		weekday *int
		day     core.Date
		want    bool
	}{
		{name: "monday rule on monday", weekday: intp(1), day: monday, want: true},
		{name: "monday rule on tuesday", weekday: intp(1), day: monday.AddDays(1), want: false},
		{name: "sunday rule on sunday", weekday: intp(0), day: monday.AddDays(6), want: true},
		{name: "missing weekday", weekday: nil, day: monday, want: false},
		{name: "out of range weekday", weekday: intp(8), day: monday, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := core.RecurrenceRule{Periodicity: core.Weekly, Weekday: tt.weekday}
			if got := (WeeklyMatcher{}).Matches(rule, tt.day); got != tt.want {
				t.Errorf("WeeklyMatcher.Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBiweeklyMatcher_Matches(t *testing.T) {
	rule := core.RecurrenceRule{Periodicity: core.Biweekly, MonthDayPrimary: intp(1), MonthDaySecondary: intp(15)}

	tests := []struct {
		name string
		day  core.Date
		want bool
	}{
		{name: "primary day", day: core.NewDate(2024, 2, 1), want: true},
		{name: "secondary day", day: core.NewDate(2024, 2, 15), want: true},
		{name: "other day", day: core.NewDate(2024, 2, 14), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (BiweeklyMatcher{}).Matches(rule, tt.day); got != tt.want {
				t.Errorf("BiweeklyMatcher.Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	broken := core.RecurrenceRule{Periodicity: core.Biweekly, MonthDayPrimary: intp(1)}
	if (BiweeklyMatcher{}).Matches(broken, core.NewDate(2024, 2, 1)) {
		t.Errorf("biweekly rule without a secondary day must never match")
	}
}

func TestMonthlyMatcher_Matches(t *testing.T) {
	tests := []struct {
		name string
		day  *int
		date core.Date
		want bool
	}{
		{name: "matching day", day: intp(10), date: core.NewDate(2024, 4, 10), want: true},
		{name: "different day", day: intp(10), date: core.NewDate(2024, 4, 11), want: false},
		{name: "day 31 in a 30-day month is not clamped", day: intp(31), date: core.NewDate(2024, 4, 30), want: false},
		{name: "day 31 in a 31-day month", day: intp(31), date: core.NewDate(2024, 5, 31), want: true},
		{name: "missing day", day: nil, date: core.NewDate(2024, 4, 10), want: false},
		{name: "zero day", day: intp(0), date: core.NewDate(2024, 4, 10), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := core.RecurrenceRule{Periodicity: core.Monthly, MonthDayPrimary: tt.day}
			if got := (MonthlyMatcher{}).Matches(rule, tt.date); got != tt.want {
				t.Errorf("MonthlyMatcher.Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetOccurrenceMatcher(t *testing.T) {
	tests := []struct {
		periodicity core.Periodicity
		wantErr     bool
	}{
		{core.Daily, false},
		{core.Weekly, false},
		{core.Biweekly, false},
		{core.Monthly, false},
		{"yearly", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.periodicity), func(t *testing.T) {
			m, err := GetOccurrenceMatcher(tt.periodicity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetOccurrenceMatcher() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && m == nil {
				t.Fatalf("expected a matcher")
			}
		})
	}
}

type everyOtherDay struct{}

func (everyOtherDay) Matches(_ core.RecurrenceRule, d core.Date) bool { return d.Day()%2 == 0 }

func TestRegisterOccurrenceMatcher(t *testing.T) {
	const custom core.Periodicity = "every-other-day"
	RegisterOccurrenceMatcher(custom, everyOtherDay{})
	t.Cleanup(func() { delete(occurrenceMatchers, custom) })

	m, err := GetOccurrenceMatcher(custom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Matches(core.RecurrenceRule{}, core.NewDate(2024, 1, 2)) {
		t.Errorf("custom matcher not used")
	}
}
