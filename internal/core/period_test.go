package core

import (
	"errors"
	"testing"
)

func TestResolveRange(t *testing.T) {
	today := NewDate(2024, 3, 14) // Thursday
	cases := []struct {
		filter   string
		from, to string
	}{
		{"today", "2024-03-14", "2024-03-14"},
		{"week", "2024-03-11", "2024-03-17"},
		{"", "2024-03-01", "2024-03-31"},
		{"current-month", "2024-03-01", "2024-03-31"},
		{"last-month", "2024-02-01", "2024-02-29"},
		{"year", "2024-01-01", "2024-12-31"},
		{"custom:2024-01-05:2024-01-20", "2024-01-05", "2024-01-20"},
	}
	for _, tc := range cases {
		t.Run(tc.filter, func(t *testing.T) {
			r, err := ResolveRange(tc.filter, today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.From.String() != tc.from || r.To.String() != tc.to {
				t.Fatalf("expected %s..%s, got %s..%s", tc.from, tc.to, r.From, r.To)
			}
		})
	}
}

func TestResolveRangeWeekOnSunday(t *testing.T) {
	r, err := ResolveRange("week", NewDate(2024, 3, 17))
	if err != nil {
		t.Fatal(err)
	}
	if r.From.String() != "2024-03-11" || r.To.String() != "2024-03-17" {
		t.Fatalf("sunday belongs to the week starting monday, got %s..%s", r.From, r.To)
	}
}

func TestResolveRangeLastMonthAcrossYear(t *testing.T) {
	r, err := ResolveRange("last-month", NewDate(2024, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	if r.From.String() != "2023-12-01" || r.To.String() != "2023-12-31" {
		t.Fatalf("got %s..%s", r.From, r.To)
	}
}

func TestResolveRangeErrors(t *testing.T) {
	for _, f := range []string{"fortnight", "custom:2024-01-05", "custom:2024-02-01:2024-01-01", "custom:x:y"} {
		if _, err := ResolveRange(f, NewDate(2024, 3, 14)); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("%q: expected ErrInvalidRange, got %v", f, err)
		}
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{From: NewDate(2024, 1, 1), To: NewDate(2024, 1, 31)}
	if !r.Contains(NewDate(2024, 1, 1)) || !r.Contains(NewDate(2024, 1, 31)) {
		t.Fatalf("range bounds must be inclusive")
	}
	if r.Contains(NewDate(2024, 2, 1)) {
		t.Fatalf("feb 1 is outside january")
	}
}
