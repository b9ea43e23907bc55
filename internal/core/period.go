package core

import (
	"fmt"
	"strings"
)

// Range filters accepted by ResolveRange.
const (
	RangeToday        = "today"
	RangeWeek         = "week"
	RangeCurrentMonth = "current-month"
	RangeLastMonth    = "last-month"
	RangeYear         = "year"
	rangeCustomPrefix = "custom:"
)

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// ResolveRange turns a named filter into a concrete range relative to today.
// An empty filter means the current month. Weeks run Monday to Sunday.
func ResolveRange(filter string, today Date) (DateRange, error) {
	switch f := strings.TrimSpace(filter); {
	case f == RangeToday:
		return DateRange{From: today, To: today}, nil
	case f == RangeWeek:
		monday := today.AddDays(-((today.Weekday() + 6) % 7))
		return DateRange{From: monday, To: monday.AddDays(6)}, nil
	case f == "" || f == RangeCurrentMonth:
		return DateRange{From: today.FirstOfMonth(), To: today.LastOfMonth()}, nil
	case f == RangeLastMonth:
		prev := today.FirstOfMonth().AddMonths(-1)
		return DateRange{From: prev, To: prev.LastOfMonth()}, nil
	case f == RangeYear:
		return DateRange{From: NewDate(today.Year(), 1, 1), To: NewDate(today.Year(), 12, 31)}, nil
	case strings.HasPrefix(f, rangeCustomPrefix):
		parts := strings.Split(strings.TrimPrefix(f, rangeCustomPrefix), ":")
		if len(parts) != 2 {
			return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidRange, filter)
		}
		from, err := ParseDate(parts[0])
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		to, err := ParseDate(parts[1])
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		if to.Before(from) {
			return DateRange{}, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
		}
		return DateRange{From: from, To: to}, nil
	default:
		return DateRange{}, fmt.Errorf("%w: unknown filter %q", ErrInvalidRange, filter)
	}
}
