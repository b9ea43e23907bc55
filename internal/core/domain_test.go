package core

import (
	"errors"
	"testing"
)

func intp(v int) *int { return &v }

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestEntryTypeSign(t *testing.T) {
	hundred := Money{Cents: 10000}
	if got := Expense.Sign(hundred); got.Cents != -10000 {
		t.Fatalf("expense sign: got %d", got.Cents)
	}
	if got := Income.Sign(hundred); got.Cents != 10000 {
		t.Fatalf("income sign: got %d", got.Cents)
	}
	if got := Income.Sign(hundred.Negate()); got.Cents != 10000 {
		t.Fatalf("income sign of negative magnitude: got %d", got.Cents)
	}
}

func TestRecurrenceRuleValidate(t *testing.T) {
	base := RecurrenceRule{Name: "Rent", Kind: Expense, Amount: Money{Cents: 100}}
	with := func(mut func(*RecurrenceRule)) RecurrenceRule {
		r := base
		mut(&r)
		return r
	}
	cases := []struct {
		name string
		rule RecurrenceRule
		ok   bool
	}{
		{"daily", with(func(r *RecurrenceRule) { r.Periodicity = Daily }), true},
		{"weekly sunday", with(func(r *RecurrenceRule) { r.Periodicity = Weekly; r.Weekday = intp(0) }), true},
		{"weekly missing weekday", with(func(r *RecurrenceRule) { r.Periodicity = Weekly }), false},
		{"weekly weekday 7", with(func(r *RecurrenceRule) { r.Periodicity = Weekly; r.Weekday = intp(7) }), false},
		{"monthly 31", with(func(r *RecurrenceRule) { r.Periodicity = Monthly; r.MonthDayPrimary = intp(31) }), true},
		{"monthly 0", with(func(r *RecurrenceRule) { r.Periodicity = Monthly; r.MonthDayPrimary = intp(0) }), false},
		{"monthly missing day", with(func(r *RecurrenceRule) { r.Periodicity = Monthly }), false},
		{"biweekly", with(func(r *RecurrenceRule) {
			r.Periodicity = Biweekly
			r.MonthDayPrimary = intp(1)
			r.MonthDaySecondary = intp(15)
		}), true},
		{"biweekly one day", with(func(r *RecurrenceRule) { r.Periodicity = Biweekly; r.MonthDayPrimary = intp(1) }), false},
		{"unknown periodicity", with(func(r *RecurrenceRule) { r.Periodicity = "yearly" }), false},
		{"empty name", with(func(r *RecurrenceRule) { r.Periodicity = Daily; r.Name = "  " }), false},
		{"zero amount", with(func(r *RecurrenceRule) { r.Periodicity = Daily; r.Amount = Money{} }), false},
		{"unknown kind", with(func(r *RecurrenceRule) { r.Periodicity = Daily; r.Kind = "transfer" }), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected error")
				}
				if !errors.Is(err, ErrInvalidRule) {
					t.Fatalf("expected ErrInvalidRule, got %v", err)
				}
			}
		})
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	d := NewDate(2025, 3, 10)
	good := LedgerEntry{
		Type:          Expense,
		Description:   "Groceries",
		Amount:        Money{Cents: -4500},
		Date:          d,
		PaymentMethod: PaymentPix,
		Status:        StatusPaid,
		Period:        "2025-03",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(*LedgerEntry){
		func(e *LedgerEntry) { e.Date = Date{} },
		func(e *LedgerEntry) { e.Description = "" },
		func(e *LedgerEntry) { e.Amount = Money{Cents: 4500} },
		func(e *LedgerEntry) { e.Amount = Money{} },
		func(e *LedgerEntry) { e.PaymentMethod = "Cheque" },
		func(e *LedgerEntry) { e.Status = "void" },
		func(e *LedgerEntry) { e.Period = "2025-04" },
		func(e *LedgerEntry) { e.Type = "transfer" },
	}
	for i, mut := range bads {
		e := good
		mut(&e)
		if err := e.Validate(); !errors.Is(err, ErrInvalidEntry) {
			t.Fatalf("case %d expected ErrInvalidEntry, got %v", i, err)
		}
	}
}

func TestCardValidate(t *testing.T) {
	good := Card{Name: "Nubank", Final4: "1234", ClosingDay: 3, DueDay: 10}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Card{
		{Name: "", Final4: "1234", ClosingDay: 3, DueDay: 10},
		{Name: "x", Final4: "12a4", ClosingDay: 3, DueDay: 10},
		{Name: "x", Final4: "123", ClosingDay: 3, DueDay: 10},
		{Name: "x", Final4: "1234", ClosingDay: 0, DueDay: 10},
		{Name: "x", Final4: "1234", ClosingDay: 3, DueDay: 32},
		{Name: "x", Final4: "1234", ClosingDay: 3, DueDay: 10, Limit: Money{Cents: -1}},
	}
	for i, c := range bads {
		if err := c.Validate(); !errors.Is(err, ErrInvalidCard) {
			t.Fatalf("case %d expected ErrInvalidCard, got %v", i, err)
		}
	}
}
