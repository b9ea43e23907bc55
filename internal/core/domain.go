package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense EntryType = "expense"
	Income  EntryType = "income"
)

const (
	Daily    Periodicity = "daily"
	Weekly   Periodicity = "weekly"
	Biweekly Periodicity = "biweekly"
	Monthly  Periodicity = "monthly"
)

const (
	PaymentCash  PaymentMethod = "Cash"
	PaymentPix   PaymentMethod = "Pix"
	PaymentDebit PaymentMethod = "Debit"
	PaymentCard  PaymentMethod = "Card"
)

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
)

const (
	maxNameLength    = 200
	DefaultCardColor = "azul"
)

type (
	EntryType     string
	Periodicity   string
	PaymentMethod string
	Status        string

	// RecurrenceRule is a user-declared template for a repeating income or expense.
	// LastProcessed is the watermark: the last day already evaluated for this rule.
	RecurrenceRule struct {
		ID                string      `json:"id"`
		OwnerID           string      `json:"ownerId"`
		Kind              EntryType   `json:"kind"`
		Name              string      `json:"name"`
		Icon              string      `json:"icon,omitempty"`
		CategoryID        *string     `json:"categoryId"`
		Amount            Money       `json:"amount"`
		Periodicity       Periodicity `json:"periodicity"`
		Weekday           *int        `json:"weekday,omitempty"`
		MonthDayPrimary   *int        `json:"monthDayPrimary,omitempty"`
		MonthDaySecondary *int        `json:"monthDaySecondary,omitempty"`
		LastProcessed     *Date       `json:"lastProcessed"`
		Active            bool        `json:"active"`
		CreatedOn         Date        `json:"createdOn"`
		CreatedAt         time.Time   `json:"createdAt"`
		UpdatedAt         time.Time   `json:"updatedAt"`
	}

	LedgerEntry struct {
		ID            string        `json:"id"`
		OwnerID       string        `json:"ownerId"`
		Type          EntryType     `json:"type"`
		Description   string        `json:"description"`
		CategoryID    *string       `json:"categoryId"`
		CardID        *string       `json:"cardId"`
		Amount        Money         `json:"amount"`
		Date          Date          `json:"date"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
		Status        Status        `json:"status"`
		Period        string        `json:"period"`
		CreatedAt     time.Time     `json:"createdAt"`
	}

	Category struct {
		ID           string    `json:"id"`
		OwnerID      string    `json:"ownerId"`
		Name         string    `json:"name"`
		Color        string    `json:"color"`
		Icon         string    `json:"icon"`
		MonthlyLimit *Money    `json:"monthlyLimit"`
		Active       bool      `json:"active"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Card struct {
		ID         string    `json:"id"`
		OwnerID    string    `json:"ownerId"`
		Name       string    `json:"name"`
		Final4     string    `json:"final4"`
		ClosingDay int       `json:"closingDay"`
		DueDay     int       `json:"dueDay"`
		Limit      Money     `json:"limit"`
		Color      string    `json:"color"`
		Brand      string    `json:"brand"`
		CreatedAt  time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidRule     = errors.New("invalid recurrence rule")
	ErrInvalidEntry    = errors.New("invalid ledger entry")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidCard     = errors.New("invalid card")
	ErrInvalidRange    = errors.New("invalid date range")
)

// DefaultCategories are seeded the first time an owner lists categories.
var DefaultCategories = []Category{
	{Name: "Alimentação", Color: "#ef4444", Icon: "utensils"},
	{Name: "Moradia", Color: "#3b82f6", Icon: "home"},
	{Name: "Transporte", Color: "#f59e0b", Icon: "bus"},
	{Name: "Lazer", Color: "#8b5cf6", Icon: "gamepad"},
	{Name: "Saúde", Color: "#10b981", Icon: "heart"},
	{Name: "Educação", Color: "#6366f1", Icon: "book"},
}

func (t EntryType) Valid() bool {
	return t == Expense || t == Income
}

// Sign applies the ledger sign convention to a magnitude: expenses are
// negative, income positive.
func (t EntryType) Sign(m Money) Money {
	m = m.Abs()
	if t == Expense {
		return m.Negate()
	}
	return m
}

func (p Periodicity) Valid() bool {
	switch p {
	case Daily, Weekly, Biweekly, Monthly:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentPix, PaymentDebit, PaymentCard:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusPaid || s == StatusPending
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= maxNameLength
}

func validMonthDay(d *int) bool {
	return d != nil && *d >= 1 && *d <= 31
}

func (r RecurrenceRule) Validate() error {
	if !validName(r.Name) {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidRule, maxNameLength)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, r.Kind)
	}
	if err := r.Amount.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	switch r.Periodicity {
	case Daily:
	case Weekly:
		if r.Weekday == nil || *r.Weekday < 0 || *r.Weekday > 6 {
			return fmt.Errorf("%w: weekly rule needs a weekday between 0 and 6", ErrInvalidRule)
		}
	case Monthly:
		if !validMonthDay(r.MonthDayPrimary) {
			return fmt.Errorf("%w: monthly rule needs a day between 1 and 31", ErrInvalidRule)
		}
	case Biweekly:
		if !validMonthDay(r.MonthDayPrimary) || !validMonthDay(r.MonthDaySecondary) {
			return fmt.Errorf("%w: biweekly rule needs two days between 1 and 31", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown periodicity %q", ErrInvalidRule, r.Periodicity)
	}
	return nil
}

func (e LedgerEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if !validName(e.Description) {
		return fmt.Errorf("%w: description must be 1-%d characters", ErrInvalidEntry, maxNameLength)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEntry, e.Type)
	}
	if e.Amount.IsZero() || e.Type.Sign(e.Amount) != e.Amount {
		return fmt.Errorf("%w: amount %s does not match type %s", ErrInvalidEntry, e.Amount, e.Type)
	}
	if !e.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidEntry, e.PaymentMethod)
	}
	if !e.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, e.Status)
	}
	if e.Period != e.Date.Period() {
		return fmt.Errorf("%w: period %q does not match date %s", ErrInvalidEntry, e.Period, e.Date)
	}
	return nil
}

func (c Category) Validate() error {
	if !validName(c.Name) {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidCategory, maxNameLength)
	}
	if c.MonthlyLimit != nil && c.MonthlyLimit.Cents < 0 {
		return fmt.Errorf("%w: negative monthly limit", ErrInvalidCategory)
	}
	return nil
}

func (c Card) Validate() error {
	if !validName(c.Name) {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidCard, maxNameLength)
	}
	if len(c.Final4) != 4 || strings.Trim(c.Final4, "0123456789") != "" {
		return fmt.Errorf("%w: final4 must be 4 digits", ErrInvalidCard)
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 || c.DueDay < 1 || c.DueDay > 31 {
		return fmt.Errorf("%w: closing and due days must be between 1 and 31", ErrInvalidCard)
	}
	if c.Limit.Cents < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidCard)
	}
	return nil
}
