package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fluxo/internal/core"
	"fluxo/internal/services"
)

const maxBodyBytes = 64 << 10

var errBadBody = errors.New("malformed request body")

// decodeBody reads a single JSON object into dst, rejecting unknown fields and
// bodies over maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: larger than %d bytes", errBadBody, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty", errBadBody)
		default:
			return fmt.Errorf("%w: %v", errBadBody, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

type entryRequest struct {
	Type          core.EntryType     `json:"type"`
	Description   string             `json:"description"`
	Amount        core.Money         `json:"amount"`
	Date          *core.Date         `json:"date"`
	CategoryID    *string            `json:"categoryId"`
	CardID        *string            `json:"cardId"`
	PaymentMethod core.PaymentMethod `json:"paymentMethod"`
	Status        core.Status        `json:"status"`
}

// input converts the request; a missing date means today.
func (e entryRequest) input(today core.Date) services.EntryInput {
	date := today
	if e.Date != nil {
		date = *e.Date
	}
	return services.EntryInput{
		Type:          core.EntryType(sanitizeInput(string(e.Type))),
		Description:   sanitizeInput(e.Description),
		Amount:        e.Amount,
		Date:          date,
		CategoryID:    optionalString(e.CategoryID),
		CardID:        optionalString(e.CardID),
		PaymentMethod: core.PaymentMethod(sanitizeInput(string(e.PaymentMethod))),
		Status:        core.Status(sanitizeInput(string(e.Status))),
	}
}

type categoryRequest struct {
	Name         string      `json:"name"`
	Color        string      `json:"color"`
	Icon         string      `json:"icon"`
	MonthlyLimit *core.Money `json:"monthlyLimit"`
}

func (c categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:         sanitizeInput(c.Name),
		Color:        sanitizeInput(c.Color),
		Icon:         sanitizeInput(c.Icon),
		MonthlyLimit: c.MonthlyLimit,
	}
}

type cardRequest struct {
	Name       string     `json:"name"`
	Final4     string     `json:"final4"`
	ClosingDay int        `json:"closingDay"`
	DueDay     int        `json:"dueDay"`
	Limit      core.Money `json:"limit"`
	Color      string     `json:"color"`
	Brand      string     `json:"brand"`
}

func (c cardRequest) input() services.CardInput {
	return services.CardInput{
		Name:       sanitizeInput(c.Name),
		Final4:     sanitizeInput(c.Final4),
		ClosingDay: c.ClosingDay,
		DueDay:     c.DueDay,
		Limit:      c.Limit,
		Color:      sanitizeInput(c.Color),
		Brand:      sanitizeInput(c.Brand),
	}
}

// limitRequest sets a card or category limit. A null limit clears a
// category limit and is rejected for cards.
type limitRequest struct {
	Limit *core.Money `json:"limit"`
}

type ruleRequest struct {
	Kind              core.EntryType   `json:"kind"`
	Name              string           `json:"name"`
	Icon              string           `json:"icon"`
	CategoryID        *string          `json:"categoryId"`
	Amount            core.Money       `json:"amount"`
	Periodicity       core.Periodicity `json:"periodicity"`
	Weekday           *int             `json:"weekday"`
	MonthDayPrimary   *int             `json:"monthDayPrimary"`
	MonthDaySecondary *int             `json:"monthDaySecondary"`
}

func (r ruleRequest) input() services.RuleInput {
	return services.RuleInput{
		Kind:              core.EntryType(sanitizeInput(string(r.Kind))),
		Name:              sanitizeInput(r.Name),
		Icon:              sanitizeInput(r.Icon),
		CategoryID:        optionalString(r.CategoryID),
		Amount:            r.Amount,
		Periodicity:       core.Periodicity(sanitizeInput(string(r.Periodicity))),
		Weekday:           r.Weekday,
		MonthDayPrimary:   r.MonthDayPrimary,
		MonthDaySecondary: r.MonthDaySecondary,
	}
}
