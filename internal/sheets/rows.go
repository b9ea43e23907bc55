package sheets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

// Header is the first row of every exported tab.
var Header = []string{"Date", "Description", "Type", "Amount", "Payment", "Status", "Category", "Card", "ID"}

var ErrMalformedRow = errors.New("malformed sheet row")

// Row is one exported ledger entry.
type Row struct {
	Date          core.Date
	Description   string
	Type          core.EntryType
	Amount        core.Money
	PaymentMethod core.PaymentMethod
	Status        core.Status
	CategoryID    string
	CardID        string
	EntryID       string
}

// SheetTitle names the tab holding an owner's period.
func SheetTitle(ownerID, period string) string {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return period
	}
	return period + " " + ownerID
}

// RowsFromEntries converts entries to rows ordered by date, then entry id.
func RowsFromEntries(entries []core.LedgerEntry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			Date:          e.Date,
			Description:   e.Description,
			Type:          e.Type,
			Amount:        e.Amount,
			PaymentMethod: e.PaymentMethod,
			Status:        e.Status,
			CategoryID:    deref(e.CategoryID),
			CardID:        deref(e.CardID),
			EntryID:       e.ID,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].EntryID < rows[j].EntryID
	})
	return rows
}

// Values renders the row in Header order.
func (r Row) Values() []any {
	return []any{
		r.Date.String(), r.Description, string(r.Type), r.Amount.String(),
		string(r.PaymentMethod), string(r.Status), r.CategoryID, r.CardID, r.EntryID,
	}
}

// ParseValues turns sheet cells back into rows. A leading header row and blank
// rows are skipped.
func ParseValues(values [][]string) ([]Row, error) {
	var out []Row
	for i, cells := range values {
		if blank(cells) {
			continue
		}
		if i == 0 && strings.EqualFold(safeGet(cells, 0), Header[0]) {
			continue
		}
		row, err := parseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func parseRow(cells []string) (Row, error) {
	d, err := core.ParseDate(safeGet(cells, 0))
	if err != nil {
		return Row{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	amount, err := parseAmount(safeGet(cells, 3))
	if err != nil {
		return Row{}, err
	}
	return Row{
		Date:          d,
		Description:   safeGet(cells, 1),
		Type:          core.EntryType(safeGet(cells, 2)),
		Amount:        amount,
		PaymentMethod: core.PaymentMethod(safeGet(cells, 4)),
		Status:        core.Status(safeGet(cells, 5)),
		CategoryID:    safeGet(cells, 6),
		CardID:        safeGet(cells, 7),
		EntryID:       safeGet(cells, 8),
	}, nil
}

// parseAmount accepts the formatted values Sheets hands back, including a
// currency prefix, thousands separators and a decimal comma.
func parseAmount(s string) (core.Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "R$"), "€")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: amount %q", ErrMalformedRow, s)
	}
	return core.MoneyFromDecimal(d)
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return strings.TrimSpace(arr[idx])
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
