package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fluxo/internal/core"
)

// EntryFilter narrows ListEntries. Zero fields do not filter.
type EntryFilter struct {
	Range      *core.DateRange
	Period     string
	Type       core.EntryType
	CategoryID string
	CardID     string
}

const entryColumns = `id, owner_id, type, description, category_id, card_id, amount_cents,
	entry_date, payment_method, status, period, created_at`

const insertEntrySQL = `INSERT INTO ledger_entries (` + entryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertEntries writes a batch in one transaction: either every entry is stored or none.
func (r *SQLiteRepository) InsertEntries(ctx context.Context, entries []core.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return r.insertEntriesTx(ctx, tx, entries)
	})
}

func (r *SQLiteRepository) insertEntriesTx(ctx context.Context, tx *sql.Tx, entries []core.LedgerEntry) error {
	stmt, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return fmt.Errorf("prepare insert entry: %w", err)
	}
	defer stmt.Close()

	created := r.timestamp()
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.OwnerID, string(e.Type), e.Description,
			nullString(e.CategoryID), nullString(e.CardID), e.Amount.Cents,
			e.Date.String(), string(e.PaymentMethod), string(e.Status), e.Period, created,
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, mapError(err))
		}
	}
	return nil
}

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if err := r.InsertEntries(ctx, []core.LedgerEntry{e}); err != nil {
		return core.LedgerEntry{}, err
	}
	return r.GetEntry(ctx, e.OwnerID, e.ID)
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, ownerID, id string) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE id = ? AND owner_id = ?`, id, ownerID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, fmt.Errorf("get entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE ledger_entries SET
			type = ?, description = ?, category_id = ?, card_id = ?, amount_cents = ?,
			entry_date = ?, payment_method = ?, status = ?, period = ?
		WHERE id = ? AND owner_id = ?`,
		string(e.Type), e.Description, nullString(e.CategoryID), nullString(e.CardID), e.Amount.Cents,
		e.Date.String(), string(e.PaymentMethod), string(e.Status), e.Period,
		e.ID, e.OwnerID)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("update entry %s: %w", e.ID, mapError(err))
	}
	if err := expectOneRow(res, "entry", e.ID); err != nil {
		return core.LedgerEntry{}, err
	}
	return r.GetEntry(ctx, e.OwnerID, e.ID)
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return expectOneRow(res, "entry", id)
}

// ListEntries returns an owner's entries, newest first.
func (r *SQLiteRepository) ListEntries(ctx context.Context, ownerID string, f EntryFilter) ([]core.LedgerEntry, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}
	if f.Range != nil {
		where = append(where, "entry_date BETWEEN ? AND ?")
		args = append(args, f.Range.From.String(), f.Range.To.String())
	}
	if f.Period != "" {
		where = append(where, "period = ?")
		args = append(args, f.Period)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.CardID != "" {
		where = append(where, "card_id = ?")
		args = append(args, f.CardID)
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY entry_date DESC, created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// CardSpending returns the absolute expense total per card for one period.
func (r *SQLiteRepository) CardSpending(ctx context.Context, ownerID, period string) (map[string]core.Money, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT card_id, ABS(SUM(amount_cents))
		FROM ledger_entries
		WHERE owner_id = ? AND period = ? AND type = 'expense' AND card_id IS NOT NULL
		GROUP BY card_id`, ownerID, period)
	if err != nil {
		return nil, fmt.Errorf("card spending: %w", err)
	}
	defer rows.Close()

	out := make(map[string]core.Money)
	for rows.Next() {
		var cardID string
		var cents int64
		if err := rows.Scan(&cardID, &cents); err != nil {
			return nil, fmt.Errorf("scan card spending: %w", err)
		}
		out[cardID] = core.Money{Cents: cents}
	}
	return out, rows.Err()
}

func scanEntry(s scanner) (core.LedgerEntry, error) {
	var (
		e                   core.LedgerEntry
		typ, method, status string
		date, created       string
		categoryID, cardID  sql.NullString
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &typ, &e.Description, &categoryID, &cardID, &e.Amount.Cents,
		&date, &method, &status, &e.Period, &created); err != nil {
		return core.LedgerEntry{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Type = core.EntryType(typ)
	e.PaymentMethod = core.PaymentMethod(method)
	e.Status = core.Status(status)
	e.CategoryID = stringPtr(categoryID)
	e.CardID = stringPtr(cardID)
	e.Date = d
	e.CreatedAt = parseTimestamp(created)
	return e, nil
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// OwnersWithEntries lists the owners holding at least one entry in period.
func (r *SQLiteRepository) OwnersWithEntries(ctx context.Context, period string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT owner_id FROM ledger_entries WHERE period = ? ORDER BY owner_id`, period)
	if err != nil {
		return nil, fmt.Errorf("owners with entries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, owner)
	}
	return out, rows.Err()
}
