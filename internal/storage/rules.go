package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fluxo/internal/core"
)

const ruleColumns = `id, owner_id, kind, name, icon, category_id, amount_cents, periodicity,
	weekday, month_day_primary, month_day_secondary, last_processed, active,
	created_on, created_at, updated_at`

func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.RecurrenceRule) (core.RecurrenceRule, error) {
	ts := r.timestamp()
	_, err := r.db.ExecContext(ctx, `INSERT INTO recurrence_rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.OwnerID, string(rule.Kind), rule.Name, rule.Icon, nullString(rule.CategoryID),
		rule.Amount.Cents, string(rule.Periodicity),
		nullInt(rule.Weekday), nullInt(rule.MonthDayPrimary), nullInt(rule.MonthDaySecondary),
		nullDate(rule.LastProcessed), boolInt(rule.Active), rule.CreatedOn.String(), ts, ts)
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("create rule: %w", mapError(err))
	}
	return r.GetRule(ctx, rule.OwnerID, rule.ID)
}

func (r *SQLiteRepository) GetRule(ctx context.Context, ownerID, id string) (core.RecurrenceRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM recurrence_rules WHERE id = ? AND owner_id = ?`, id, ownerID)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurrenceRule{}, fmt.Errorf("get rule %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("get rule %s: %w", id, err)
	}
	return rule, nil
}

// UpdateRule changes user-editable fields. The watermark is owned by the
// materializer and is never touched here.
func (r *SQLiteRepository) UpdateRule(ctx context.Context, rule core.RecurrenceRule) (core.RecurrenceRule, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurrence_rules SET
			kind = ?, name = ?, icon = ?, category_id = ?, amount_cents = ?, periodicity = ?,
			weekday = ?, month_day_primary = ?, month_day_secondary = ?, active = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		string(rule.Kind), rule.Name, rule.Icon, nullString(rule.CategoryID), rule.Amount.Cents,
		string(rule.Periodicity), nullInt(rule.Weekday), nullInt(rule.MonthDayPrimary),
		nullInt(rule.MonthDaySecondary), boolInt(rule.Active), r.timestamp(),
		rule.ID, rule.OwnerID)
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("update rule %s: %w", rule.ID, mapError(err))
	}
	if err := expectOneRow(res, "rule", rule.ID); err != nil {
		return core.RecurrenceRule{}, err
	}
	return r.GetRule(ctx, rule.OwnerID, rule.ID)
}

// DeactivateRule soft-deletes a rule; entries it generated are kept.
func (r *SQLiteRepository) DeactivateRule(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurrence_rules SET active = 0, updated_at = ? WHERE id = ? AND owner_id = ?`,
		r.timestamp(), id, ownerID)
	if err != nil {
		return fmt.Errorf("deactivate rule %s: %w", id, err)
	}
	return expectOneRow(res, "rule", id)
}

// ListRules returns every rule of an owner, active or not.
func (r *SQLiteRepository) ListRules(ctx context.Context, ownerID string) ([]core.RecurrenceRule, error) {
	return r.queryRules(ctx,
		`SELECT `+ruleColumns+` FROM recurrence_rules WHERE owner_id = ? ORDER BY name, id`, ownerID)
}

// ListActiveRules returns the active rules visible in scope.
func (r *SQLiteRepository) ListActiveRules(ctx context.Context, scope core.Scope) ([]core.RecurrenceRule, error) {
	if scope.All() {
		return r.queryRules(ctx,
			`SELECT `+ruleColumns+` FROM recurrence_rules WHERE active = 1 ORDER BY owner_id, created_at, id`)
	}
	return r.queryRules(ctx,
		`SELECT `+ruleColumns+` FROM recurrence_rules WHERE active = 1 AND owner_id = ? ORDER BY created_at, id`,
		scope.OwnerID)
}

func (r *SQLiteRepository) queryRules(ctx context.Context, query string, args ...any) ([]core.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurrenceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

// GetWatermark returns the rule's last processed day, nil if it never ran.
func (r *SQLiteRepository) GetWatermark(ctx context.Context, ruleID string) (*core.Date, error) {
	var lp sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT last_processed FROM recurrence_rules WHERE id = ?`, ruleID).Scan(&lp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get watermark %s: %w", ruleID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get watermark %s: %w", ruleID, err)
	}
	return datePtr(lp)
}

// AdvanceWatermark moves the watermark forward to d. Moving it backwards is refused.
func (r *SQLiteRepository) AdvanceWatermark(ctx context.Context, ruleID string, d core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurrence_rules SET last_processed = ?, updated_at = ?
		WHERE id = ? AND (last_processed IS NULL OR last_processed <= ?)`,
		d.String(), r.timestamp(), ruleID, d.String())
	if err != nil {
		return fmt.Errorf("advance watermark %s: %w", ruleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance watermark %s: %w", ruleID, err)
	}
	if n == 1 {
		return nil
	}
	if _, err := r.GetWatermark(ctx, ruleID); err != nil {
		return err
	}
	return fmt.Errorf("advance watermark %s to %s: %w", ruleID, d, ErrWatermarkRegression)
}

// CommitPass atomically moves the watermark from expected to next and inserts
// the pass's entries. If the watermark no longer equals expected, another pass
// already handled the window: nothing is written and committed is false.
func (r *SQLiteRepository) CommitPass(ctx context.Context, ruleID string, expected *core.Date, next core.Date, entries []core.LedgerEntry) (bool, error) {
	if expected != nil && !next.After(*expected) {
		return false, fmt.Errorf("commit pass %s: %s -> %s: %w", ruleID, expected, next, ErrWatermarkRegression)
	}
	committed := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE recurrence_rules SET last_processed = ?, updated_at = ?
			WHERE id = ? AND last_processed IS ?`,
			next.String(), r.timestamp(), ruleID, nullDate(expected))
		if err != nil {
			return fmt.Errorf("advance watermark %s: %w", ruleID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("advance watermark %s: %w", ruleID, err)
		}
		if n != 1 {
			return nil
		}
		if err := r.insertEntriesTx(ctx, tx, entries); err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("commit pass %s: %w", ruleID, err)
	}
	return committed, nil
}

func scanRule(s scanner) (core.RecurrenceRule, error) {
	var (
		rule                        core.RecurrenceRule
		kind, periodicity           string
		categoryID, lastProcessed   sql.NullString
		weekday, primary, secondary sql.NullInt64
		active                      int
		createdOn, created, updated string
	)
	if err := s.Scan(&rule.ID, &rule.OwnerID, &kind, &rule.Name, &rule.Icon, &categoryID,
		&rule.Amount.Cents, &periodicity, &weekday, &primary, &secondary, &lastProcessed, &active,
		&createdOn, &created, &updated); err != nil {
		return core.RecurrenceRule{}, err
	}
	on, err := core.ParseDate(createdOn)
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("rule %s created_on: %w", rule.ID, err)
	}
	lp, err := datePtr(lastProcessed)
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("rule %s last_processed: %w", rule.ID, err)
	}
	rule.Kind = core.EntryType(kind)
	rule.Periodicity = core.Periodicity(periodicity)
	rule.CategoryID = stringPtr(categoryID)
	rule.Weekday = intPtr(weekday)
	rule.MonthDayPrimary = intPtr(primary)
	rule.MonthDaySecondary = intPtr(secondary)
	rule.LastProcessed = lp
	rule.Active = active == 1
	rule.CreatedOn = on
	rule.CreatedAt = parseTimestamp(created)
	rule.UpdatedAt = parseTimestamp(updated)
	return rule, nil
}
