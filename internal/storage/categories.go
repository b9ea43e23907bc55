package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fluxo/internal/core"
)

const categoryColumns = `id, owner_id, name, color, icon, monthly_limit_cents, active, created_at`

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := r.withTx(ctx, func(tx *sql.Tx) error {
		return r.insertCategoryTx(ctx, tx, c)
	}); err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, c.OwnerID, c.ID)
}

// SeedCategories inserts the given categories in one transaction.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, cats []core.Category) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range cats {
			if err := r.insertCategoryTx(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) insertCategoryTx(ctx context.Context, tx *sql.Tx, c core.Category) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Color, c.Icon, nullMoney(c.MonthlyLimit), boolInt(c.Active), r.timestamp())
	if err != nil {
		return fmt.Errorf("create category %q: %w", c.Name, mapError(err))
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, color = ?, icon = ?, monthly_limit_cents = ?
		WHERE id = ? AND owner_id = ? AND active = 1`,
		c.Name, c.Color, c.Icon, nullMoney(c.MonthlyLimit), c.ID, c.OwnerID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", c.ID, mapError(err))
	}
	if err := expectOneRow(res, "category", c.ID); err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, c.OwnerID, c.ID)
}

// DeactivateCategory soft-deletes a category so existing entries keep their reference.
func (r *SQLiteRepository) DeactivateCategory(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET active = 0 WHERE id = ? AND owner_id = ? AND active = 1`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deactivate category %s: %w", id, err)
	}
	return expectOneRow(res, "category", id)
}

// ListCategories returns an owner's categories by name. Inactive ones are
// included only when includeInactive is set.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string, includeInactive bool) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = ?`
	if !includeInactive {
		query += ` AND active = 1`
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c       core.Category
		limit   sql.NullInt64
		active  int
		created string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Icon, &limit, &active, &created); err != nil {
		return core.Category{}, err
	}
	if limit.Valid {
		c.MonthlyLimit = &core.Money{Cents: limit.Int64}
	}
	c.Active = active == 1
	c.CreatedAt = parseTimestamp(created)
	return c, nil
}

func nullMoney(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Cents, Valid: true}
}
