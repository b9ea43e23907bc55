package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fluxo/internal/core"
)

const cardColumns = `id, owner_id, name, final4, closing_day, due_day, limit_cents, color, brand, created_at`

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	_, err := r.db.ExecContext(ctx, `INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Final4, c.ClosingDay, c.DueDay, c.Limit.Cents, c.Color, c.Brand, r.timestamp())
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", mapError(err))
	}
	return r.GetCard(ctx, c.OwnerID, c.ID)
}

func (r *SQLiteRepository) GetCard(ctx context.Context, ownerID, id string) (core.Card, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ? AND owner_id = ?`, id, ownerID)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, fmt.Errorf("get card %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.Card) (core.Card, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cards SET name = ?, final4 = ?, closing_day = ?, due_day = ?, limit_cents = ?, color = ?, brand = ?
		WHERE id = ? AND owner_id = ?`,
		c.Name, c.Final4, c.ClosingDay, c.DueDay, c.Limit.Cents, c.Color, c.Brand, c.ID, c.OwnerID)
	if err != nil {
		return core.Card{}, fmt.Errorf("update card %s: %w", c.ID, mapError(err))
	}
	if err := expectOneRow(res, "card", c.ID); err != nil {
		return core.Card{}, err
	}
	return r.GetCard(ctx, c.OwnerID, c.ID)
}

// SetCardLimit replaces only the monthly limit.
func (r *SQLiteRepository) SetCardLimit(ctx context.Context, ownerID, id string, limit core.Money) (core.Card, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cards SET limit_cents = ? WHERE id = ? AND owner_id = ?`, limit.Cents, id, ownerID)
	if err != nil {
		return core.Card{}, fmt.Errorf("set card limit %s: %w", id, mapError(err))
	}
	if err := expectOneRow(res, "card", id); err != nil {
		return core.Card{}, err
	}
	return r.GetCard(ctx, ownerID, id)
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	return expectOneRow(res, "card", id)
}

func (r *SQLiteRepository) ListCards(ctx context.Context, ownerID string) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return out, nil
}

func scanCard(s scanner) (core.Card, error) {
	var (
		c       core.Card
		created string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Final4, &c.ClosingDay, &c.DueDay,
		&c.Limit.Cents, &c.Color, &c.Brand, &created); err != nil {
		return core.Card{}, err
	}
	c.CreatedAt = parseTimestamp(created)
	return c, nil
}
