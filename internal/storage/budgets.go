package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// UpsertBudget creates the (owner, category, currency) budget or overwrites
// its amount when one already exists. Exactly one row per tuple.
func (r *Repository) UpsertBudget(ctx context.Context, owner, categoryID int64, currency string, amount decimal.Decimal) (core.Budget, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (owner_id, category_id, currency, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id, category_id, currency)
		DO UPDATE SET amount = excluded.amount`,
		owner, categoryID, currency, amount.String())
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT b.id, b.owner_id, b.category_id, COALESCE(c.name, ''), b.currency, b.amount
		FROM budgets b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE b.owner_id = ? AND b.category_id = ? AND b.currency = ?`,
		owner, categoryID, currency)

	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("read back budget: %w", err)
	}

	slog.InfoContext(ctx, "budget upserted",
		"owner_id", owner, "category", b.Category, "currency", currency, "amount", b.Amount.String())
	return b, nil
}

// ListBudgets returns all budgets of the owner. No ordering is guaranteed
// to callers.
func (r *Repository) ListBudgets(ctx context.Context, owner int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.owner_id, b.category_id, COALESCE(c.name, ''), b.currency, b.amount
		FROM budgets b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE b.owner_id = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

// FindBudget looks up the single budget for (owner, category name,
// currency); the category name is matched case-insensitively. Returns nil
// when no budget exists: that is a normal state, not an error.
func (r *Repository) FindBudget(ctx context.Context, owner int64, categoryName, currency string) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT b.id, b.owner_id, b.category_id, c.name, b.currency, b.amount
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.owner_id = ? AND LOWER(c.name) = LOWER(?) AND b.currency = ?
		LIMIT 1`, owner, categoryName, currency)

	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}
	return &b, nil
}

// DeleteBudget removes a budget after confirming ownership. An ownership
// mismatch is reported as core.ErrNotFound so nothing leaks about other
// users' budgets.
func (r *Repository) DeleteBudget(ctx context.Context, owner, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		amountStr string
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Category, &b.Currency, &amountStr); err != nil {
		return core.Budget{}, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}
	b.Amount = amount
	return b, nil
}
