package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// InsertTx writes a transaction and returns its durable identifier.
// Amounts are stored as decimal strings, dates as YYYY-MM-DD.
func (r *Repository) InsertTx(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (owner_id, date, amount, description, category_id, type, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.OwnerID, tx.Date.Format(dateLayout), tx.Amount.String(),
		tx.Description, tx.CategoryID, tx.Type, tx.Currency)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

// UpdateTx overwrites the transaction identified by tx.ID, scoped to the
// owner. Missing rows report core.ErrNotFound.
func (r *Repository) UpdateTx(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, amount = ?, description = ?, category_id = ?, currency = ?
		WHERE id = ? AND owner_id = ?`,
		tx.Date.Format(dateLayout), tx.Amount.String(), tx.Description,
		tx.CategoryID, tx.Currency, tx.ID, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTx removes a transaction owned by owner.
func (r *Repository) DeleteTx(ctx context.Context, owner, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetTx returns one transaction by id, scoped to the owner.
func (r *Repository) GetTx(ctx context.Context, owner, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT t.id, t.owner_id, t.date, t.amount, t.description, t.category_id,
		       COALESCE(c.name, 'Unknown'), t.type, t.currency
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ? AND t.owner_id = ?`, id, owner)

	tx, err := scanTx(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// ListTx returns the owner's transactions of the given type, newest date
// first.
func (r *Repository) ListTx(ctx context.Context, owner int64, typ core.TxType) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.owner_id, t.date, t.amount, t.description, t.category_id,
		       COALESCE(c.name, 'Unknown'), t.type, t.currency
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.owner_id = ? AND t.type = ?
		ORDER BY t.date DESC, t.id DESC`, owner, typ)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTx(rows)
}

// AllTx returns every transaction of the owner regardless of type, newest
// date first. Used for report aggregation.
func (r *Repository) AllTx(ctx context.Context, owner int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.owner_id, t.date, t.amount, t.description, t.category_id,
		       COALESCE(c.name, 'Unknown'), t.type, t.currency
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.owner_id = ?
		ORDER BY t.date DESC, t.id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	defer rows.Close()
	return collectTx(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTx(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		dateStr   string
		amountStr string
	)
	if err := row.Scan(&tx.ID, &tx.OwnerID, &dateStr, &amountStr,
		&tx.Description, &tx.CategoryID, &tx.Category, &tx.Type, &tx.Currency); err != nil {
		return core.Transaction{}, err
	}

	d, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", dateStr, err)
	}
	tx.Date = d

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}
	tx.Amount = amount
	return tx, nil
}

func collectTx(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}
