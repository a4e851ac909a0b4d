package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

// FindCategory looks up a category by case-insensitive name within
// (owner, type). It returns nil (not an error) when no category matches;
// if duplicates somehow exist the oldest one wins.
func (r *Repository) FindCategory(ctx context.Context, owner int64, name string, typ core.TxType) (*core.Category, error) {
	query := `
		SELECT id, owner_id, name, type, is_active
		FROM categories
		WHERE owner_id = ? AND type = ? AND LOWER(name) = LOWER(?)
		ORDER BY id
		LIMIT 1`

	var cat core.Category
	err := r.db.QueryRowContext(ctx, query, owner, typ, name).
		Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.Type, &cat.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &cat, nil
}

// ResolveOrCreateCategory maps a free-text category name to a canonical
// category record, creating one (original casing preserved, active by
// default) when no case-insensitive match exists. The operation is
// idempotent: repeated calls with case-varying spellings of the same name
// return the same category.
func (r *Repository) ResolveOrCreateCategory(ctx context.Context, owner int64, name string, typ core.TxType) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategory
	}

	cat, err := r.FindCategory(ctx, owner, name, typ)
	if err != nil {
		return core.Category{}, err
	}
	if cat != nil {
		return *cat, nil
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, name, type, is_active) VALUES (?, ?, ?, 1)`,
		owner, name, typ)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}

	slog.InfoContext(ctx, "created category", "owner_id", owner, "name", name, "type", typ, "id", id)
	return core.Category{ID: id, OwnerID: owner, Name: name, Type: typ, Active: true}, nil
}

// ListCategories returns all of the owner's categories ordered by type
// then name.
func (r *Repository) ListCategories(ctx context.Context, owner int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, type, is_active
		FROM categories
		WHERE owner_id = ?
		ORDER BY type, name`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var cat core.Category
		if err := rows.Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.Type, &cat.Active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

// DeleteCategory removes a category owned by owner. Transactions that
// reference it keep their category_id; there is no cascade or
// reassignment. Ownership mismatch reports core.ErrNotFound.
func (r *Repository) DeleteCategory(ctx context.Context, owner, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
