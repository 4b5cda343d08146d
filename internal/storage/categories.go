package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"financas/internal/core"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// CreateCategory inserts a category. Creating the same (name, kind) pair
// again returns the existing row, so repeated setup commands are harmless.
func (l *Ledger) CreateCategory(ctx context.Context, name string, kind core.CategoryKind) (core.Category, error) {
	category := core.Category{Name: strings.TrimSpace(name), Kind: kind}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}

	res, err := l.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO categories (name, kind) VALUES (?, ?)",
		category.Name, string(category.Kind),
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.Category{}, fmt.Errorf("category rows affected: %w", err)
	}
	if affected == 0 {
		// Already present: look up the existing id.
		err := l.db.QueryRowContext(ctx,
			"SELECT id FROM categories WHERE name = ? AND kind = ?",
			category.Name, string(category.Kind)).Scan(&category.ID)
		if err != nil {
			return core.Category{}, fmt.Errorf("lookup existing category: %w", err)
		}
		return category, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	category.ID = id

	slog.InfoContext(ctx, "Category created",
		"id", category.ID,
		"name", category.Name,
		"kind", category.Kind)

	return category, nil
}

// ListCategories returns all categories, optionally filtered by kind,
// ordered by kind then name.
func (l *Ledger) ListCategories(ctx context.Context, kind *core.CategoryKind) ([]core.Category, error) {
	query := "SELECT id, name, kind FROM categories"
	var args []any
	if kind != nil {
		query += " WHERE kind = ?"
		args = append(args, string(*kind))
	}
	query += " ORDER BY kind, name, id"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var kindStr string
		if err := rows.Scan(&c.ID, &c.Name, &kindStr); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.CategoryKind(kindStr)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory returns a single category or core.ErrCategoryNotFound.
func (l *Ledger) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var kindStr string
	err := l.db.QueryRowContext(ctx,
		"SELECT id, name, kind FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &kindStr)
	if err != nil {
		if isNoRows(err) {
			return core.Category{}, core.ErrCategoryNotFound
		}
		return core.Category{}, fmt.Errorf("query category %d: %w", id, err)
	}
	c.Kind = core.CategoryKind(kindStr)
	return c, nil
}
