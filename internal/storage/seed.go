package storage

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/core"
)

// SeedDefaults populates a default account and starter categories, but only
// when the corresponding table is still empty. Running it on a populated
// database changes nothing.
func (l *Ledger) SeedDefaults(ctx context.Context) error {
	var accounts int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM accounts").Scan(&accounts); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if accounts == 0 {
		if _, err := l.CreateAccount(ctx, "Carteira", core.Money{}); err != nil {
			return fmt.Errorf("seed default account: %w", err)
		}
	}

	var categories int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM categories").Scan(&categories); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if categories == 0 {
		defaults := []core.Category{
			{Name: "Salário", Kind: core.CategoryIncome},
			{Name: "Alimentação", Kind: core.CategoryExpense},
			{Name: "Transporte", Kind: core.CategoryExpense},
			{Name: "Lazer", Kind: core.CategoryExpense},
		}
		for _, c := range defaults {
			if _, err := l.CreateCategory(ctx, c.Name, c.Kind); err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, err)
			}
		}
		slog.InfoContext(ctx, "Seeded starter categories", "count", len(defaults))
	}

	return nil
}
